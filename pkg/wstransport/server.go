// Package wstransport exchanges plain-text utterances with voice clients
// over WebSocket. Speech-to-text and text-to-speech happen on the client.
package wstransport

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	defaultReadLimit       = 64 << 10
	defaultShutdownTimeout = 5 * time.Second
)

// Handler receives session events. Replies returned from OnUtterance are
// written back as text frames; an empty reply writes nothing.
type Handler interface {
	OnConnect(ctx context.Context, sessionID string)
	OnUtterance(ctx context.Context, sessionID, text string) (string, error)
	OnDisconnect(ctx context.Context, sessionID string)
}

type Option func(*Server)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

func WithReadLimit(limit int64) Option {
	return func(s *Server) {
		if limit > 0 {
			s.readLimit = limit
		}
	}
}

func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

type Server struct {
	Addr string

	logger          zerolog.Logger
	readLimit       int64
	shutdownTimeout time.Duration
	sessions        sync.WaitGroup
}

func New(addr string, opts ...Option) *Server {
	s := &Server{
		Addr:            addr,
		logger:          log.Logger,
		readLimit:       defaultReadLimit,
		shutdownTimeout: defaultShutdownTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Serve listens on Addr and blocks until ctx is done. Open sessions see their
// context cancelled; Serve returns once every OnDisconnect has run.
func (s *Server) Serve(ctx context.Context, handler Handler) error {
	listener, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Handler:           s.Handler(handler),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.Serve(listener)
	}()
	s.logger.Info().Str("addr", listener.Addr().String()).Msg("websocket transport listening")

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		s.sessions.Wait()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn().Err(err).Msg("websocket transport shutdown")
	}
	s.sessions.Wait()
	s.logger.Info().Msg("websocket transport stopped")
	return nil
}

// Handler returns the per-connection HTTP handler. It is exported so the
// transport can be mounted on an existing mux.
func (s *Server) Handler(handler Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.sessions.Add(1)
		defer s.sessions.Done()

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
		if err != nil {
			s.logger.Warn().Err(err).Msg("websocket accept failed")
			return
		}
		defer conn.Close(websocket.StatusInternalError, "closed")
		conn.SetReadLimit(s.readLimit)

		s.serveSession(r.Context(), conn, handler)
	})
}

func (s *Server) serveSession(ctx context.Context, conn *websocket.Conn, handler Handler) {
	sessionID := newSessionID()
	logger := s.logger.With().Str("session_id", sessionID).Logger()

	handler.OnConnect(ctx, sessionID)
	defer handler.OnDisconnect(ctx, sessionID)
	logger.Info().Msg("session connected")

	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				logger.Info().Msg("session closed by client")
			default:
				if ctx.Err() != nil {
					logger.Info().Msg("session closed by shutdown")
					_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
				} else {
					logger.Warn().Err(err).Msg("session read failed")
				}
			}
			return
		}
		if typ != websocket.MessageText {
			logger.Debug().Msg("ignoring binary frame")
			continue
		}

		text := strings.TrimSpace(string(data))
		if text == "" {
			continue
		}

		reply, err := handler.OnUtterance(ctx, sessionID, text)
		if err != nil {
			logger.Error().Err(err).Msg("utterance handler failed")
			_ = conn.Close(websocket.StatusInternalError, "handler error")
			return
		}
		if reply == "" {
			continue
		}
		if err := conn.Write(ctx, websocket.MessageText, []byte(reply)); err != nil {
			logger.Warn().Err(err).Msg("session write failed")
			return
		}
	}
}

func newSessionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
