// Package pipeline connects a text transport to the conversation and makes
// sure the meeting summary goes out when the session ends.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	ReasonDisconnect  = "disconnect"
	ReasonPipelineEnd = "pipeline_end"

	defaultSummaryTimeout = 15 * time.Second
	fallbackReply         = "Sorry, I could not process that. Please try again."
)

// Handler receives transport events for each client session.
type Handler interface {
	OnConnect(ctx context.Context, sessionID string)
	OnUtterance(ctx context.Context, sessionID, text string) (string, error)
	OnDisconnect(ctx context.Context, sessionID string)
}

// Transport delivers client sessions to a Handler until ctx is done.
type Transport interface {
	Serve(ctx context.Context, handler Handler) error
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, handler Handler) error

func (f TransportFunc) Serve(ctx context.Context, handler Handler) error {
	return f(ctx, handler)
}

type Responder interface {
	Respond(ctx context.Context, utterance string) (string, error)
}

type SummarySender interface {
	SendIfNeeded(ctx context.Context, reason string) bool
}

type Option func(*Runner)

func WithLogger(logger zerolog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithSummaryTimeout bounds each summary trigger; triggers run detached
// from the session context so shutdown does not cancel them.
func WithSummaryTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.summaryTimeout = d
		}
	}
}

type Runner struct {
	responder      Responder
	summary        SummarySender
	logger         zerolog.Logger
	summaryTimeout time.Duration
	pending        sync.WaitGroup
}

func NewRunner(responder Responder, summary SummarySender, opts ...Option) *Runner {
	r := &Runner{
		responder:      responder,
		summary:        summary,
		logger:         log.Logger,
		summaryTimeout: defaultSummaryTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Run serves transport until it stops, then triggers the final summary and
// waits for any disconnect-triggered sends still in flight.
func (r *Runner) Run(ctx context.Context, transport Transport) error {
	err := transport.Serve(ctx, r)
	if err != nil {
		r.logger.Error().Err(err).Msg("transport stopped with error")
	}
	r.sendSummary(ctx, ReasonPipelineEnd)
	r.pending.Wait()
	return err
}

func (r *Runner) OnConnect(_ context.Context, sessionID string) {
	r.logger.Info().Str("session_id", sessionID).Msg("client connected")
}

func (r *Runner) OnUtterance(ctx context.Context, sessionID, text string) (string, error) {
	reply, err := r.responder.Respond(ctx, text)
	if err != nil {
		r.logger.Warn().Str("session_id", sessionID).Err(err).Msg("conversation turn failed")
		return fallbackReply, nil
	}
	return reply, nil
}

// OnDisconnect schedules a summary send without blocking the transport.
func (r *Runner) OnDisconnect(ctx context.Context, sessionID string) {
	r.logger.Info().Str("session_id", sessionID).Msg("client disconnected")
	r.pending.Add(1)
	go func() {
		defer r.pending.Done()
		r.sendSummary(ctx, ReasonDisconnect)
	}()
}

func (r *Runner) sendSummary(ctx context.Context, reason string) {
	if r.summary == nil {
		return
	}
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.summaryTimeout)
	defer cancel()
	r.summary.SendIfNeeded(sendCtx, reason)
}
