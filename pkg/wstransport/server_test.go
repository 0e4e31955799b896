package wstransport

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
)

type recordingHandler struct {
	mu           sync.Mutex
	connected    []string
	utterances   []string
	err          error
	disconnected chan string
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{disconnected: make(chan string, 1)}
}

func (h *recordingHandler) OnConnect(_ context.Context, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connected = append(h.connected, sessionID)
}

func (h *recordingHandler) OnUtterance(_ context.Context, _ string, text string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.utterances = append(h.utterances, text)
	if h.err != nil {
		return "", h.err
	}
	return "echo: " + text, nil
}

func (h *recordingHandler) OnDisconnect(_ context.Context, sessionID string) {
	h.disconnected <- sessionID
}

func dial(t *testing.T, ctx context.Context, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(url, "http"), nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	return conn
}

func waitDisconnect(t *testing.T, h *recordingHandler) string {
	t.Helper()
	select {
	case id := <-h.disconnected:
		return id
	case <-time.After(3 * time.Second):
		t.Fatal("OnDisconnect was not called")
		return ""
	}
}

func TestServerRepliesToTextFrames(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	handler := newRecordingHandler()
	srv := httptest.NewServer(New("").Handler(handler))
	defer srv.Close()

	conn := dial(t, ctx, srv.URL)
	defer conn.CloseNow()

	if err := conn.Write(ctx, websocket.MessageBinary, []byte{0x01, 0x02}); err != nil {
		t.Fatalf("Write(binary) error = %v", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, []byte("  status of alpha  ")); err != nil {
		t.Fatalf("Write(text) error = %v", err)
	}

	typ, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if typ != websocket.MessageText {
		t.Fatalf("message type = %v, want text", typ)
	}
	if got := string(data); got != "echo: status of alpha" {
		t.Fatalf("reply = %q, want %q", got, "echo: status of alpha")
	}

	if err := conn.Close(websocket.StatusNormalClosure, "bye"); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	sessionID := waitDisconnect(t, handler)

	handler.mu.Lock()
	defer handler.mu.Unlock()
	if len(handler.connected) != 1 || handler.connected[0] != sessionID {
		t.Fatalf("connected = %v, want [%s]", handler.connected, sessionID)
	}
	if len(handler.utterances) != 1 {
		t.Fatalf("utterances = %v, want exactly one", handler.utterances)
	}
	if sessionID == "" {
		t.Fatal("expected non-empty session id")
	}
}

func TestServerClosesSessionOnHandlerError(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	handler := newRecordingHandler()
	handler.err = errors.New("boom")
	srv := httptest.NewServer(New("").Handler(handler))
	defer srv.Close()

	conn := dial(t, ctx, srv.URL)
	defer conn.CloseNow()

	if err := conn.Write(ctx, websocket.MessageText, []byte("hello")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	_, _, err := conn.Read(ctx)
	if got := websocket.CloseStatus(err); got != websocket.StatusInternalError {
		t.Fatalf("CloseStatus() = %v, want %v (err = %v)", got, websocket.StatusInternalError, err)
	}
	waitDisconnect(t, handler)
}

func TestServeStopsWhenContextIsDone(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- New("127.0.0.1:0").Serve(ctx, newRecordingHandler())
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve() error = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
}

func TestServeReturnsListenError(t *testing.T) {
	t.Parallel()

	err := New("256.0.0.1:bad").Serve(context.Background(), newRecordingHandler())
	if err == nil {
		t.Fatal("Serve() error = nil, want listen error")
	}
}

func TestNewSessionIDIsUnique(t *testing.T) {
	t.Parallel()

	first, second := newSessionID(), newSessionID()
	if first == "" || first == second {
		t.Fatalf("newSessionID() = %q, %q; want distinct non-empty ids", first, second)
	}
}
