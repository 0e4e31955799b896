package meeting

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	contractx "github.com/tanpawarit/meeting-voice-agent/agent/contract"
	toolx "github.com/tanpawarit/meeting-voice-agent/agent/tool"
)

// Dispatcher serializes summary sends so a meeting gets at most one
// successful summary no matter how many triggers fire.
type Dispatcher struct {
	mu      sync.Mutex
	tracker *Tracker
	send    toolx.Callback
	logger  zerolog.Logger
	now     func() time.Time
}

// NewDispatcher expects send to be the instrumented send_meeting_summary
// callback; the tracker only flips to sent through RecordToolResult.
func NewDispatcher(tracker *Tracker, send toolx.Callback, opts ...Option) *Dispatcher {
	o := newOptions(opts)
	return &Dispatcher{
		tracker: tracker,
		send:    send,
		logger:  o.logger,
		now:     o.now,
	}
}

// SendIfNeeded sends the summary unless it was already delivered or the
// meeting cannot be addressed yet. It reports whether this call delivered it.
func (d *Dispatcher) SendIfNeeded(ctx context.Context, reason string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.send == nil || d.tracker.SummarySent() {
		return false
	}
	params := d.tracker.BuildSummaryParams(d.now().UTC().Format(time.RFC3339))
	if params == nil {
		return false
	}

	result := d.send(ctx, params)
	if contractx.IsErrorResult(result) {
		d.logger.Warn().
			Str("reason", reason).
			Str("error", contractx.ErrorMessage(result)).
			Msg("meeting summary send failed")
		return false
	}
	d.logger.Info().Str("reason", reason).Msg("meeting summary sent")
	return true
}
