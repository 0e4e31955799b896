package meeting

import (
	"context"

	contractx "github.com/tanpawarit/meeting-voice-agent/agent/contract"
	"github.com/tanpawarit/meeting-voice-agent/pkg/journal"
)

// Recorder is the subset of journal.Journal the observer needs.
type Recorder interface {
	Record(ctx context.Context, entry journal.Entry)
}

// JournalObserver records every tool call, with the in-band error message
// when the tool failed.
func JournalObserver(rec Recorder) Observer {
	return ObserverFunc(func(ctx context.Context, call ToolCall) {
		rec.Record(ctx, journal.Entry{
			Tool:      call.Name,
			Params:    call.Params,
			Error:     contractx.ErrorMessage(call.Result),
			StartedAt: call.StartedAt,
			Duration:  call.Duration,
		})
	})
}
