package meeting

import (
	"context"
	"time"

	toolx "github.com/tanpawarit/meeting-voice-agent/agent/tool"
)

// ToolCall describes one finished tool invocation.
type ToolCall struct {
	Name      string
	Params    map[string]any
	Result    any
	StartedAt time.Time
	Duration  time.Duration
}

// Observer is notified after every instrumented tool call.
type Observer interface {
	ObserveToolCall(ctx context.Context, call ToolCall)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, call ToolCall)

func (f ObserverFunc) ObserveToolCall(ctx context.Context, call ToolCall) {
	f(ctx, call)
}

// Instrument wraps each callback so the tracker sees its parameters before
// the call and its result after it. Observers run last.
func Instrument(tracker *Tracker, callbacks map[string]toolx.Callback, observers ...Observer) toolx.CallbackSet {
	wrapped := make(toolx.CallbackSet, len(callbacks))
	for name, callback := range callbacks {
		if callback == nil {
			continue
		}
		wrapped[name] = instrumentOne(tracker, name, callback, observers)
	}
	return wrapped
}

func instrumentOne(tracker *Tracker, name string, callback toolx.Callback, observers []Observer) toolx.Callback {
	return func(ctx context.Context, params map[string]any) any {
		tracker.UpdateFromParams(params)
		started := time.Now()
		result := callback(ctx, params)
		tracker.RecordToolResult(name, params, result)

		call := ToolCall{
			Name:      name,
			Params:    params,
			Result:    result,
			StartedAt: started,
			Duration:  time.Since(started),
		}
		for _, observer := range observers {
			if observer != nil {
				observer.ObserveToolCall(ctx, call)
			}
		}
		return result
	}
}
