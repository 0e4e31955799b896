package meeting

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	contractx "github.com/tanpawarit/meeting-voice-agent/agent/contract"
	toolx "github.com/tanpawarit/meeting-voice-agent/agent/tool"
)

type recordingObserver struct {
	mu    sync.Mutex
	calls []ToolCall
}

func (r *recordingObserver) ObserveToolCall(_ context.Context, call ToolCall) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func newSummarySender(t *testing.T, tracker *Tracker, result func(call int32) any) (toolx.Callback, *int32) {
	t.Helper()

	var calls int32
	raw := map[string]toolx.Callback{
		toolx.ToolSendMeetingSummary: func(ctx context.Context, params map[string]any) any {
			n := atomic.AddInt32(&calls, 1)
			time.Sleep(5 * time.Millisecond)
			return result(n)
		},
	}
	return Instrument(tracker, raw)[toolx.ToolSendMeetingSummary], &calls
}

func TestSendIfNeededConcurrentSendsOnce(t *testing.T) {
	t.Parallel()

	tracker := newQuietTracker(Identity{ProjectID: "p1", MeetingID: "m1"})
	send, calls := newSummarySender(t, tracker, func(int32) any { return map[string]any{"id": "c-1"} })
	dispatcher := NewDispatcher(tracker, send, WithLogger(zerolog.Nop()))

	const n = 16
	var delivered int32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reason := "disconnect"
			if i%2 == 0 {
				reason = "pipeline_end"
			}
			if dispatcher.SendIfNeeded(context.Background(), reason) {
				atomic.AddInt32(&delivered, 1)
			}
		}(i)
	}
	wg.Wait()

	if got := atomic.LoadInt32(calls); got != 1 {
		t.Fatalf("send calls = %d, want 1", got)
	}
	if got := atomic.LoadInt32(&delivered); got != 1 {
		t.Fatalf("delivered = %d, want 1", got)
	}
	if !tracker.SummarySent() {
		t.Fatal("tracker must be sent after delivery")
	}
}

func TestSendIfNeededFailedSendStaysCollecting(t *testing.T) {
	t.Parallel()

	tracker := newQuietTracker(Identity{ProjectID: "p1", MeetingID: "m1"})
	send, calls := newSummarySender(t, tracker, func(n int32) any {
		if n == 1 {
			return contractx.ErrorResult("control center request timed out.")
		}
		return map[string]any{"id": "c-2"}
	})
	dispatcher := NewDispatcher(tracker, send, WithLogger(zerolog.Nop()))

	if dispatcher.SendIfNeeded(context.Background(), "disconnect") {
		t.Fatal("failed send must not report delivery")
	}
	if tracker.SummarySent() {
		t.Fatal("failed send must keep the tracker collecting")
	}
	if !dispatcher.SendIfNeeded(context.Background(), "pipeline_end") {
		t.Fatal("retry should deliver")
	}
	if dispatcher.SendIfNeeded(context.Background(), "pipeline_end") {
		t.Fatal("already sent summary must not be resent")
	}
	if got := atomic.LoadInt32(calls); got != 2 {
		t.Fatalf("send calls = %d, want 2", got)
	}
}

func TestSendIfNeededIncompleteIdentity(t *testing.T) {
	t.Parallel()

	tracker := newQuietTracker(Identity{ProjectID: "p1"})
	send, calls := newSummarySender(t, tracker, func(int32) any { return map[string]any{} })
	dispatcher := NewDispatcher(tracker, send, WithLogger(zerolog.Nop()))

	if dispatcher.SendIfNeeded(context.Background(), "disconnect") {
		t.Fatal("summary without meeting id must not be sent")
	}
	if got := atomic.LoadInt32(calls); got != 0 {
		t.Fatalf("send calls = %d, want 0", got)
	}
}

func TestSendIfNeededPassesTrackerParams(t *testing.T) {
	t.Parallel()

	tracker := newQuietTracker(Identity{ProjectID: "p1", MeetingID: "m1"})
	var got map[string]any
	send := Instrument(tracker, map[string]toolx.Callback{
		toolx.ToolSendMeetingSummary: func(_ context.Context, params map[string]any) any {
			got = params
			return map[string]any{"id": "c-3"}
		},
	})[toolx.ToolSendMeetingSummary]

	fixed := time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)
	dispatcher := NewDispatcher(tracker, send, WithLogger(zerolog.Nop()), WithClock(func() time.Time { return fixed }))
	if !dispatcher.SendIfNeeded(context.Background(), "pipeline_end") {
		t.Fatal("expected delivery")
	}
	if got["meeting_ended_at"] != "2026-05-06T07:08:09Z" || got["to_scope"] != "project" {
		t.Fatalf("params = %#v", got)
	}
}

func TestInstrumentOrderAndObservers(t *testing.T) {
	t.Parallel()

	tracker := newQuietTracker(Identity{})
	observer := &recordingObserver{}
	var sawIdentity Identity

	callbacks := Instrument(tracker, map[string]toolx.Callback{
		toolx.ToolSaveMeetingNotes: func(_ context.Context, _ map[string]any) any {
			sawIdentity = tracker.Snapshot().Identity
			if len(tracker.Snapshot().Notes) != 0 {
				t.Error("note must be recorded after the callback returns")
			}
			return map[string]any{"id": "c-4"}
		},
		"nil_callback": nil,
	}, observer, nil)

	if _, ok := callbacks["nil_callback"]; ok {
		t.Fatal("nil callbacks must be skipped")
	}

	params := map[string]any{"project_id": "p1", "meeting_id": "m1", "note": "hello"}
	result := callbacks.Execute(context.Background(), toolx.ToolSaveMeetingNotes, params)
	if contractx.IsErrorResult(result) {
		t.Fatalf("unexpected error result: %#v", result)
	}
	if sawIdentity.ProjectID != "p1" || sawIdentity.MeetingID != "m1" {
		t.Fatalf("identity must be learned before the callback runs: %+v", sawIdentity)
	}
	if notes := tracker.Snapshot().Notes; len(notes) != 1 || notes[0] != "hello" {
		t.Fatalf("notes = %v", notes)
	}
	if len(observer.calls) != 1 || observer.calls[0].Name != toolx.ToolSaveMeetingNotes {
		t.Fatalf("observer calls = %+v", observer.calls)
	}
}
