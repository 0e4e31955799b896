package tool

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/meeting-voice-agent/agent/contract"
)

const isoSeconds = "2006-01-02T15:04:05Z"

// Callback is one tool implementation. It never returns a Go error:
// failures come back as contract.ErrorResult values.
type Callback func(ctx context.Context, params map[string]any) any

type Option func(*Registry)

// WithDefaultAttendees sets the attendee list embedded when a call does not
// name its own attendees.
func WithDefaultAttendees(emails []string) Option {
	return func(r *Registry) {
		r.defaultAttendees = coerceStringList(emails)
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// Registry binds the tool catalog to a control-center client.
type Registry struct {
	client           contractx.ControlCenter
	defaultAttendees []string
	now              func() time.Time
	logger           zerolog.Logger
	callbacks        map[string]Callback
}

func NewRegistry(client contractx.ControlCenter, opts ...Option) *Registry {
	r := &Registry{
		client:           client,
		defaultAttendees: []string{},
		now:              time.Now,
		logger:           log.Logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	r.callbacks = map[string]Callback{
		ToolGetGlobalContext:   r.getGlobalContext,
		ToolGetProjectStatus:   r.getProjectStatus,
		ToolGetShiftContext:    r.getShiftContext,
		ToolSendCommunication:  r.sendCommunication,
		ToolSaveMeetingNotes:   r.saveMeetingNotes,
		ToolCreateActionItem:   r.createActionItem,
		ToolSendMeetingSummary: r.sendMeetingSummary,
	}
	return r
}

// Callbacks returns a new name to callback map on every call.
func (r *Registry) Callbacks() map[string]Callback {
	return maps.Clone(r.callbacks)
}

func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.callbacks))
}

func (r *Registry) Execute(ctx context.Context, name string, params map[string]any) any {
	return dispatch(ctx, r.callbacks, r.logger, name, params)
}

// CallbackSet dispatches by tool name. It satisfies contract.ToolExecutor
// and logs unknown tools to log.Logger; use WithLogger to pick another.
type CallbackSet map[string]Callback

func (s CallbackSet) Execute(ctx context.Context, name string, params map[string]any) any {
	return dispatch(ctx, s, log.Logger, name, params)
}

func (s CallbackSet) WithLogger(logger zerolog.Logger) contractx.ToolExecutor {
	return loggedSet{callbacks: s, logger: logger}
}

type loggedSet struct {
	callbacks CallbackSet
	logger    zerolog.Logger
}

func (l loggedSet) Execute(ctx context.Context, name string, params map[string]any) any {
	return dispatch(ctx, l.callbacks, l.logger, name, params)
}

func dispatch(ctx context.Context, callbacks map[string]Callback, logger zerolog.Logger, name string, params map[string]any) any {
	callback, ok := callbacks[strings.TrimSpace(name)]
	if !ok || callback == nil {
		logger.Warn().Str("tool", name).Msg("unknown tool requested")
		return contractx.ErrorResult(fmt.Sprintf("Unknown tool '%s'.", name))
	}
	return callback(ctx, params)
}

func (r *Registry) isoNow() string {
	return r.now().UTC().Format(isoSeconds)
}

// attendees checks the caller's aliases in order and falls back to the
// registry default.
func (r *Registry) attendees(params map[string]any) []string {
	for _, key := range []string{"attendee_emails", "attendees", "participant_emails", "participants", "emails"} {
		if list := coerceStringList(getParam(params, key)); len(list) > 0 {
			return list
		}
	}
	return slices.Clone(r.defaultAttendees)
}

func (r *Registry) meetingContext(params map[string]any, meetingID string, titleKeys ...string) meetingContext {
	return meetingContext{
		MeetingID: meetingID,
		Title:     StringParam(params, titleKeys...),
		StartedAt: StringParam(params, "meeting_started_at", "meeting_start"),
		Attendees: r.attendees(params),
	}
}

var (
	_ contractx.ToolExecutor = (*Registry)(nil)
	_ contractx.ToolExecutor = CallbackSet(nil)
	_ contractx.ToolExecutor = loggedSet{}
)
