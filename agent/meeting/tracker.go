// Package meeting accumulates what happened during one meeting session and
// delivers its closing summary exactly once.
package meeting

import (
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	contractx "github.com/tanpawarit/meeting-voice-agent/agent/contract"
	toolx "github.com/tanpawarit/meeting-voice-agent/agent/tool"
)

const (
	defaultMaxNotes       = 5
	defaultMaxActionItems = 5
	entryLimit            = 140

	nothingCaptured  = "No notes or action items were captured during the meeting."
	notesHeader      = "Notes captured:"
	onlyActionsFound = "No notes were captured; see action items for follow-ups."
)

// Identity addresses the meeting. Each field is set at most once.
type Identity struct {
	ProjectID        string
	MeetingID        string
	MeetingTitle     string
	MeetingStartedAt string
}

// Complete reports whether a summary can be addressed.
func (i Identity) Complete() bool {
	return i.ProjectID != "" && i.MeetingID != ""
}

type Snapshot struct {
	Identity    Identity
	Notes       []string
	ActionItems []string
	Sent        bool
}

// Tracker is safe for concurrent use.
type Tracker struct {
	mu             sync.Mutex
	identity       Identity
	notes          []string
	actionItems    []string
	sent           bool
	blocked        bool
	maxNotes       int
	maxActionItems int
	logger         zerolog.Logger
}

func NewTracker(defaults Identity, opts ...Option) *Tracker {
	o := newOptions(opts)
	return &Tracker{
		identity: Identity{
			ProjectID:        strings.TrimSpace(defaults.ProjectID),
			MeetingID:        strings.TrimSpace(defaults.MeetingID),
			MeetingTitle:     strings.TrimSpace(defaults.MeetingTitle),
			MeetingStartedAt: strings.TrimSpace(defaults.MeetingStartedAt),
		},
		notes:          []string{},
		actionItems:    []string{},
		maxNotes:       o.maxNotes,
		maxActionItems: o.maxActionItems,
		logger:         o.logger,
	}
}

func (t *Tracker) SummarySent() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sent
}

func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{
		Identity:    t.identity,
		Notes:       slices.Clone(t.notes),
		ActionItems: slices.Clone(t.actionItems),
		Sent:        t.sent,
	}
}

// UpdateFromParams learns identity fields from any tool call's parameters.
// Conflicting later values are logged and ignored.
func (t *Tracker) UpdateFromParams(params map[string]any) {
	if len(params) == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.assignOnce("project_id", &t.identity.ProjectID, toolx.StringParam(params, "project_id", "project"))
	t.assignOnce("meeting_id", &t.identity.MeetingID, toolx.StringParam(params, "meeting_id", "meeting"))
	t.assignOnce("meeting_title", &t.identity.MeetingTitle, toolx.StringParam(params, "meeting_title", "meeting_name", "title"))
	t.assignOnce("meeting_started_at", &t.identity.MeetingStartedAt, toolx.StringParam(params, "meeting_started_at", "meeting_start"))
}

// RecordToolResult updates notes, action items and the sent flag from a
// successful tool result. Error results change nothing.
func (t *Tracker) RecordToolResult(name string, params map[string]any, result any) {
	if contractx.IsErrorResult(result) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	switch name {
	case toolx.ToolSaveMeetingNotes:
		if note := toolx.StringParam(params, "note", "text"); note != "" && len(t.notes) < t.maxNotes {
			t.notes = append(t.notes, toolx.TruncateText(note, entryLimit))
		}
	case toolx.ToolCreateActionItem:
		if title := toolx.StringParam(params, "title", "summary"); title != "" && len(t.actionItems) < t.maxActionItems {
			t.actionItems = append(t.actionItems, toolx.TruncateText(title, entryLimit))
		}
	case toolx.ToolSendMeetingSummary:
		t.sent = true
	}
}

// BuildSummaryParams returns send_meeting_summary parameters, or nil when
// the project or meeting id is still unknown.
func (t *Tracker) BuildSummaryParams(endedAt string) map[string]any {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.identity.Complete() {
		if !t.blocked {
			t.logger.Warn().Msg("meeting summary skipped: missing meeting_id or project_id")
			t.blocked = true
		}
		return nil
	}

	params := map[string]any{
		"project_id":       t.identity.ProjectID,
		"meeting_id":       t.identity.MeetingID,
		"summary":          t.summaryText(),
		"meeting_ended_at": endedAt,
		"to_scope":         "project",
		"to_project_id":    t.identity.ProjectID,
	}
	if t.identity.MeetingTitle != "" {
		params["meeting_title"] = t.identity.MeetingTitle
	}
	if t.identity.MeetingStartedAt != "" {
		params["meeting_started_at"] = t.identity.MeetingStartedAt
	}
	if len(t.actionItems) > 0 {
		params["action_items"] = slices.Clone(t.actionItems)
	}
	return params
}

func (t *Tracker) assignOnce(field string, current *string, incoming string) {
	if incoming == "" {
		return
	}
	if *current == "" {
		*current = incoming
		return
	}
	if *current != incoming {
		t.logger.Warn().
			Str("field", field).
			Str("current", *current).
			Str("incoming", incoming).
			Msg("meeting summary tracker saw conflicting values")
	}
}

func (t *Tracker) summaryText() string {
	if len(t.notes) == 0 && len(t.actionItems) == 0 {
		return nothingCaptured
	}
	if len(t.notes) == 0 {
		return onlyActionsFound
	}
	lines := make([]string, 0, len(t.notes)+1)
	lines = append(lines, notesHeader)
	for _, note := range t.notes {
		lines = append(lines, "- "+note)
	}
	return strings.Join(lines, "\n")
}
