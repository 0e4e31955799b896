package tool

import (
	"errors"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	errInvalidScope  = errors.New("to_scope must be project, global, or user.")
	errInvalidIntent = errors.New("intent must be escalation, request, message, suggestion, or status.")
)

// getParam returns the value of the first key present in params, even when
// that value is unusable. Later aliases are not consulted.
func getParam(params map[string]any, keys ...string) any {
	for _, key := range keys {
		if value, ok := params[key]; ok {
			return value
		}
	}
	return nil
}

// StringParam reads the first present alias and coerces it to a trimmed
// string; unusable values read as "".
func StringParam(params map[string]any, keys ...string) string {
	return coerceString(getParam(params, keys...))
}

// coerceString treats non-strings and blank strings as absent ("").
func coerceString(value any) string {
	s, ok := value.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// coerceStringList accepts a list (non-string items dropped) or a
// comma-separated string.
func coerceStringList(value any) []string {
	var raw []string
	switch typed := value.(type) {
	case []string:
		raw = typed
	case []any:
		for _, item := range typed {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			}
		}
	case string:
		raw = strings.Split(typed, ",")
	default:
		return []string{}
	}

	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// coerceInt truncates numbers toward zero and parses numeric strings.
// Booleans are rejected.
func coerceInt(value any) (int, bool) {
	switch n := value.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		if n > math.MaxInt || n < math.MinInt {
			return 0, false
		}
		return int(n), true
	case float32:
		return coerceInt(float64(n))
	case float64:
		if math.IsNaN(n) || n >= math.MaxInt || n < math.MinInt {
			return 0, false
		}
		return int(n), true
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return parsed, true
	}
	return 0, false
}

// TruncateText clips text to limit runes, ending in "..." when clipped.
func TruncateText(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	clipped := strings.TrimRightFunc(string(runes[:max(0, limit-3)]), unicode.IsSpace)
	return clipped + "..."
}

// resolveScope validates an explicit to_scope or applies fallback. Project
// scope addresses the acting project unless to_project_id says otherwise.
// An empty fallback leaves an absent scope absent.
func resolveScope(params map[string]any, fallback, projectID string) (string, string, error) {
	scope := StringParam(params, "to_scope")
	if scope == "" {
		scope = fallback
	}
	if scope == "" {
		return "", StringParam(params, "to_project_id"), nil
	}
	if !slices.Contains(communicationScopes, scope) {
		return "", "", errInvalidScope
	}
	toProjectID := StringParam(params, "to_project_id")
	if scope == "project" && toProjectID == "" {
		toProjectID = projectID
	}
	return scope, toProjectID, nil
}

type meetingContext struct {
	MeetingID string
	Title     string
	StartedAt string
	EndedAt   string
	Attendees []string
}

func (m meetingContext) payload(kind, recordedAt string) map[string]any {
	payload := map[string]any{
		"meeting_id":  m.MeetingID,
		"recorded_at": recordedAt,
		"kind":        kind,
	}
	if m.Title != "" {
		payload["meeting_title"] = m.Title
	}
	if m.StartedAt != "" {
		payload["meeting_started_at"] = m.StartedAt
	}
	if m.EndedAt != "" {
		payload["meeting_ended_at"] = m.EndedAt
	}
	if len(m.Attendees) > 0 {
		payload["attendee_emails"] = slices.Clone(m.Attendees)
	}
	return payload
}

// headerLines are the "Meeting ID/title/started" lines shared by every
// meeting-derived body.
func (m meetingContext) headerLines() []string {
	lines := []string{"Meeting ID: " + m.MeetingID}
	if m.Title != "" {
		lines = append(lines, "Meeting title: "+m.Title)
	}
	if m.StartedAt != "" {
		lines = append(lines, "Meeting started: "+m.StartedAt)
	}
	return lines
}
