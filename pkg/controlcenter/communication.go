package controlcenter

import "strings"

const (
	IntentEscalation = "escalation"
	IntentRequest    = "request"
	IntentMessage    = "message"
	IntentSuggestion = "suggestion"
	IntentStatus     = "status"

	ScopeProject = "project"
	ScopeGlobal  = "global"
	ScopeUser    = "user"
)

// CommunicationRequest is posted to /projects/{id}/communications. Empty
// optional fields are left out of the request body.
type CommunicationRequest struct {
	ProjectID   string
	Intent      string
	Summary     string
	Body        string
	ToScope     string
	ToProjectID string
	Type        string
	RunID       string
	ShiftID     string
	Payload     any
}

func (r CommunicationRequest) body() map[string]any {
	data := map[string]any{
		"intent":  strings.TrimSpace(r.Intent),
		"summary": strings.TrimSpace(r.Summary),
	}
	optional := map[string]string{
		"body":          r.Body,
		"to_scope":      r.ToScope,
		"to_project_id": r.ToProjectID,
		"type":          r.Type,
		"run_id":        r.RunID,
		"shift_id":      r.ShiftID,
	}
	for key, value := range optional {
		if value != "" {
			data[key] = value
		}
	}
	if r.Payload != nil {
		data["payload"] = r.Payload
	}
	return data
}
