package tool

import (
	"context"
	"fmt"
	"slices"
	"strings"

	contractx "github.com/tanpawarit/meeting-voice-agent/agent/contract"
	"github.com/tanpawarit/meeting-voice-agent/pkg/controlcenter"
)

const (
	defaultIntent     = controlcenter.IntentRequest
	meetingActionTag  = "meeting-action-item"
	noteSnippetLimit  = 96
	actionTypeWork    = "work_order"
	actionTypeMessage = "communication"
)

func errorResult(err error) any {
	return contractx.ErrorResult(err.Error())
}

func (r *Registry) getGlobalContext(ctx context.Context, _ map[string]any) any {
	out, err := r.client.GetGlobalContext(ctx)
	if err != nil {
		return errorResult(err)
	}
	return out
}

func (r *Registry) getProjectStatus(ctx context.Context, params map[string]any) any {
	projectID := StringParam(params, "project_id", "project")
	if projectID == "" {
		return contractx.ErrorResult("project_id or project is required.")
	}
	out, err := r.client.GetProjectStatus(ctx, projectID)
	if err != nil {
		return errorResult(err)
	}
	return out
}

func (r *Registry) getShiftContext(ctx context.Context, params map[string]any) any {
	projectID := StringParam(params, "project_id", "project")
	if projectID == "" {
		return contractx.ErrorResult("project_id is required.")
	}
	out, err := r.client.GetShiftContext(ctx, projectID)
	if err != nil {
		return errorResult(err)
	}
	return out
}

func (r *Registry) sendCommunication(ctx context.Context, params map[string]any) any {
	if len(params) == 0 {
		return contractx.ErrorResult("Communication details are required.")
	}
	projectID := coerceString(params["project_id"])
	summary := coerceString(params["summary"])
	if projectID == "" || summary == "" {
		return contractx.ErrorResult("project_id and summary are required.")
	}
	intent := coerceString(params["intent"])
	if intent == "" {
		intent = defaultIntent
	}
	if !slices.Contains(communicationIntents, intent) {
		return errorResult(errInvalidIntent)
	}
	scope, toProjectID, err := resolveScope(params, "", projectID)
	if err != nil {
		return errorResult(err)
	}

	out, err := r.client.SendCommunication(ctx, controlcenter.CommunicationRequest{
		ProjectID:   projectID,
		Intent:      intent,
		Summary:     summary,
		Body:        coerceString(params["body"]),
		ToScope:     scope,
		ToProjectID: toProjectID,
		Type:        coerceString(params["type"]),
		RunID:       coerceString(params["run_id"]),
		ShiftID:     coerceString(params["shift_id"]),
		Payload:     params["payload"],
	})
	if err != nil {
		return errorResult(err)
	}
	return out
}

func (r *Registry) saveMeetingNotes(ctx context.Context, params map[string]any) any {
	if len(params) == 0 {
		return contractx.ErrorResult("Meeting note details are required.")
	}
	projectID := StringParam(params, "project_id", "project")
	meetingID := StringParam(params, "meeting_id", "meeting")
	note := StringParam(params, "note", "text")
	if projectID == "" || meetingID == "" || note == "" {
		return contractx.ErrorResult("project_id, meeting_id, and note are required.")
	}

	meeting := r.meetingContext(params, meetingID, "meeting_title", "meeting_name", "title")
	recordedAt := StringParam(params, "timestamp", "note_timestamp")
	if recordedAt == "" {
		recordedAt = r.isoNow()
	}

	summary := StringParam(params, "summary")
	if summary == "" {
		snippet := TruncateText(strings.TrimSpace(strings.ReplaceAll(note, "\n", " ")), noteSnippetLimit)
		if meeting.Title != "" {
			summary = fmt.Sprintf("Meeting note: %s - %s", meeting.Title, snippet)
		} else {
			summary = fmt.Sprintf("Meeting note (%s): %s", meetingID, snippet)
		}
	}

	lines := meeting.headerLines()
	lines = append(lines, "Note timestamp: "+recordedAt, "", note)

	payload := meeting.payload("note", recordedAt)
	payload["note"] = note
	payload["note_timestamp"] = recordedAt

	scope, toProjectID, err := resolveScope(params, controlcenter.ScopeProject, projectID)
	if err != nil {
		return errorResult(err)
	}

	out, err := r.client.SendCommunication(ctx, controlcenter.CommunicationRequest{
		ProjectID:   projectID,
		Intent:      controlcenter.IntentMessage,
		Summary:     summary,
		Body:        strings.Join(lines, "\n"),
		ToScope:     scope,
		ToProjectID: toProjectID,
		Payload:     payload,
	})
	if err != nil {
		return errorResult(err)
	}
	return out
}

func (r *Registry) createActionItem(ctx context.Context, params map[string]any) any {
	if len(params) == 0 {
		return contractx.ErrorResult("Action item details are required.")
	}
	projectID := StringParam(params, "project_id", "project")
	meetingID := StringParam(params, "meeting_id", "meeting")
	title := StringParam(params, "title", "summary")
	if projectID == "" || meetingID == "" || title == "" {
		return contractx.ErrorResult("project_id, meeting_id, and title are required.")
	}

	actionType := StringParam(params, "action_type", "type", "mode")
	if actionType == "" {
		actionType = actionTypeWork
	}
	if !slices.Contains(actionItemTypes, actionType) {
		return contractx.ErrorResult("action_type must be work_order or communication.")
	}

	meeting := r.meetingContext(params, meetingID, "meeting_title", "meeting_name")
	description := StringParam(params, "description", "details", "body")

	if actionType == actionTypeMessage {
		return r.actionItemCommunication(ctx, params, projectID, title, description, meeting)
	}
	return r.actionItemWorkOrder(ctx, params, projectID, title, description, meeting)
}

func (r *Registry) actionItemCommunication(
	ctx context.Context,
	params map[string]any,
	projectID, title, description string,
	meeting meetingContext,
) any {
	payload := meeting.payload("action_item", r.isoNow())
	payload["action_title"] = title
	if description != "" {
		payload["action_description"] = description
	}

	intent := StringParam(params, "intent")
	if intent == "" {
		intent = defaultIntent
	}
	if !slices.Contains(actionItemIntents, intent) {
		return contractx.ErrorResult("intent must be request, message, suggestion, or status.")
	}

	summary := StringParam(params, "summary")
	if summary == "" {
		summary = fmt.Sprintf("Action item (%s): %s", meeting.MeetingID, title)
	}
	lines := meeting.headerLines()
	lines = append(lines, "Action item: "+title)
	if description != "" {
		lines = append(lines, "Details: "+description)
	}

	scope, toProjectID, err := resolveScope(params, controlcenter.ScopeGlobal, projectID)
	if err != nil {
		return errorResult(err)
	}

	out, err := r.client.SendCommunication(ctx, controlcenter.CommunicationRequest{
		ProjectID:   projectID,
		Intent:      intent,
		Summary:     summary,
		Body:        strings.Join(lines, "\n"),
		ToScope:     scope,
		ToProjectID: toProjectID,
		Payload:     payload,
	})
	if err != nil {
		return errorResult(err)
	}
	return map[string]any{"action_type": actionTypeMessage, "communication": out}
}

func (r *Registry) actionItemWorkOrder(
	ctx context.Context,
	params map[string]any,
	projectID, title, description string,
	meeting meetingContext,
) any {
	tags := coerceStringList(getParam(params, "tags"))
	if !slices.Contains(tags, meetingActionTag) {
		tags = append(tags, meetingActionTag)
	}
	create := map[string]any{"title": title, "tags": tags}
	if priority, ok := coerceInt(getParam(params, "priority")); ok {
		create["priority"] = priority
	}

	created, err := r.client.CreateWorkOrder(ctx, projectID, create)
	if err != nil {
		return errorResult(err)
	}
	details, ok := created.(map[string]any)
	if !ok {
		return contractx.ErrorResult("Control center response missing work order details.")
	}
	workOrderID := coerceString(details["id"])
	if workOrderID == "" {
		return contractx.ErrorResult("Control center response missing work order id.")
	}

	contextLines := []string{"Origin: Meeting " + meeting.MeetingID}
	if meeting.Title != "" {
		contextLines = append(contextLines, "Meeting title: "+meeting.Title)
	}
	if meeting.StartedAt != "" {
		contextLines = append(contextLines, "Meeting started: "+meeting.StartedAt)
	}
	if description != "" {
		contextLines = append(contextLines, "Action detail: "+description)
	}
	patch := map[string]any{"context": contextLines}
	if description != "" {
		patch["goal"] = description
	}

	updated, err := r.client.PatchWorkOrder(ctx, projectID, workOrderID, patch)
	if err != nil {
		return errorResult(err)
	}
	return map[string]any{"action_type": actionTypeWork, "work_order": updated}
}

func (r *Registry) sendMeetingSummary(ctx context.Context, params map[string]any) any {
	if len(params) == 0 {
		return contractx.ErrorResult("Meeting summary details are required.")
	}
	projectID := StringParam(params, "project_id", "project")
	meetingID := StringParam(params, "meeting_id", "meeting")
	summaryText := StringParam(params, "summary", "meeting_summary")
	if projectID == "" || meetingID == "" || summaryText == "" {
		return contractx.ErrorResult("project_id, meeting_id, and summary are required.")
	}

	meeting := r.meetingContext(params, meetingID, "meeting_title", "meeting_name", "title")
	meeting.EndedAt = StringParam(params, "meeting_ended_at", "meeting_end")

	sections := []struct {
		key   string
		label string
		items []string
	}{
		{key: "decisions", label: "Decisions:"},
		{key: "action_items", label: "Action items:"},
		{key: "next_steps", label: "Next steps:"},
	}
	for i := range sections {
		sections[i].items = coerceStringList(getParam(params, sections[i].key))
	}

	title := StringParam(params, "summary_title")
	if title == "" {
		if meeting.Title != "" {
			title = "Meeting summary: " + meeting.Title
		} else {
			title = fmt.Sprintf("Meeting summary (%s)", meetingID)
		}
	}

	lines := meeting.headerLines()
	if meeting.EndedAt != "" {
		lines = append(lines, "Meeting ended: "+meeting.EndedAt)
	}
	lines = append(lines, "", "Summary:", summaryText)

	payload := meeting.payload("summary", r.isoNow())
	payload["summary"] = summaryText
	for _, section := range sections {
		if len(section.items) == 0 {
			continue
		}
		lines = append(lines, "", section.label)
		for _, item := range section.items {
			lines = append(lines, "- "+item)
		}
		payload[section.key] = section.items
	}

	scope, toProjectID, err := resolveScope(params, controlcenter.ScopeGlobal, projectID)
	if err != nil {
		return errorResult(err)
	}

	out, err := r.client.SendCommunication(ctx, controlcenter.CommunicationRequest{
		ProjectID:   projectID,
		Intent:      controlcenter.IntentStatus,
		Summary:     title,
		Body:        strings.Join(lines, "\n"),
		ToScope:     scope,
		ToProjectID: toProjectID,
		Payload:     payload,
	})
	if err != nil {
		return errorResult(err)
	}
	return out
}
