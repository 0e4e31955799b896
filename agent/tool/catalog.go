package tool

import (
	"maps"
	"slices"

	"github.com/cloudwego/eino/schema"
)

const (
	ToolGetGlobalContext   = "get_global_context"
	ToolGetProjectStatus   = "get_project_status"
	ToolGetShiftContext    = "get_shift_context"
	ToolSendCommunication  = "send_communication"
	ToolSaveMeetingNotes   = "save_meeting_notes"
	ToolCreateActionItem   = "create_action_item"
	ToolSendMeetingSummary = "send_meeting_summary"
)

var (
	communicationIntents = []string{"escalation", "request", "message", "suggestion", "status"}
	actionItemIntents    = []string{"request", "message", "suggestion", "status"}
	communicationScopes  = []string{"project", "global", "user"}
	actionItemTypes      = []string{"work_order", "communication"}
	communicationTypes   = []string{
		"need_input", "blocked", "decision_required", "error",
		"budget_warning", "budget_critical", "budget_exhausted", "run_blocked",
	}
)

// Definition describes one tool for the model's function-calling config.
type Definition struct {
	Name        string
	Description string
	Params      map[string]*schema.ParameterInfo
}

func (d Definition) ToolInfo() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name:        d.Name,
		Desc:        d.Description,
		ParamsOneOf: schema.NewParamsOneOfByParams(d.Params),
	}
}

// InputSchema renders Params as a plain JSON-schema object.
func (d Definition) InputSchema() map[string]any {
	properties := make(map[string]any, len(d.Params))
	var required []string
	for _, name := range slices.Sorted(maps.Keys(d.Params)) {
		param := d.Params[name]
		properties[name] = parameterSchema(param)
		if param.Required {
			required = append(required, name)
		}
	}
	out := map[string]any{"type": "object", "properties": properties}
	if len(required) > 0 {
		out["required"] = required
	}
	return out
}

func parameterSchema(param *schema.ParameterInfo) map[string]any {
	out := map[string]any{"type": string(param.Type)}
	if param.Desc != "" {
		out["description"] = param.Desc
	}
	if len(param.Enum) > 0 {
		out["enum"] = slices.Clone(param.Enum)
	}
	if param.ElemInfo != nil {
		out["items"] = parameterSchema(param.ElemInfo)
	}
	if param.Type == schema.Object && len(param.SubParams) == 0 {
		out["additionalProperties"] = true
	}
	return out
}

// BuildDefinitions returns a fresh copy of the tool catalog, so callers may
// mutate the result freely.
func BuildDefinitions() []Definition {
	return []Definition{
		{
			Name:        ToolGetGlobalContext,
			Description: "Fetch the global portfolio context from the control center.",
			Params:      map[string]*schema.ParameterInfo{},
		},
		{
			Name:        ToolGetProjectStatus,
			Description: "Fetch a single project's status summary by project id or name.",
			Params: map[string]*schema.ParameterInfo{
				"project_id": {Type: schema.String, Desc: "Project id or name to look up.", Required: true},
				"project":    {Type: schema.String, Desc: "Project id or name to look up."},
			},
		},
		{
			Name:        ToolGetShiftContext,
			Description: "Fetch the shift context for a project.",
			Params: map[string]*schema.ParameterInfo{
				"project_id": {Type: schema.String, Desc: "Project id.", Required: true},
			},
		},
		{
			Name:        ToolSendCommunication,
			Description: "Send a communication to the control center communication queue.",
			Params: map[string]*schema.ParameterInfo{
				"project_id":    {Type: schema.String, Desc: "Project id.", Required: true},
				"intent":        {Type: schema.String, Desc: "Communication intent; defaults to request.", Enum: slices.Clone(communicationIntents)},
				"summary":       {Type: schema.String, Desc: "Short summary line.", Required: true},
				"body":          {Type: schema.String, Desc: "Optional detail body."},
				"to_scope":      scopeParam(),
				"to_project_id": toProjectParam(),
				"type":          {Type: schema.String, Enum: slices.Clone(communicationTypes)},
				"run_id":        {Type: schema.String},
				"shift_id":      {Type: schema.String},
				"payload":       {Type: schema.Object, Desc: "Free-form structured payload."},
			},
		},
		{
			Name:        ToolSaveMeetingNotes,
			Description: "Save a timestamped meeting note to control center communications.",
			Params: map[string]*schema.ParameterInfo{
				"project_id":         {Type: schema.String, Desc: "Project id.", Required: true},
				"meeting_id":         {Type: schema.String, Desc: "Meeting id.", Required: true},
				"attendee_emails":    attendeesParam(),
				"note":               {Type: schema.String, Desc: "Note to store.", Required: true},
				"summary":            {Type: schema.String, Desc: "Optional short summary for the note."},
				"meeting_title":      {Type: schema.String, Desc: "Meeting title."},
				"meeting_started_at": {Type: schema.String, Desc: "ISO timestamp when the meeting started."},
				"timestamp":          {Type: schema.String, Desc: "ISO timestamp for the note; defaults to now."},
				"to_scope":           scopeParam(),
				"to_project_id":      toProjectParam(),
			},
		},
		{
			Name:        ToolCreateActionItem,
			Description: "Create a meeting action item as a work order or communication.",
			Params: map[string]*schema.ParameterInfo{
				"project_id":         {Type: schema.String, Desc: "Project id.", Required: true},
				"meeting_id":         {Type: schema.String, Desc: "Meeting id.", Required: true},
				"attendee_emails":    attendeesParam(),
				"title":              {Type: schema.String, Desc: "Action item title.", Required: true},
				"description":        {Type: schema.String, Desc: "Optional details for the action item."},
				"action_type":        {Type: schema.String, Desc: "Defaults to work_order.", Enum: slices.Clone(actionItemTypes)},
				"priority":           {Type: schema.Number, Desc: "Optional work order priority (1-5)."},
				"tags":               stringListParam(""),
				"meeting_title":      {Type: schema.String, Desc: "Meeting title."},
				"meeting_started_at": {Type: schema.String, Desc: "ISO timestamp when the meeting started."},
				"intent":             {Type: schema.String, Desc: "Intent for communication action items.", Enum: slices.Clone(actionItemIntents)},
				"to_scope":           scopeParam(),
				"to_project_id":      toProjectParam(),
			},
		},
		{
			Name:        ToolSendMeetingSummary,
			Description: "Send the post-meeting summary as a status communication.",
			Params: map[string]*schema.ParameterInfo{
				"project_id":         {Type: schema.String, Desc: "Project id.", Required: true},
				"meeting_id":         {Type: schema.String, Desc: "Meeting id.", Required: true},
				"attendee_emails":    attendeesParam(),
				"summary":            {Type: schema.String, Desc: "Meeting summary text.", Required: true},
				"meeting_title":      {Type: schema.String, Desc: "Meeting title."},
				"meeting_started_at": {Type: schema.String, Desc: "ISO timestamp when the meeting started."},
				"meeting_ended_at":   {Type: schema.String, Desc: "ISO timestamp when the meeting ended."},
				"decisions":          stringListParam(""),
				"action_items":       stringListParam(""),
				"next_steps":         stringListParam(""),
				"to_scope":           scopeParam(),
				"to_project_id":      toProjectParam(),
			},
		},
	}
}

func BuildToolInfos() []*schema.ToolInfo {
	definitions := BuildDefinitions()
	infos := make([]*schema.ToolInfo, 0, len(definitions))
	for _, definition := range definitions {
		infos = append(infos, definition.ToolInfo())
	}
	return infos
}

func scopeParam() *schema.ParameterInfo {
	return &schema.ParameterInfo{Type: schema.String, Enum: slices.Clone(communicationScopes)}
}

func toProjectParam() *schema.ParameterInfo {
	return &schema.ParameterInfo{Type: schema.String, Desc: "Required when to_scope=project."}
}

func attendeesParam() *schema.ParameterInfo {
	return stringListParam("Optional attendee emails.")
}

func stringListParam(desc string) *schema.ParameterInfo {
	return &schema.ParameterInfo{
		Type:     schema.Array,
		Desc:     desc,
		ElemInfo: &schema.ParameterInfo{Type: schema.String},
	}
}
