package digest

import (
	"fmt"
	"strings"
)

// SummarizeParticipants renders the /people/resolve payload as a
// "Participants:" block. It returns "" when nothing can be rendered.
func SummarizeParticipants(payload any) string {
	root, ok := payload.(map[string]any)
	if !ok {
		return ""
	}
	entries, ok := root["participants"].([]any)
	if !ok {
		return ""
	}

	lines := make([]string, 0, len(entries))
	for _, item := range entries {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		email := trimmedString(entry["email"])
		person, ok := entry["person"].(map[string]any)
		if !ok {
			if email != "" {
				lines = append(lines, fmt.Sprintf("- %s: unknown", email))
			}
			continue
		}

		name := trimmedString(person["name"])
		if name == "" {
			name = "Unknown"
		}
		label := name + participantDetail(person)
		if email != "" {
			lines = append(lines, fmt.Sprintf("- %s: %s", email, label))
		} else {
			lines = append(lines, "- "+label)
		}
	}

	if len(lines) == 0 {
		return ""
	}
	return "Participants:\n" + strings.Join(lines, "\n")
}

func participantDetail(person map[string]any) string {
	role := trimmedString(person["role"])
	company := trimmedString(person["company"])
	relationship := trimmedString(person["relationship"])

	var parts []string
	switch {
	case role != "" && company != "":
		parts = append(parts, role+" at "+company)
	case role != "":
		parts = append(parts, role)
	case company != "":
		parts = append(parts, company)
	}
	if relationship != "" {
		parts = append(parts, "relationship: "+relationship)
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}
