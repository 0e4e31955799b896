package meeting

import "strings"

// Config seeds the tracker and the registry from the environment
// (prefix MEETING).
type Config struct {
	ProjectID      string `envconfig:"PROJECT_ID" split_words:"true"`
	ID             string `envconfig:"ID"`
	Title          string `envconfig:"TITLE"`
	StartedAt      string `envconfig:"STARTED_AT" split_words:"true"`
	AttendeeEmails string `envconfig:"ATTENDEE_EMAILS" split_words:"true"`
	Attendees      string `envconfig:"ATTENDEES"`
}

func (c Config) Identity() Identity {
	return Identity{
		ProjectID:        c.ProjectID,
		MeetingID:        c.ID,
		MeetingTitle:     c.Title,
		MeetingStartedAt: c.StartedAt,
	}
}

// AttendeeList prefers ATTENDEE_EMAILS and falls back to ATTENDEES. Both
// accept ',' or ';' separators.
func (c Config) AttendeeList() []string {
	if emails := splitList(c.AttendeeEmails); len(emails) > 0 {
		return emails
	}
	return splitList(c.Attendees)
}

func splitList(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';'
	})
	out := make([]string, 0, len(fields))
	for _, field := range fields {
		if trimmed := strings.TrimSpace(field); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
