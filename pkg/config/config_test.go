package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/tanpawarit/meeting-voice-agent/agent/meeting"
	"github.com/tanpawarit/meeting-voice-agent/pkg/controlcenter"
)

func TestNewMeetingConfigFromEnvironment(t *testing.T) {
	t.Setenv("MEETING_PROJECT_ID", "alpha")
	t.Setenv("MEETING_ID", "m-1")
	t.Setenv("MEETING_TITLE", "Weekly sync")
	t.Setenv("MEETING_ATTENDEE_EMAILS", "")
	t.Setenv("MEETING_ATTENDEES", "a@example.com; b@example.com, ,c@example.com")

	conf, err := New[meeting.Config]("MEETING")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	identity := conf.Identity()
	if identity.ProjectID != "alpha" || identity.MeetingID != "m-1" || identity.MeetingTitle != "Weekly sync" {
		t.Fatalf("Identity() = %+v", identity)
	}
	want := []string{"a@example.com", "b@example.com", "c@example.com"}
	if got := conf.AttendeeList(); !reflect.DeepEqual(got, want) {
		t.Fatalf("AttendeeList() = %v, want %v", got, want)
	}

	t.Setenv("MEETING_ATTENDEE_EMAILS", "lead@example.com")
	conf, err = New[meeting.Config]("MEETING")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := conf.AttendeeList(); !reflect.DeepEqual(got, []string{"lead@example.com"}) {
		t.Fatalf("AttendeeList() = %v, want ATTENDEE_EMAILS to win", got)
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	unsetEnv(t, "PCC_BASE_URL", "PCC_TIMEOUT")

	conf, err := New[controlcenter.Config]("PCC")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if conf.BaseURL != "http://localhost:4010" || conf.Timeout != 10*time.Second {
		t.Fatalf("config = %+v", conf)
	}
}

func TestExportEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("PCC_BASE_URL=http://pcc.internal:9000\n"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	t.Setenv("PCC_BASE_URL", "")

	if err := exportEnvironment(path); err != nil {
		t.Fatalf("exportEnvironment() error = %v", err)
	}
	if got := os.Getenv("PCC_BASE_URL"); got != "http://pcc.internal:9000" {
		t.Fatalf("PCC_BASE_URL = %q", got)
	}
}

func TestExportEnvironmentIfExistsIgnoresMissingFile(t *testing.T) {
	if err := exportEnvironmentIfExists(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("exportEnvironmentIfExists() error = %v", err)
	}
}

// unsetEnv removes keys for the duration of the test. envconfig only applies
// defaults to variables that are not set at all.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("Unsetenv(%s) error = %v", key, err)
		}
	}
}

func TestEnvFileFromArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		args []string
		want string
	}{
		{args: nil, want: ""},
		{args: []string{"-env", "meeting.env"}, want: "meeting.env"},
		{args: []string{"--env=prod.env"}, want: "prod.env"},
		{args: []string{"-v", "-env= staging.env "}, want: "staging.env"},
		{args: []string{"-environment", "x.env"}, want: ""},
		{args: []string{"--", "-env", "ignored.env"}, want: ""},
		{args: []string{"-env"}, want: ""},
	}

	for _, tc := range tests {
		if got := envFileFromArgs(tc.args); got != tc.want {
			t.Fatalf("envFileFromArgs(%q) = %q, want %q", tc.args, got, tc.want)
		}
	}
}

func TestNewReadsEnvFileVariable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meeting.env")
	if err := os.WriteFile(path, []byte("MEETING_PROJECT_ID=beta\nMEETING_ID=m-7\n"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	t.Setenv(envFileVar, path)
	unsetEnv(t, "MEETING_PROJECT_ID", "MEETING_ID")

	conf, err := New[meeting.Config]("MEETING")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if conf.ProjectID != "beta" || conf.ID != "m-7" {
		t.Fatalf("config = %+v", conf)
	}
}
