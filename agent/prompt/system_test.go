package prompt

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/tanpawarit/meeting-voice-agent/pkg/controlcenter"
)

type fakeControlCenter struct {
	globalContext any
	globalErr     error
	people        map[string]any
	peopleErr     error
	peopleCalls   int
	lastProjectID string
}

func (f *fakeControlCenter) GetGlobalContext(context.Context) (any, error) {
	return f.globalContext, f.globalErr
}

func (f *fakeControlCenter) GetProjectStatus(context.Context, string) (map[string]any, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeControlCenter) GetShiftContext(context.Context, string) (any, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeControlCenter) ResolvePeopleByEmails(_ context.Context, _ []string, projectID string) (map[string]any, error) {
	f.peopleCalls++
	f.lastProjectID = projectID
	return f.people, f.peopleErr
}

func (f *fakeControlCenter) SendCommunication(context.Context, controlcenter.CommunicationRequest) (any, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeControlCenter) CreateWorkOrder(context.Context, string, map[string]any) (any, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeControlCenter) PatchWorkOrder(context.Context, string, string, map[string]any) (any, error) {
	return nil, errors.New("not implemented")
}

func TestBaseIsEmbedded(t *testing.T) {
	t.Parallel()

	base := Base()
	if !strings.HasPrefix(base, "You are the project control center meeting voice agent.") {
		t.Fatalf("unexpected base prompt: %q", base)
	}
	if !strings.Contains(base, "send_meeting_summary") {
		t.Fatal("base prompt must mention send_meeting_summary")
	}
}

func TestBuildSystemPromptWithParticipants(t *testing.T) {
	t.Parallel()

	client := &fakeControlCenter{
		globalContext: map[string]any{"projects": []any{}},
		people: map[string]any{"participants": []any{
			map[string]any{"email": "ana@acme.io", "person": map[string]any{"name": "Ana"}},
		}},
	}

	got := BuildSystemPrompt(context.Background(), client, []string{"ana@acme.io"}, "p1", WithLogger(zerolog.Nop()))
	want := Base() + "\n\nPortfolio summary:\nNo projects found in the portfolio.\nParticipants:\n- ana@acme.io: Ana\n"
	if got != want {
		t.Fatalf("BuildSystemPrompt() =\n%q\nwant\n%q", got, want)
	}
	if client.lastProjectID != "p1" {
		t.Fatalf("project id = %q", client.lastProjectID)
	}
}

func TestBuildSystemPromptDegradesOnErrors(t *testing.T) {
	t.Parallel()

	client := &fakeControlCenter{
		globalErr: errors.New("control center request timed out."),
		peopleErr: errors.New("control center request failed with status 500."),
	}

	got := BuildSystemPrompt(context.Background(), client, []string{"ana@acme.io"}, "", WithLogger(zerolog.Nop()))
	want := Base() + "\n\nPortfolio summary:\nGlobal context is unavailable.\n"
	if got != want {
		t.Fatalf("BuildSystemPrompt() =\n%q\nwant\n%q", got, want)
	}
}

func TestBuildSystemPromptSkipsResolveWithoutAttendees(t *testing.T) {
	t.Parallel()

	client := &fakeControlCenter{globalContext: map[string]any{}}
	BuildSystemPrompt(context.Background(), client, nil, "p1", WithLogger(zerolog.Nop()))
	if client.peopleCalls != 0 {
		t.Fatalf("ResolvePeopleByEmails calls = %d, want 0", client.peopleCalls)
	}
}
