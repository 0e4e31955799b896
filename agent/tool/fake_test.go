package tool

import (
	"context"
	"sync"

	"github.com/tanpawarit/meeting-voice-agent/pkg/controlcenter"
)

type fakeCall struct {
	Method      string
	ProjectID   string
	WorkOrderID string
	Data        map[string]any
	Request     controlcenter.CommunicationRequest
}

type fakeControlCenter struct {
	mu    sync.Mutex
	calls []fakeCall

	globalContext any
	projectStatus map[string]any
	created       any
	patched       any
	sent          any
	err           error
}

func (f *fakeControlCenter) record(call fakeCall) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeControlCenter) Calls() []fakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fakeCall(nil), f.calls...)
}

func (f *fakeControlCenter) GetGlobalContext(context.Context) (any, error) {
	f.record(fakeCall{Method: "GetGlobalContext"})
	return f.globalContext, f.err
}

func (f *fakeControlCenter) GetProjectStatus(_ context.Context, projectID string) (map[string]any, error) {
	f.record(fakeCall{Method: "GetProjectStatus", ProjectID: projectID})
	return f.projectStatus, f.err
}

func (f *fakeControlCenter) GetShiftContext(_ context.Context, projectID string) (any, error) {
	f.record(fakeCall{Method: "GetShiftContext", ProjectID: projectID})
	return map[string]any{"project_id": projectID}, f.err
}

func (f *fakeControlCenter) ResolvePeopleByEmails(_ context.Context, _ []string, projectID string) (map[string]any, error) {
	f.record(fakeCall{Method: "ResolvePeopleByEmails", ProjectID: projectID})
	return map[string]any{"participants": []any{}}, f.err
}

func (f *fakeControlCenter) SendCommunication(_ context.Context, req controlcenter.CommunicationRequest) (any, error) {
	f.record(fakeCall{Method: "SendCommunication", ProjectID: req.ProjectID, Request: req})
	if f.err != nil {
		return nil, f.err
	}
	if f.sent != nil {
		return f.sent, nil
	}
	return map[string]any{"id": "comm-1"}, nil
}

func (f *fakeControlCenter) CreateWorkOrder(_ context.Context, projectID string, data map[string]any) (any, error) {
	f.record(fakeCall{Method: "CreateWorkOrder", ProjectID: projectID, Data: data})
	return f.created, f.err
}

func (f *fakeControlCenter) PatchWorkOrder(_ context.Context, projectID, workOrderID string, data map[string]any) (any, error) {
	f.record(fakeCall{Method: "PatchWorkOrder", ProjectID: projectID, WorkOrderID: workOrderID, Data: data})
	return f.patched, f.err
}
