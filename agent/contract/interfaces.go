package contract

import (
	"context"

	"github.com/tanpawarit/meeting-voice-agent/pkg/controlcenter"
)

// ControlCenter is the subset of the control-center client the agent
// depends on. *controlcenter.Client satisfies it.
type ControlCenter interface {
	GetGlobalContext(ctx context.Context) (any, error)
	GetProjectStatus(ctx context.Context, projectID string) (map[string]any, error)
	GetShiftContext(ctx context.Context, projectID string) (any, error)
	ResolvePeopleByEmails(ctx context.Context, emails []string, projectID string) (map[string]any, error)
	SendCommunication(ctx context.Context, req controlcenter.CommunicationRequest) (any, error)
	CreateWorkOrder(ctx context.Context, projectID string, data map[string]any) (any, error)
	PatchWorkOrder(ctx context.Context, projectID, workOrderID string, data map[string]any) (any, error)
}

// ToolExecutor runs one named tool and always returns a JSON-compatible
// result; failures are reported in-band as ErrorResult values.
type ToolExecutor interface {
	Execute(ctx context.Context, name string, params map[string]any) any
}

var _ ControlCenter = (*controlcenter.Client)(nil)
