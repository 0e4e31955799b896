package contract

import "errors"

// Conversation-level failures. Tool failures never use these: they travel
// in-band as ErrorResult values.
var (
	ErrModelInvoke     = errors.New("chat model call failed")
	ErrSchemaViolation = errors.New("chat model reply is malformed")
	ErrPromptMissing   = errors.New("system prompt is missing")
	ErrValidation      = errors.New("invalid meeting agent input")
)
