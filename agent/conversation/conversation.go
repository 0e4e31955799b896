// Package conversation drives a tool-calling chat model over the meeting
// tool set, one user utterance at a time.
package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/meeting-voice-agent/agent/contract"
)

const defaultMaxTurns = 6

type Option func(*Conversation)

// WithMaxTurns bounds the model rounds spent on a single utterance.
func WithMaxTurns(n int) Option {
	return func(c *Conversation) {
		if n > 0 {
			c.maxTurns = n
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Conversation) {
		c.logger = logger
	}
}

// Conversation keeps the running message history for one session. Respond
// calls are serialized.
type Conversation struct {
	runner   compose.Runnable[[]*schema.Message, *schema.Message]
	executor contractx.ToolExecutor
	maxTurns int
	logger   zerolog.Logger

	mu      sync.Mutex
	history []*schema.Message
}

func New(
	ctx context.Context,
	chatModel einomodel.ToolCallingChatModel,
	systemPrompt string,
	infos []*schema.ToolInfo,
	executor contractx.ToolExecutor,
	opts ...Option,
) (*Conversation, error) {
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: system prompt is empty", contractx.ErrPromptMissing)
	}
	if chatModel == nil {
		return nil, fmt.Errorf("%w: chat model is required", contractx.ErrValidation)
	}
	if executor == nil {
		return nil, fmt.Errorf("%w: tool executor is required", contractx.ErrValidation)
	}

	toolModel, err := chatModel.WithTools(infos)
	if err != nil {
		return nil, fmt.Errorf("%w: bind meeting tools: %v", contractx.ErrModelInvoke, err)
	}
	runner, err := compileModelGraph(ctx, toolModel)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}

	c := &Conversation{
		runner:   runner,
		executor: executor,
		maxTurns: defaultMaxTurns,
		logger:   log.Logger,
		history:  []*schema.Message{schema.SystemMessage(systemPrompt)},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

func compileModelGraph(ctx context.Context, chatModel einomodel.BaseChatModel) (compose.Runnable[[]*schema.Message, *schema.Message], error) {
	graph := compose.NewGraph[[]*schema.Message, *schema.Message]()
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add conversation model node: %w", err)
	}
	if err := graph.AddEdge(compose.START, "model"); err != nil {
		return nil, fmt.Errorf("add conversation edge start->model: %w", err)
	}
	if err := graph.AddEdge("model", compose.END); err != nil {
		return nil, fmt.Errorf("add conversation edge model->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("conversation.model_graph"))
	if err != nil {
		return nil, fmt.Errorf("compile conversation graph: %w", err)
	}
	return runner, nil
}

// Respond feeds one utterance to the model, running requested tools until
// the model answers in plain text. On error the history is left as it was
// before the call.
func (c *Conversation) Respond(ctx context.Context, utterance string) (string, error) {
	utterance = strings.TrimSpace(utterance)
	if utterance == "" {
		return "", fmt.Errorf("%w: utterance is empty", contractx.ErrValidation)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	checkpoint := len(c.history)
	c.history = append(c.history, schema.UserMessage(utterance))

	for turn := 0; turn < c.maxTurns; turn++ {
		msg, err := c.runner.Invoke(ctx, append([]*schema.Message(nil), c.history...))
		if err != nil {
			c.history = c.history[:checkpoint]
			return "", fmt.Errorf("%w: conversation invoke: %v", contractx.ErrModelInvoke, err)
		}
		if msg == nil {
			c.history = c.history[:checkpoint]
			return "", fmt.Errorf("%w: empty model response", contractx.ErrSchemaViolation)
		}
		c.history = append(c.history, msg)

		if len(msg.ToolCalls) == 0 {
			return strings.TrimSpace(msg.Content), nil
		}

		replies, err := c.runTools(ctx, msg.ToolCalls)
		if err != nil {
			c.history = c.history[:checkpoint]
			return "", err
		}
		c.history = append(c.history, replies...)
	}

	c.history = c.history[:checkpoint]
	return "", fmt.Errorf("%w: no final reply after %d turns", contractx.ErrSchemaViolation, c.maxTurns)
}

func (c *Conversation) runTools(ctx context.Context, calls []schema.ToolCall) ([]*schema.Message, error) {
	replies := make([]*schema.Message, 0, len(calls))
	for _, call := range calls {
		name := strings.TrimSpace(call.Function.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: tool call name is empty", contractx.ErrSchemaViolation)
		}

		var result any
		params, err := decodeArguments(call.Function.Arguments)
		if err != nil {
			c.logger.Warn().Str("tool", name).Err(err).Msg("tool arguments were not valid JSON")
			result = contractx.ErrorResult("Tool arguments were not valid JSON.")
		} else {
			result = c.executor.Execute(ctx, name, params)
		}

		c.logger.Debug().
			Str("tool", name).
			Bool("error", contractx.IsErrorResult(result)).
			Msg("tool call finished")
		replies = append(replies, schema.ToolMessage(encodeResult(result), call.ID))
	}
	return replies, nil
}

// History returns a copy of the messages exchanged so far, system prompt
// first.
func (c *Conversation) History() []*schema.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*schema.Message(nil), c.history...)
}

func decodeArguments(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}, nil
	}
	params := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		return nil, err
	}
	return params, nil
}

func encodeResult(result any) string {
	encoded, err := json.Marshal(result)
	if err != nil {
		fallback, _ := json.Marshal(contractx.ErrorResult("Tool result could not be encoded."))
		return string(fallback)
	}
	return string(encoded)
}
