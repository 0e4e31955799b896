package prompt

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/meeting-voice-agent/agent/contract"
	"github.com/tanpawarit/meeting-voice-agent/agent/digest"
)

const portfolioHeader = "Portfolio summary:"

type Option func(*builder)

func WithLogger(logger zerolog.Logger) Option {
	return func(b *builder) {
		b.logger = logger
	}
}

type builder struct {
	logger zerolog.Logger
}

// BuildSystemPrompt combines the base instructions with a live portfolio
// digest and, when attendees are known, a participant block. Fetch failures
// are logged and degrade to placeholder text.
func BuildSystemPrompt(ctx context.Context, client contractx.ControlCenter, attendeeEmails []string, projectID string, opts ...Option) string {
	b := builder{logger: log.Logger}
	for _, opt := range opts {
		if opt != nil {
			opt(&b)
		}
	}

	summary := digest.ContextUnavailable
	if globalContext, err := client.GetGlobalContext(ctx); err != nil {
		b.logger.Warn().Err(err).Msg("failed to fetch global context")
	} else {
		summary = digest.SummarizeGlobalContext(globalContext)
	}

	var participants string
	if len(attendeeEmails) > 0 {
		resolved, err := client.ResolvePeopleByEmails(ctx, attendeeEmails, projectID)
		if err != nil {
			b.logger.Warn().Err(err).Msg("failed to resolve meeting participants")
		} else {
			participants = digest.SummarizeParticipants(resolved)
		}
	}

	// Base keeps its trailing newline so a blank line separates it from the
	// portfolio block.
	sections := []string{Base() + "\n", portfolioHeader, summary}
	if participants != "" {
		sections = append(sections, participants)
	}
	return strings.Join(sections, "\n") + "\n"
}
