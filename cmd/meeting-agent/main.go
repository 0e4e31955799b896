package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/meeting-voice-agent/agent/conversation"
	"github.com/tanpawarit/meeting-voice-agent/agent/meeting"
	"github.com/tanpawarit/meeting-voice-agent/agent/pipeline"
	"github.com/tanpawarit/meeting-voice-agent/agent/prompt"
	toolx "github.com/tanpawarit/meeting-voice-agent/agent/tool"
	configx "github.com/tanpawarit/meeting-voice-agent/pkg/config"
	"github.com/tanpawarit/meeting-voice-agent/pkg/controlcenter"
	"github.com/tanpawarit/meeting-voice-agent/pkg/journal"
	logx "github.com/tanpawarit/meeting-voice-agent/pkg/logger"
	openrouterx "github.com/tanpawarit/meeting-voice-agent/pkg/openrouter"
	"github.com/tanpawarit/meeting-voice-agent/pkg/wstransport"
)

type VoiceAgentConfig struct {
	Host     string `envconfig:"HOST" default:"0.0.0.0"`
	Port     int    `envconfig:"PORT" default:"8765"`
	MaxTurns int    `envconfig:"MAX_TURNS" split_words:"true" default:"6"`
}

func (c VoiceAgentConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func main() {
	logCfg := configx.MustNew[logx.Config]("LOG")
	logger := logx.Init(*logCfg)

	pccCfg := configx.MustNew[controlcenter.Config]("PCC")
	llmCfg := configx.MustNew[openrouterx.Config]("OPENROUTER")
	meetingCfg := configx.MustNew[meeting.Config]("MEETING")
	agentCfg := configx.MustNew[VoiceAgentConfig]("VOICE_AGENT")
	journalCfg := configx.MustNew[journal.Config]("JOURNAL")

	logger.Info().Msg("meeting voice agent starting")
	logger.Info().Str("base_url", pccCfg.BaseURL).Msg("control center")
	logger.Info().Str("addr", agentCfg.Addr()).Msg("voice agent websocket")
	if meetingCfg.ID != "" || meetingCfg.ProjectID != "" {
		logger.Info().
			Str("project_id", meetingCfg.ProjectID).
			Str("meeting_id", meetingCfg.ID).
			Msg("meeting context")
	}

	if !llmCfg.Enabled() {
		logger.Info().Msg("missing OPENROUTER_API_KEY; language model not started")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, pccCfg, llmCfg, meetingCfg, agentCfg, journalCfg); err != nil {
		log.Fatal().Err(err).Msg("meeting voice agent stopped")
	}
}

func run(
	ctx context.Context,
	pccCfg *controlcenter.Config,
	llmCfg *openrouterx.Config,
	meetingCfg *meeting.Config,
	agentCfg *VoiceAgentConfig,
	journalCfg *journal.Config,
) error {
	client, err := controlcenter.New(*pccCfg)
	if err != nil {
		return err
	}
	defer client.Close()

	auditLog, err := journal.Open(ctx, *journalCfg)
	if err != nil {
		log.Warn().Err(err).Msg("tool-call journal unavailable; continuing without it")
		auditLog = journal.Noop{}
	}
	defer auditLog.Close()

	attendees := meetingCfg.AttendeeList()
	systemPrompt := prompt.BuildSystemPrompt(ctx, client, attendees, meetingCfg.ProjectID)

	registry := toolx.NewRegistry(client, toolx.WithDefaultAttendees(attendees), toolx.WithLogger(log.Logger))
	tracker := meeting.NewTracker(meetingCfg.Identity())
	callbacks := meeting.Instrument(tracker, registry.Callbacks(), meeting.JournalObserver(auditLog))

	var summary pipeline.SummarySender
	if send, ok := callbacks[toolx.ToolSendMeetingSummary]; ok {
		summary = meeting.NewDispatcher(tracker, send)
	}

	chatModel, err := llmCfg.New(ctx)
	if err != nil {
		return err
	}
	conv, err := conversation.New(
		ctx,
		chatModel,
		systemPrompt,
		toolx.BuildToolInfos(),
		callbacks.WithLogger(log.Logger),
		conversation.WithMaxTurns(agentCfg.MaxTurns),
	)
	if err != nil {
		return err
	}

	server := wstransport.New(agentCfg.Addr())
	transport := pipeline.TransportFunc(func(ctx context.Context, h pipeline.Handler) error {
		return server.Serve(ctx, h)
	})

	log.Info().Int("tools", len(callbacks)).Msg("meeting voice agent ready")
	return pipeline.NewRunner(conv, summary).Run(ctx, transport)
}
