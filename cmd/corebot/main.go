// Command corebot boots the agent runtime: load config, wire the bus,
// session store, memory store, skills loader, tool registry, LLM
// provider(s), and the agent loop, then run the cron and heartbeat
// services alongside it until interrupted.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/localloom/corebot/pkg/agent"
	"github.com/localloom/corebot/pkg/bus"
	"github.com/localloom/corebot/pkg/config"
	"github.com/localloom/corebot/pkg/cron"
	"github.com/localloom/corebot/pkg/heartbeat"
	"github.com/localloom/corebot/pkg/logger"
	"github.com/localloom/corebot/pkg/mcp"
	"github.com/localloom/corebot/pkg/memory"
	"github.com/localloom/corebot/pkg/message"
	"github.com/localloom/corebot/pkg/metrics"
	"github.com/localloom/corebot/pkg/providers"
	"github.com/localloom/corebot/pkg/session"
	"github.com/localloom/corebot/pkg/tools"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "corebot: %v\n", err)
		os.Exit(1)
	}

	logger.SetLevel(parseLevel(cfg.LogLevel))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	provider, err := buildProvider(cfg)
	if err != nil {
		logger.ErrorCF("main", "failed to build LLM provider", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	sessions := session.NewManager(cfg.Workspace)
	tracker := metrics.NewTracker(cfg.Workspace)

	if fp, ok := provider.(*providers.FallbackProvider); ok {
		fp.SetOnFallback(func(primaryModel, fallbackModel string, cause error) {
			logger.WarnCF("main", "provider fallback activated", map[string]any{
				"primary_model":  primaryModel,
				"fallback_model": fallbackModel,
				"error":          cause.Error(),
			})
			tracker.Record(metrics.TokenEvent{Model: fallbackModel, Fallback: true})
		})
	}

	registry := tools.NewRegistry()
	registry.Register(tools.NewReadFileTool())
	registry.Register(tools.NewWriteFileTool())
	registry.Register(tools.NewAppendFileTool())
	registry.Register(tools.NewEditFileTool())
	registry.Register(tools.NewListDirTool())
	registry.Register(tools.NewThinkTool())

	msgTool := tools.NewMessageTool()
	registry.Register(msgTool)

	if cfg.Tools.AllowExec {
		registry.Register(tools.NewExecTool(120))
	}

	relationStore := memory.NewRelationStore(cfg.Workspace)
	registry.Register(tools.NewRememberRelationTool(relationStore))
	registry.Register(tools.NewQueryRelationsTool(relationStore))

	cronStore, err := cron.NewStore(cfg.Workspace, cfg.Cron.JobsFile)
	if err != nil {
		logger.ErrorCF("main", "failed to open cron store", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	registry.Register(tools.NewScheduleJobTool(cronStore))
	registry.Register(tools.NewCancelJobTool(cronStore))
	registry.Register(tools.NewListJobsTool(cronStore))

	contextBuilder := agent.NewContextBuilder(cfg.Workspace)
	contextBuilder.SetToolsRegistry(registry)

	var vectorStore *memory.VectorStore
	var extractor *memory.KnowledgeExtractor
	if cfg.Tools.Memory.SemanticSearch {
		vectorStore, err = memory.NewVectorStore(cfg.Workspace, nil)
		if err != nil {
			logger.WarnCF("main", "semantic memory disabled: failed to open vector store", map[string]any{"error": err.Error()})
		} else {
			registry.Register(tools.NewMemorySearchTool(vectorStore))
			extractor = memory.NewKnowledgeExtractor(provider, cfg.Providers.AnthropicModel, vectorStore)
		}
	}

	mcpManager := mcp.NewManager()
	if len(cfg.MCP.ServerURIs) > 0 {
		mcpManager.StartAll(ctx, cfg.MCP.ServerURIs)
		n := mcp.RegisterAll(mcpManager, registry)
		logger.InfoCF("main", "registered MCP tools", map[string]any{"count": n})
	}
	defer mcpManager.StopAll()

	messageBus := bus.New(0, 0)

	loop := agent.New(agent.Config{
		Bus:            messageBus,
		Provider:       provider,
		Model:          cfg.Providers.AnthropicModel,
		MaxIterations:  cfg.MaxIterations,
		ContextWindow:  cfg.ContextWindow,
		Workspace:      cfg.Workspace,
		Sessions:       sessions,
		ContextBuilder: contextBuilder,
		Tools:          registry,
		Tracker:        tracker,
		VectorStore:    vectorStore,
		Extractor:      extractor,
	})

	msgTool.SetSendCallback(func(channel, chatID, content string, metadata map[string]string) error {
		out := message.Outbound{Channel: channel, ChatID: chatID, Content: content}
		if metadata != nil {
			out.Metadata = make(map[string]any, len(metadata))
			for k, v := range metadata {
				out.Metadata[k] = v
			}
		}
		return messageBus.PublishOutbound(ctx, out)
	})

	cronService := cron.NewService(cronStore, 30*time.Second, func(ctx context.Context, job cron.Job, msg message.Inbound) {
		loop.ProcessDirect(ctx, msg, true)
	})

	heartbeatService := heartbeat.NewService("system", "self", time.Duration(cfg.Heartbeat.IntervalSeconds)*time.Second, func(ctx context.Context, msg message.Inbound) {
		loop.ProcessDirect(ctx, msg, true)
	})

	go loop.Run(ctx)
	go cronService.Start(ctx)
	if heartbeatService.Enabled() {
		go heartbeatService.Start(ctx)
	}
	go drainOutbound(ctx, messageBus)

	logger.InfoCF("main", "corebot runtime started", map[string]any{"workspace": cfg.Workspace, "model": cfg.Providers.AnthropicModel})

	<-ctx.Done()
	logger.InfoCF("main", "shutting down", nil)
	cronService.Stop()
	heartbeatService.Stop()
	messageBus.Stop()
}

// drainOutbound logs outbound messages that no channel adapter consumed.
// A real deployment wires channel-adapter processes to ConsumeOutbound
// instead; this keeps the queue from filling when none are attached.
func drainOutbound(ctx context.Context, b *bus.Bus) {
	for {
		out, ok := b.ConsumeOutbound(ctx)
		if !ok {
			return
		}
		logger.InfoCF("main", "outbound message", map[string]any{"channel": out.Channel, "chat_id": out.ChatID, "len": len(out.Content)})
	}
}

func buildProvider(cfg *config.Config) (providers.LLMProvider, error) {
	var primary providers.LLMProvider
	if cfg.Providers.AnthropicAPIKey != "" {
		primary = providers.NewClaudeProvider(cfg.Providers.AnthropicAPIKey)
	} else if cfg.Providers.OpenAICompatBaseURL != "" {
		primary = providers.NewOpenAICompatProvider(cfg.Providers.OpenAICompatBaseURL, cfg.Providers.OpenAICompatAPIKey)
	} else {
		return nil, fmt.Errorf("no LLM provider configured: set ANTHROPIC_API_KEY or OPENAI_COMPAT_BASE_URL")
	}

	if cfg.Providers.FallbackEnabled && cfg.Providers.OpenAICompatBaseURL != "" && cfg.Providers.AnthropicAPIKey != "" {
		fallback := providers.NewOpenAICompatProvider(cfg.Providers.OpenAICompatBaseURL, cfg.Providers.OpenAICompatAPIKey)
		return providers.NewFallbackProvider(primary, fallback, cfg.Providers.AnthropicModel, cfg.Providers.OpenAICompatModel), nil
	}

	return primary, nil
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
