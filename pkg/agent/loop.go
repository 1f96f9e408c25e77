// corebot - a personal AI agent runtime
//
// Copyright (c) 2026 corebot contributors
// License: MIT

package agent

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/localloom/corebot/pkg/bus"
	"github.com/localloom/corebot/pkg/media"
	"github.com/localloom/corebot/pkg/memory"
	"github.com/localloom/corebot/pkg/message"
	"github.com/localloom/corebot/pkg/metrics"
	"github.com/localloom/corebot/pkg/logger"
	"github.com/localloom/corebot/pkg/providers"
	"github.com/localloom/corebot/pkg/session"
	"github.com/localloom/corebot/pkg/tools"
)

// thinkTagRe strips <think>...</think> reasoning blocks some models emit.
var thinkTagRe = regexp.MustCompile(`(?s)<think>.*?</think>\s*`)

func stripThinkingTags(s string) string {
	return strings.TrimSpace(thinkTagRe.ReplaceAllString(s, ""))
}

// processOptions customizes a single turn through runAgentLoop.
type processOptions struct {
	Channel      string
	ChatID       string
	NoHistory    bool
	SendResponse bool
}

// Loop is the thin orchestrator tying together the bus, session store,
// context builder, tool registry, and LLM provider: build messages, run
// tool-calling iterations until the model stops calling tools, persist the
// result, optionally publish it outbound.
type Loop struct {
	bus            *bus.Bus
	provider       providers.LLMProvider
	model          string
	maxIterations  int
	contextWindow  int
	sessions       *session.Manager
	contextBuilder *ContextBuilder
	tools          *tools.Registry
	tracker        *metrics.Tracker

	vectorStore *memory.VectorStore
	extractor   *memory.KnowledgeExtractor

	running      atomic.Bool
	activeMu     sync.Mutex
	activeSesion string
	pendingMsgs  chan message.Inbound
	interruptCh  chan message.Inbound
}

// Config bundles the dependencies Loop needs at construction time.
type Config struct {
	Bus            *bus.Bus
	Provider       providers.LLMProvider
	Model          string
	MaxIterations  int
	ContextWindow  int
	Workspace      string
	Sessions       *session.Manager
	ContextBuilder *ContextBuilder
	Tools          *tools.Registry
	Tracker        *metrics.Tracker
	VectorStore    *memory.VectorStore
	Extractor      *memory.KnowledgeExtractor
}

// New builds a Loop from cfg, applying sane defaults for unset fields.
func New(cfg Config) *Loop {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 25
	}
	if cfg.ContextWindow <= 0 {
		cfg.ContextWindow = 50
	}
	return &Loop{
		bus:            cfg.Bus,
		provider:       cfg.Provider,
		model:          cfg.Model,
		maxIterations:  cfg.MaxIterations,
		contextWindow:  cfg.ContextWindow,
		sessions:       cfg.Sessions,
		contextBuilder: cfg.ContextBuilder,
		tools:          cfg.Tools,
		tracker:        cfg.Tracker,
		vectorStore:    cfg.VectorStore,
		extractor:      cfg.Extractor,
		pendingMsgs:    make(chan message.Inbound, 64),
		interruptCh:    make(chan message.Inbound, 16),
	}
}

// SetModel swaps the active model.
func (l *Loop) SetModel(model string) { l.model = model }

// GetModel returns the active model.
func (l *Loop) GetModel() string { return l.model }

// Run consumes inbound messages from the bus until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) {
	l.running.Store(true)
	defer l.running.Store(false)

	go l.routeMessages(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-l.pendingMsgs:
			l.processMessage(ctx, msg)
		}
	}
}

// Stop clears the loop's running flag. It does not end Run or stop it from
// taking new messages; Run exits only when its ctx is cancelled.
func (l *Loop) Stop() {
	l.running.Store(false)
}

// routeMessages pulls from the bus and routes to either the interrupt
// channel (when the message targets the currently-active session) or the
// main pending queue.
func (l *Loop) routeMessages(ctx context.Context) {
	for {
		msg, ok := l.bus.ConsumeInbound(ctx)
		if !ok {
			return
		}

		l.activeMu.Lock()
		isActive := l.activeSesion != "" && l.activeSesion == msg.SessionKey()
		l.activeMu.Unlock()

		if isActive {
			select {
			case l.interruptCh <- msg:
			default:
				logger.WarnCF("agent", "interrupt channel full, dropping message", map[string]any{"session": msg.SessionKey()})
			}
			continue
		}

		select {
		case l.pendingMsgs <- msg:
		default:
			logger.WarnCF("agent", "pending queue full, dropping message", map[string]any{"session": msg.SessionKey()})
		}
	}
}

func (l *Loop) drainInterrupts() []message.Inbound {
	var drained []message.Inbound
	for {
		select {
		case m := <-l.interruptCh:
			drained = append(drained, m)
		default:
			return drained
		}
	}
}

func (l *Loop) processMessage(ctx context.Context, msg message.Inbound) {
	opts := processOptions{Channel: msg.Channel, ChatID: msg.ChatID, SendResponse: true}
	if src, _ := msg.Metadata["source"].(string); src == "heartbeat" {
		opts.NoHistory = true
	}
	l.runAgentLoop(ctx, msg, opts)
}

// ProcessDirect runs a message through the loop without requiring it to
// have gone through the bus, for cron- and heartbeat-sourced injection.
func (l *Loop) ProcessDirect(ctx context.Context, msg message.Inbound, sendResponse bool) {
	opts := processOptions{Channel: msg.Channel, ChatID: msg.ChatID, SendResponse: sendResponse}
	l.runAgentLoop(ctx, msg, opts)
}

// runAgentLoop implements the documented per-turn flow: build messages,
// save the user turn, iterate tool calls to a final answer, persist and
// optionally enrich memory, optionally publish the response outbound.
func (l *Loop) runAgentLoop(ctx context.Context, msg message.Inbound, opts processOptions) {
	sessionKey := msg.SessionKey()

	l.activeMu.Lock()
	l.activeSesion = sessionKey
	l.activeMu.Unlock()
	defer func() {
		l.activeMu.Lock()
		l.activeSesion = ""
		l.activeMu.Unlock()
	}()

	sess := l.sessions.GetOrCreate(sessionKey)

	var history []providers.Message
	if !opts.NoHistory {
		for _, h := range sess.GetHistory(l.contextWindow) {
			history = append(history, providers.Message{Role: h.Role, Content: h.Content, ToolCallID: h.ToolCallID})
		}
	}

	var mediaParts []media.ContentPart
	for _, path := range msg.Media {
		if part, err := media.ProcessFile(path); err == nil {
			mediaParts = append(mediaParts, *part)
		}
	}

	messages := l.contextBuilder.BuildMessages(history, sess.Summary(), msg.Content, mediaParts, opts.Channel, opts.ChatID)

	if !opts.NoHistory {
		sess.AddMessage("user", msg.Content)
	}

	if mt, ok := l.tools.Get("message"); ok {
		if ca, ok := mt.(tools.ContextAwareTool); ok {
			ca.SetContext(opts.Channel, opts.ChatID)
		}
	}

	finalContent, _, err := l.runLLMIteration(ctx, messages, sess, opts)
	if err != nil {
		logger.ErrorCF("agent", "llm iteration failed", map[string]any{"error": err.Error(), "session": sessionKey})
		finalContent = "Sorry, something went wrong processing that."
	}
	if finalContent == "" {
		finalContent = "(no response)"
	}

	if !opts.NoHistory {
		sess.AddMessage("assistant", finalContent)
	}
	if err := l.sessions.Save(sess); err != nil {
		logger.ErrorCF("agent", "failed to save session", map[string]any{"error": err.Error(), "session": sessionKey})
	}

	if l.vectorStore != nil && !opts.NoHistory {
		go l.vectorStore.IndexConversation(context.Background(), sessionKey, opts.Channel, opts.ChatID, msg.Content, finalContent)
	}
	if l.extractor != nil && !opts.NoHistory {
		go l.extractor.ExtractAndConsolidate(context.Background(), msg.Content, finalContent, sessionKey, opts.Channel, memory.KnowledgeIndexOpts{})
	}

	sentByTool := false
	if mt, ok := l.tools.Get("message"); ok {
		if m, ok := mt.(*tools.MessageTool); ok {
			sentByTool = m.HasSentInRound()
		}
	}

	if opts.SendResponse && !sentByTool {
		out := message.Outbound{Channel: opts.Channel, ChatID: opts.ChatID, Content: finalContent}
		if err := l.bus.PublishOutbound(ctx, out); err != nil {
			logger.ErrorCF("agent", "failed to publish outbound message", map[string]any{"error": err.Error()})
		}
	}

	logger.InfoCF("agent", "turn complete", map[string]any{"session": sessionKey, "response_len": len(finalContent)})
}

// runLLMIteration loops calling the provider and executing any requested
// tools until the model answers with no further tool calls or
// maxIterations is reached.
func (l *Loop) runLLMIteration(ctx context.Context, messages []providers.Message, sess *session.Session, opts processOptions) (string, int, error) {
	providerTools := l.tools.ToProviderDefs()
	var providerDefs []providers.ToolDefinition
	for _, d := range providerTools {
		providerDefs = append(providerDefs, providers.ToolDefinition{
			Type: d.Type,
			Function: providers.FunctionSchema{
				Name:        d.Function.Name,
				Description: d.Function.Description,
				Parameters:  d.Function.Parameters,
			},
		})
	}

	iteration := 0
	for iteration < l.maxIterations {
		iteration++
		l.drainInterrupts()

		resp, err := l.provider.Chat(ctx, messages, providerDefs, l.model, nil)
		if err != nil {
			return "", iteration, fmt.Errorf("agent: provider chat: %w", err)
		}

		content := stripThinkingTags(resp.Content)

		if l.tracker != nil && resp.Usage != nil {
			l.tracker.Record(metrics.TokenEvent{
				SessionKey:   sess.Key,
				Channel:      opts.Channel,
				Model:        l.model,
				InputTokens:  resp.Usage.PromptTokens,
				OutputTokens: resp.Usage.CompletionTokens,
				Iteration:    iteration,
			})
		}

		if len(resp.ToolCalls) == 0 {
			return content, iteration, nil
		}

		messages = append(messages, providers.Message{Role: "assistant", Content: content, ToolCalls: resp.ToolCalls})
		sess.AddFullMessage(session.Turn{Role: "assistant", Content: content, ToolCalls: toSessionToolCalls(resp.ToolCalls)})

		for _, tc := range resp.ToolCalls {
			logger.InfoCF("agent", "executing tool", map[string]any{"tool": tc.Name, "iteration": iteration})

			result := l.tools.Execute(ctx, tc.Name, tc.Arguments)

			forLLM := result.ForLLM
			if result.IsError && forLLM == "" {
				forLLM = "Error: tool execution failed"
			}

			messages = append(messages, providers.Message{Role: "tool", Content: forLLM, ToolCallID: tc.ID})
			sess.AddFullMessage(session.Turn{Role: "tool", Content: forLLM, ToolCallID: tc.ID, Name: tc.Name})
		}
	}

	return "", iteration, fmt.Errorf("agent: exceeded max iterations (%d)", l.maxIterations)
}

func toSessionToolCalls(calls []providers.ToolCall) []session.ToolCallSpec {
	out := make([]session.ToolCallSpec, 0, len(calls))
	for _, c := range calls {
		out = append(out, session.ToolCallSpec{ID: c.ID, Name: c.Name})
	}
	return out
}
