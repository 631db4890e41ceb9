package command

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jarvispi/go-jarvis/internal/log"
	"github.com/jarvispi/go-jarvis/internal/metrics"
	"github.com/jarvispi/go-jarvis/pkg/inference"
)

// Mode says which path answered a command.
type Mode string

const (
	ModeTool    Mode = "tool"
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
	ModeCache   Mode = "cache"
)

// Decision records how a command was routed, for logs and the dashboard.
type Decision struct {
	Mode    Mode   `json:"mode"`
	Intent  Intent `json:"intent,omitempty"`
	Trigger string `json:"trigger,omitempty"`
}

// Response is the routed answer to one command.
type Response struct {
	CommandID string   `json:"command_id"`
	Text      string   `json:"text"`
	Decision  Decision `json:"decision"`
}

// Router is the hybrid command router. Known intents run locally through
// Tools; free conversation goes online when quota allows and falls back to
// the offline responder when it does not. The router never returns a
// backend error to the user; the offline responder is the floor.
type Router struct {
	tools   *Tools
	online  inference.Provider // nil when no API key is configured
	offline inference.Provider
	chain   inference.Provider // online then offline, nil without a backend
	quota   *inference.Ledger
	cache   *inference.ResponseCache

	forceOffline bool
	logger       *slog.Logger
}

// RouterConfig bundles the router dependencies.
type RouterConfig struct {
	Tools         *Tools
	Online        inference.Provider
	Offline       inference.Provider
	Quota         *inference.Ledger
	Cache         *inference.ResponseCache
	ForceOffline  bool
	OnlineTimeout time.Duration
}

// NewRouter builds a router. Offline defaults to the rule-based responder.
func NewRouter(cfg RouterConfig) *Router {
	offline := cfg.Offline
	if offline == nil {
		offline = inference.NewOffline()
	}
	timeout := cfg.OnlineTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	r := &Router{
		tools:        cfg.Tools,
		online:       cfg.Online,
		offline:      offline,
		quota:        cfg.Quota,
		cache:        cfg.Cache,
		forceOffline: cfg.ForceOffline,
		logger:       log.Component("router"),
	}
	if cfg.Online != nil {
		chain, err := inference.NewChainWithLogger(r.logger,
			timeoutProvider{Provider: cfg.Online, timeout: timeout}, offline)
		if err == nil {
			r.chain = chain
		}
	}
	return r
}

// timeoutProvider bounds one provider's Chat calls so a slow online backend
// does not hold up the chain's fallback to the offline responder.
type timeoutProvider struct {
	inference.Provider
	timeout time.Duration
}

func (p timeoutProvider) Chat(ctx context.Context, req *inference.ChatRequest) (*inference.ChatResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.Provider.Chat(ctx, req)
}

// SetForceOffline toggles the offline override at runtime.
func (r *Router) SetForceOffline(v bool) {
	r.forceOffline = v
}

// Process routes one command and returns the answer. The error return is
// reserved for tool execution failures (a servo that will not move); the
// conversation path always produces a response.
func (r *Router) Process(ctx context.Context, text string) (*Response, error) {
	id := uuid.NewString()
	normalized := Normalize(text)

	resp := &Response{CommandID: id}

	if intent, trigger, ok := MatchIntent(normalized); ok {
		resp.Decision = Decision{Mode: ModeTool, Intent: intent, Trigger: trigger}
		if intent == IntentSmallTalk {
			resp.Decision.Mode = ModeOffline
			resp.Text = r.offlineAnswer(ctx, normalized)
		} else {
			answer, err := r.tools.Run(ctx, intent, normalized)
			if err != nil {
				return nil, err
			}
			resp.Text = answer
		}
		metrics.CommandsRouted.WithLabelValues(string(resp.Decision.Mode)).Inc()
		r.logger.Info("command routed",
			"command_id", id,
			"mode", resp.Decision.Mode,
			"intent", resp.Decision.Intent,
			"trigger", resp.Decision.Trigger)
		return resp, nil
	}

	resp.Text, resp.Decision.Mode = r.converse(ctx, normalized)
	metrics.CommandsRouted.WithLabelValues(string(resp.Decision.Mode)).Inc()
	r.logger.Info("command routed", "command_id", id, "mode", resp.Decision.Mode)
	return resp, nil
}

// converse answers free conversation: cache, then the provider chain
// (online falling back to offline), with quota guarding the chain.
func (r *Router) converse(ctx context.Context, normalized string) (string, Mode) {
	if r.forceOffline || r.chain == nil {
		return r.offlineAnswer(ctx, normalized), ModeOffline
	}

	if r.cache != nil {
		if answer, ok := r.cache.Get(normalized); ok {
			return answer, ModeCache
		}
	}

	if r.quota != nil && !r.quota.CanUse() {
		r.logger.Warn("api quota exhausted, answering offline")
		return r.offlineAnswer(ctx, normalized), ModeOffline
	}

	chatResp, err := r.chain.Chat(ctx, &inference.ChatRequest{
		Messages: []inference.Message{inference.NewUserMessage(normalized)},
	})
	if err != nil {
		// Every provider in the chain failed; the canned floor still answers.
		metrics.BackendFallbacks.Inc()
		r.logger.Warn("provider chain failed, answering offline", "error", err)
		return r.offlineAnswer(ctx, normalized), ModeOffline
	}

	if chatResp.Provider != r.online.Name() {
		// The chain fell through to the offline responder.
		metrics.BackendFallbacks.Inc()
		return chatResp.Message.Content, ModeOffline
	}

	if r.quota != nil {
		if err := r.quota.Record(); err != nil {
			r.logger.Warn("quota ledger write failed", "error", err)
		}
	}
	if r.cache != nil {
		r.cache.Put(normalized, chatResp.Message.Content)
	}
	return chatResp.Message.Content, ModeOnline
}

// offlineAnswer queries the rule-based responder, which cannot fail.
func (r *Router) offlineAnswer(ctx context.Context, normalized string) string {
	resp, err := r.offline.Chat(ctx, &inference.ChatRequest{
		Messages: []inference.Message{inference.NewUserMessage(normalized)},
	})
	if err != nil {
		// Only reachable with a custom offline provider.
		return "Sorry, I am having trouble answering right now."
	}
	return resp.Message.Content
}
