package assist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/studypal/assist-gateway/internal/provider"
	"github.com/studypal/assist-gateway/internal/telemetry"
	"github.com/studypal/assist-gateway/internal/types"
)

// Task kind labels, used in logs and metrics.
const (
	TaskAssist     = "assist"
	TaskThink      = "think"
	TaskChat       = "chat"
	TaskFlashcards = "flashcards"
)

// GenerationError is the only failure surfaced to callers: every provider
// plus extraction failed and no manual fallback exists for the task kind.
// The cause chain names the failing provider and kind but never a credential.
type GenerationError struct {
	Task  string
	Cause error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation failed: %v", e.Task, e.Cause)
}

func (e *GenerationError) Unwrap() error { return e.Cause }

// PromptSender is the provider chain as the orchestrator sees it.
type PromptSender interface {
	Send(ctx context.Context, prompt, prefer string) (text, providerName string, err error)
}

// Orchestrator is the single entry point for the four AI task kinds. Each
// call is a sequential chain — build prompt, walk providers one at a time,
// extract, fall back — with no state shared between calls. Total latency is
// bounded by the sum of per-provider timeouts, since providers are tried
// serially.
type Orchestrator struct {
	chain   PromptSender
	metrics *telemetry.Metrics
	// maxHistoryTurns bounds chat history rendered into the prompt; nil or
	// 0 means unbounded.
	maxHistoryTurns func() int
}

func NewOrchestrator(chain PromptSender, metrics *telemetry.Metrics, maxHistoryTurns func() int) *Orchestrator {
	return &Orchestrator{
		chain:           chain,
		metrics:         metrics,
		maxHistoryTurns: maxHistoryTurns,
	}
}

// Assist produces a one-shot assistant reply. No manual fallback exists for
// open-ended replies, so chain or extraction failure surfaces as a
// GenerationError.
func (o *Orchestrator) Assist(ctx context.Context, req types.AssistRequest) (types.Reply, error) {
	started := time.Now()
	prompt := BuildAssistPrompt(req.Message, req.Context)

	raw, providerName, err := o.chain.Send(ctx, prompt, PreferredProvider(ctx))
	if err != nil {
		o.recordTask(TaskAssist, providerName, "error", started)
		return types.Reply{}, &GenerationError{Task: TaskAssist, Cause: err}
	}

	text := strings.TrimSpace(raw)
	if text == "" {
		o.recordTask(TaskAssist, providerName, "error", started)
		return types.Reply{}, &GenerationError{Task: TaskAssist, Cause: errors.New("provider returned empty text")}
	}

	o.recordTask(TaskAssist, providerName, "ok", started)
	return types.Reply{Text: text}, nil
}

// Think produces the controller reply plus an optional validated action.
func (o *Orchestrator) Think(ctx context.Context, req types.ThinkRequest) (types.ThinkResult, error) {
	started := time.Now()
	prompt := BuildThinkPrompt(req.Input, req.AppState)

	raw, providerName, err := o.chain.Send(ctx, prompt, PreferredProvider(ctx))
	if err != nil {
		o.recordTask(TaskThink, providerName, "error", started)
		return types.ThinkResult{}, &GenerationError{Task: TaskThink, Cause: err}
	}

	payload, err := extractThink(raw)
	if err != nil {
		if o.metrics != nil {
			o.metrics.RecordExtractionFailure(TaskThink)
		}
		o.recordTask(TaskThink, providerName, "error", started)
		return types.ThinkResult{}, &GenerationError{Task: TaskThink, Cause: err}
	}

	action, recognized := types.DecodeAction(payload.Action)
	if !recognized {
		// Treated as "no action" rather than an error, so a malformed
		// control payload never breaks the user-visible reply. The
		// diagnostic keeps prompt regressions observable.
		slog.Warn("unrecognized action from model, ignoring",
			"task", TaskThink,
			"provider", providerName,
			"action", string(payload.Action),
		)
		if o.metrics != nil {
			o.metrics.RecordUnrecognizedAction()
		}
	}

	o.recordTask(TaskThink, providerName, "ok", started)
	return types.ThinkResult{Text: payload.Text, Action: action}, nil
}

// Chat produces a multi-turn chat reply from the caller-supplied history.
func (o *Orchestrator) Chat(ctx context.Context, req types.ChatRequest) (types.Reply, error) {
	started := time.Now()
	maxTurns := 0
	if o.maxHistoryTurns != nil {
		maxTurns = o.maxHistoryTurns()
	}
	prompt := BuildChatPrompt(req.Message, req.History, maxTurns)

	raw, providerName, err := o.chain.Send(ctx, prompt, PreferredProvider(ctx))
	if err != nil {
		o.recordTask(TaskChat, providerName, "error", started)
		return types.Reply{}, &GenerationError{Task: TaskChat, Cause: err}
	}

	text := strings.TrimSpace(raw)
	if text == "" {
		o.recordTask(TaskChat, providerName, "error", started)
		return types.Reply{}, &GenerationError{Task: TaskChat, Cause: errors.New("provider returned empty text")}
	}

	o.recordTask(TaskChat, providerName, "ok", started)
	return types.Reply{Text: text}, nil
}

// Flashcards produces a deck, falling back to the deterministic manual
// generator whenever providers are unconfigured, fail, or return nothing
// usable. It never returns an error for provider or parsing reasons.
func (o *Orchestrator) Flashcards(ctx context.Context, req types.FlashcardRequest) (types.Deck, error) {
	started := time.Now()
	prompt := BuildFlashcardPrompt(req.CourseName, req.ModuleTitle, req.Topics)

	raw, providerName, err := o.chain.Send(ctx, prompt, PreferredProvider(ctx))
	if err != nil {
		if !errors.Is(err, provider.ErrNoneConfigured) {
			slog.Warn("flashcard providers failed, using manual deck", "error", err)
		}
		return o.manualDeck(req, started), nil
	}

	payload, err := extractCards(raw)
	if err != nil {
		if o.metrics != nil {
			o.metrics.RecordExtractionFailure(TaskFlashcards)
		}
		slog.Warn("flashcard payload unrecoverable, using manual deck", "provider", providerName, "error", err)
		return o.manualDeck(req, started), nil
	}

	cards := make([]types.Flashcard, 0, len(payload.Cards))
	for _, c := range payload.Cards {
		if c.Front == "" && c.Back == "" {
			continue
		}
		cards = append(cards, types.Flashcard{Front: c.Front, Back: c.Back})
		if len(cards) == maxCards {
			break
		}
	}
	if len(cards) == 0 {
		return o.manualDeck(req, started), nil
	}

	o.recordTask(TaskFlashcards, providerName, "ok", started)
	return types.Deck{Cards: cards}, nil
}

func (o *Orchestrator) manualDeck(req types.FlashcardRequest, started time.Time) types.Deck {
	if o.metrics != nil {
		o.metrics.RecordFallback(TaskFlashcards)
	}
	o.recordTask(TaskFlashcards, "manual", "fallback", started)
	return ManualDeck(req)
}

func (o *Orchestrator) recordTask(task, providerName, status string, started time.Time) {
	if o.metrics == nil {
		return
	}
	if providerName == "" {
		providerName = "none"
	}
	o.metrics.RecordTask(task, providerName, status, float64(time.Since(started).Milliseconds()))
}

type contextKey string

const preferProviderKey contextKey = "prefer_provider"

// WithPreferredProvider returns a context carrying a per-call provider
// preference. The chain tries that provider first; priority order applies to
// the rest. This replaces any notion of a sticky "current provider" — callers
// wanting persistence own that state and pass it in per call.
func WithPreferredProvider(ctx context.Context, name string) context.Context {
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, preferProviderKey, name)
}

// PreferredProvider returns the per-call preference, or "" when none is set.
func PreferredProvider(ctx context.Context) string {
	name, _ := ctx.Value(preferProviderKey).(string)
	return name
}
