package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/studypal/assist-gateway/internal/assist"
	"github.com/studypal/assist-gateway/internal/auth"
	"github.com/studypal/assist-gateway/internal/httputil"
	"github.com/studypal/assist-gateway/internal/types"
)

const headerPreferProvider = "X-Prefer-Provider"

// Tasker is the orchestrator as the HTTP layer sees it.
type Tasker interface {
	Assist(ctx context.Context, req types.AssistRequest) (types.Reply, error)
	Think(ctx context.Context, req types.ThinkRequest) (types.ThinkResult, error)
	Chat(ctx context.Context, req types.ChatRequest) (types.Reply, error)
	Flashcards(ctx context.Context, req types.FlashcardRequest) (types.Deck, error)
}

// Handler holds dependencies for the assist HTTP handlers.
type Handler struct {
	orchestrator Tasker
}

func NewHandler(orchestrator Tasker) *Handler {
	return &Handler{orchestrator: orchestrator}
}

// Assist handles POST /v1/assist
func (h *Handler) Assist(w http.ResponseWriter, r *http.Request) {
	reqID := w.Header().Get("X-Request-ID")
	receivedAt := time.Now()

	var req types.AssistRequest
	if !decodeBody(w, r, reqID, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		httputil.WriteBadRequestError(w, reqID, "message is required")
		return
	}

	reply, err := h.orchestrator.Assist(taskContext(r), req)
	if err != nil {
		h.writeTaskError(w, r, reqID, "assist", err)
		return
	}

	logCompleted(r, reqID, "assist", receivedAt)
	writeJSON(w, reply)
}

// Think handles POST /v1/think
func (h *Handler) Think(w http.ResponseWriter, r *http.Request) {
	reqID := w.Header().Get("X-Request-ID")
	receivedAt := time.Now()

	var req types.ThinkRequest
	if !decodeBody(w, r, reqID, &req) {
		return
	}
	if strings.TrimSpace(req.Input) == "" {
		httputil.WriteBadRequestError(w, reqID, "input is required")
		return
	}

	result, err := h.orchestrator.Think(taskContext(r), req)
	if err != nil {
		h.writeTaskError(w, r, reqID, "think", err)
		return
	}

	logCompleted(r, reqID, "think", receivedAt)
	writeJSON(w, result)
}

// Chat handles POST /v1/chat
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	reqID := w.Header().Get("X-Request-ID")
	receivedAt := time.Now()

	var req types.ChatRequest
	if !decodeBody(w, r, reqID, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		httputil.WriteBadRequestError(w, reqID, "message is required")
		return
	}

	reply, err := h.orchestrator.Chat(taskContext(r), req)
	if err != nil {
		h.writeTaskError(w, r, reqID, "chat", err)
		return
	}

	logCompleted(r, reqID, "chat", receivedAt)
	writeJSON(w, reply)
}

// Flashcards handles POST /v1/flashcards
func (h *Handler) Flashcards(w http.ResponseWriter, r *http.Request) {
	reqID := w.Header().Get("X-Request-ID")
	receivedAt := time.Now()

	var req types.FlashcardRequest
	if !decodeBody(w, r, reqID, &req) {
		return
	}

	deck, err := h.orchestrator.Flashcards(taskContext(r), req)
	if err != nil {
		h.writeTaskError(w, r, reqID, "flashcards", err)
		return
	}

	logCompleted(r, reqID, "flashcards", receivedAt)
	writeJSON(w, deck)
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func decodeBody(w http.ResponseWriter, r *http.Request, reqID string, dest any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		httputil.WriteBadRequestError(w, reqID, "Invalid JSON: "+err.Error())
		return false
	}
	return true
}

// taskContext carries the per-call provider preference from the request header
// into the orchestrator. Preference is per request only; nothing sticks.
func taskContext(r *http.Request) context.Context {
	return assist.WithPreferredProvider(r.Context(), r.Header.Get(headerPreferProvider))
}

func (h *Handler) writeTaskError(w http.ResponseWriter, r *http.Request, reqID, task string, err error) {
	var genErr *assist.GenerationError
	if errors.As(err, &genErr) {
		slog.Error("task generation failed",
			"request_id", reqID,
			"task", task,
			"error", err,
		)
		httputil.WriteGenerationError(w, reqID)
		return
	}
	slog.Error("task failed", "request_id", reqID, "task", task, "error", err)
	httputil.WriteInternalError(w, reqID, "Failed to process request")
}

func logCompleted(r *http.Request, reqID, task string, receivedAt time.Time) {
	attrs := []any{
		"request_id", reqID,
		"task", task,
		"duration_ms", time.Since(receivedAt).Milliseconds(),
		"status_code", http.StatusOK,
	}
	if authInfo, ok := auth.AuthFromContext(r.Context()); ok {
		attrs = append(attrs, "user_id", authInfo.UserID, "key_id", authInfo.KeyID)
	}
	slog.Info("request completed", attrs...)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
