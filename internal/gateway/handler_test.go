package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/studypal/assist-gateway/internal/assist"
	"github.com/studypal/assist-gateway/internal/httputil"
	"github.com/studypal/assist-gateway/internal/types"
)

// fakeTasker scripts orchestrator results per task kind.
type fakeTasker struct {
	reply      types.Reply
	thinkRes   types.ThinkResult
	deck       types.Deck
	err        error
	lastPrefer string
	lastChat   types.ChatRequest
}

func (f *fakeTasker) Assist(ctx context.Context, req types.AssistRequest) (types.Reply, error) {
	f.recordPrefer(ctx)
	return f.reply, f.err
}

func (f *fakeTasker) Think(ctx context.Context, req types.ThinkRequest) (types.ThinkResult, error) {
	f.recordPrefer(ctx)
	return f.thinkRes, f.err
}

func (f *fakeTasker) Chat(ctx context.Context, req types.ChatRequest) (types.Reply, error) {
	f.recordPrefer(ctx)
	f.lastChat = req
	return f.reply, f.err
}

func (f *fakeTasker) Flashcards(ctx context.Context, req types.FlashcardRequest) (types.Deck, error) {
	f.recordPrefer(ctx)
	return f.deck, f.err
}

func (f *fakeTasker) recordPrefer(ctx context.Context) {
	f.lastPrefer = assist.PreferredProvider(ctx)
}

func TestAssist_Success(t *testing.T) {
	fake := &fakeTasker{reply: types.Reply{Text: "Focus for 25 minutes, then take a break."}}
	h := NewHandler(fake)

	body := `{"message": "how should I study?", "context": {"activeGoal": "Finish algebra", "focusMinutes": 50}}`
	req := httptest.NewRequest(http.MethodPost, "/v1/assist", strings.NewReader(body))
	rec := httptest.NewRecorder()
	rec.Header().Set("X-Request-ID", "req-1")

	h.Assist(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var reply types.Reply
	if err := json.NewDecoder(rec.Body).Decode(&reply); err != nil {
		t.Fatalf("failed to decode reply: %v", err)
	}
	if reply.Text != "Focus for 25 minutes, then take a break." {
		t.Errorf("unexpected reply text: %q", reply.Text)
	}
}

func TestAssist_MissingMessage(t *testing.T) {
	h := NewHandler(&fakeTasker{})

	req := httptest.NewRequest(http.MethodPost, "/v1/assist", strings.NewReader(`{"message": "  "}`))
	rec := httptest.NewRecorder()
	rec.Header().Set("X-Request-ID", "req-2")

	h.Assist(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestAssist_InvalidJSON(t *testing.T) {
	h := NewHandler(&fakeTasker{})

	req := httptest.NewRequest(http.MethodPost, "/v1/assist", strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()

	h.Assist(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestAssist_GenerationFailed(t *testing.T) {
	fake := &fakeTasker{err: &assist.GenerationError{Task: "assist", Cause: context.DeadlineExceeded}}
	h := NewHandler(fake)

	req := httptest.NewRequest(http.MethodPost, "/v1/assist", strings.NewReader(`{"message": "help"}`))
	rec := httptest.NewRecorder()
	rec.Header().Set("X-Request-ID", "req-3")

	h.Assist(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	var apiErr httputil.APIError
	if err := json.NewDecoder(rec.Body).Decode(&apiErr); err != nil {
		t.Fatalf("failed to decode error: %v", err)
	}
	if apiErr.Error.Code != "generation_failed" {
		t.Errorf("expected code 'generation_failed', got %s", apiErr.Error.Code)
	}
	// The user-facing message must not leak the cause
	if strings.Contains(apiErr.Error.Message, "deadline") {
		t.Errorf("error message leaks internal cause: %s", apiErr.Error.Message)
	}
}

func TestThink_Success_WithAction(t *testing.T) {
	fake := &fakeTasker{thinkRes: types.ThinkResult{
		Text:   "Starting a 25 minute timer.",
		Action: &types.Action{Type: types.ActionSetTimer, Minutes: 25},
	}}
	h := NewHandler(fake)

	req := httptest.NewRequest(http.MethodPost, "/v1/think", strings.NewReader(`{"input": "start a pomodoro"}`))
	rec := httptest.NewRecorder()

	h.Think(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var result types.ThinkResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode result: %v", err)
	}
	if result.Action == nil || result.Action.Type != types.ActionSetTimer || result.Action.Minutes != 25 {
		t.Errorf("unexpected action: %+v", result.Action)
	}
}

func TestThink_NullActionSerialized(t *testing.T) {
	fake := &fakeTasker{thinkRes: types.ThinkResult{Text: "Just chatting."}}
	h := NewHandler(fake)

	req := httptest.NewRequest(http.MethodPost, "/v1/think", strings.NewReader(`{"input": "hello"}`))
	rec := httptest.NewRecorder()

	h.Think(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	// Action must serialize as explicit null, not be omitted
	if !strings.Contains(rec.Body.String(), `"action":null`) {
		t.Errorf("expected explicit null action in body: %s", rec.Body.String())
	}
}

func TestThink_MissingInput(t *testing.T) {
	h := NewHandler(&fakeTasker{})

	req := httptest.NewRequest(http.MethodPost, "/v1/think", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	h.Think(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestChat_PassesHistory(t *testing.T) {
	fake := &fakeTasker{reply: types.Reply{Text: "Sure, let's keep going."}}
	h := NewHandler(fake)

	body := `{"message": "and then?", "history": [{"role": "user", "content": "hi"}, {"role": "assistant", "content": "hello"}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Chat(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(fake.lastChat.History) != 2 {
		t.Errorf("expected 2 history turns passed through, got %d", len(fake.lastChat.History))
	}
}

func TestFlashcards_Success(t *testing.T) {
	fake := &fakeTasker{deck: types.Deck{Cards: []types.Flashcard{
		{Front: "What is osmosis?", Back: "Movement of water across a membrane."},
	}}}
	h := NewHandler(fake)

	body := `{"courseName": "Biology", "moduleTitle": "Cells", "topics": ["Osmosis"]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/flashcards", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Flashcards(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var deck types.Deck
	if err := json.NewDecoder(rec.Body).Decode(&deck); err != nil {
		t.Fatalf("failed to decode deck: %v", err)
	}
	if len(deck.Cards) != 1 {
		t.Errorf("expected 1 card, got %d", len(deck.Cards))
	}
}

func TestFlashcards_EmptyBodyStillSucceeds(t *testing.T) {
	// Flashcards has no required fields; the orchestrator defaults everything.
	fake := &fakeTasker{deck: types.Deck{Cards: []types.Flashcard{{Front: "f", Back: "b"}}}}
	h := NewHandler(fake)

	req := httptest.NewRequest(http.MethodPost, "/v1/flashcards", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	h.Flashcards(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestPreferProviderHeader_ReachesOrchestrator(t *testing.T) {
	fake := &fakeTasker{reply: types.Reply{Text: "ok"}}
	h := NewHandler(fake)

	req := httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader(`{"message": "hi"}`))
	req.Header.Set(headerPreferProvider, "openai")
	rec := httptest.NewRecorder()

	h.Chat(rec, req)

	if fake.lastPrefer != "openai" {
		t.Errorf("expected preference 'openai' in context, got %q", fake.lastPrefer)
	}
}

func TestHealth(t *testing.T) {
	h := NewHandler(&fakeTasker{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	h.Health(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("unexpected health body: %s", rec.Body.String())
	}
}
