package types

// Turn is one prior exchange in a chat conversation, supplied by the caller.
// The orchestrator holds no conversation state of its own.
type Turn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// AssistContext carries the app-state snippets interpolated into the
// generic assistant prompt. Zero values render as explicit placeholders
// ("None" / 0), never as omissions.
type AssistContext struct {
	ActiveGoal   string `json:"activeGoal,omitempty"`
	FocusMinutes int    `json:"focusMinutes,omitempty"`
	OpenGoals    int    `json:"openGoals,omitempty"`
}

// AssistRequest asks for a one-shot assistant reply with light app context.
type AssistRequest struct {
	Message string        `json:"message"`
	Context AssistContext `json:"context"`
}

// ThinkRequest asks the controller to interpret a user instruction against
// the current app state and optionally emit an action.
type ThinkRequest struct {
	Input    string         `json:"input"`
	AppState map[string]any `json:"appState,omitempty"`
}

// ChatRequest asks for a multi-turn chat reply. History is ordered oldest
// first; turns missing a role or content are ignored when rendering.
type ChatRequest struct {
	Message string `json:"message"`
	History []Turn `json:"history,omitempty"`
}

// FlashcardRequest asks for generated flashcards for a course module.
type FlashcardRequest struct {
	CourseName  string   `json:"courseName"`
	ModuleTitle string   `json:"moduleTitle"`
	Topics      []string `json:"topics"`
}

// Reply is the result of Assist and Chat tasks.
type Reply struct {
	Text string `json:"reply"`
}

// ThinkResult is the result of a Think task: the user-visible reply plus an
// optional validated action. Action is nil when the model requested none or
// requested something outside the vocabulary.
type ThinkResult struct {
	Text   string  `json:"reply"`
	Action *Action `json:"action"`
}

// Flashcard is one front/back pair. At least one side is always non-empty.
type Flashcard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// Deck is the result of a Flashcard task. Cards holds between 1 and 10
// entries; the manual fallback guarantees the lower bound even with no
// provider configured.
type Deck struct {
	Cards []Flashcard `json:"cards"`
}
