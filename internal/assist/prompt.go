package assist

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/studypal/assist-gateway/internal/types"
)

// Prompt builders are pure string construction: no I/O, no errors. Missing
// fields always render as a documented default, never disappear silently.

// BuildAssistPrompt renders the one-shot assistant prompt with app context.
func BuildAssistPrompt(message string, c types.AssistContext) string {
	goal := c.ActiveGoal
	if goal == "" {
		goal = "None"
	}

	var b strings.Builder
	b.WriteString("You are a friendly study assistant inside a student productivity app.\n")
	b.WriteString("Current context:\n")
	fmt.Fprintf(&b, "- Active goal: %s\n", goal)
	fmt.Fprintf(&b, "- Focus time today: %d minutes\n", c.FocusMinutes)
	fmt.Fprintf(&b, "- Open goals: %d\n", c.OpenGoals)
	b.WriteString("\nAnswer the student's message concisely and encouragingly.\n\n")
	fmt.Fprintf(&b, "Student: %s", message)
	return b.String()
}

// BuildThinkPrompt renders the controller prompt: the serialized app state,
// the full action vocabulary, and the instruction to answer with JSON only.
func BuildThinkPrompt(input string, appState map[string]any) string {
	state := "{}"
	if len(appState) > 0 {
		if data, err := json.Marshal(appState); err == nil {
			state = string(data)
		}
	}

	var b strings.Builder
	b.WriteString("You are the controller of a student productivity app. ")
	b.WriteString("Interpret the student's instruction against the current app state and decide whether to act.\n\n")
	fmt.Fprintf(&b, "App state: %s\n\n", state)
	b.WriteString("You may request exactly one action, or none. The only valid actions are:\n")
	b.WriteString(`- {"type":"SET_TIMER","minutes":<positive number>}` + "\n")
	b.WriteString(`- {"type":"STOP_TIMER"}` + "\n")
	b.WriteString(`- {"type":"PAUSE_TIMER"}` + "\n")
	b.WriteString(`- {"type":"NAVIGATE","view":"dashboard"|"timer"|"goals"|"courses"|"notes"|"groups","courseId":<optional>}` + "\n")
	b.WriteString(`- {"type":"ADD_GOAL","title":<string>,"date":"YYYY-MM-DD","plan":<optional string>}` + "\n")
	b.WriteString(`- {"type":"OPEN_RESOURCE","resource":"notes","moduleName":<string>}` + "\n")
	b.WriteString("\nRespond with ONLY a JSON object of the form ")
	b.WriteString(`{"text":"<your reply to the student>","action":<one of the actions above or null>}`)
	b.WriteString(". No other text.\n\n")
	fmt.Fprintf(&b, "Student: %s", input)
	return b.String()
}

// BuildChatPrompt renders the multi-turn chat prompt. Turns missing a role or
// content are skipped; with no usable history the previous-conversation
// framing is omitted entirely. maxTurns bounds how many of the most recent
// turns are rendered; 0 means unbounded.
func BuildChatPrompt(message string, history []types.Turn, maxTurns int) string {
	usable := make([]types.Turn, 0, len(history))
	for _, turn := range history {
		if turn.Role == "" || turn.Content == "" {
			continue
		}
		usable = append(usable, turn)
	}
	if maxTurns > 0 && len(usable) > maxTurns {
		usable = usable[len(usable)-maxTurns:]
	}

	var b strings.Builder
	b.WriteString("You are a study buddy chatting with a student. ")
	b.WriteString("Reply in plain conversational text. Never output JSON, commands, or app actions.\n\n")

	if len(usable) > 0 {
		b.WriteString("Previous conversation:\n")
		for _, turn := range usable {
			speaker := "User"
			if turn.Role == "assistant" {
				speaker = "Assistant"
			}
			fmt.Fprintf(&b, "%s: %s\n", speaker, turn.Content)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "User: %s", message)
	return b.String()
}

// BuildFlashcardPrompt renders the flashcard generation prompt. Absent names
// default to "General"; an empty topic list renders the "General revision"
// sentinel.
func BuildFlashcardPrompt(courseName, moduleTitle string, topics []string) string {
	if courseName == "" {
		courseName = "General"
	}
	if moduleTitle == "" {
		moduleTitle = "General"
	}
	topicList := "General revision"
	if len(topics) > 0 {
		topicList = strings.Join(topics, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Create flashcards for the course %q, module %q.\n", courseName, moduleTitle)
	fmt.Fprintf(&b, "Topics to cover: %s\n\n", topicList)
	b.WriteString("Produce exactly 8-10 flashcards. Respond with ONLY a JSON object of the form ")
	b.WriteString(`{"cards":[{"front":"<question>","back":"<answer>"}]}`)
	b.WriteString(". No other text.")
	return b.String()
}
