package assist

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoJSONFound means the provider text contains no brace-delimited payload
// at all. This is a routine failure mode on bad model output, not an
// exceptional one.
var ErrNoJSONFound = errors.New("no JSON object found in provider text")

// ParseError means the payload still failed to parse after cleanup. It
// carries the cleaned substring for diagnostics.
type ParseError struct {
	Cleaned string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse cleaned provider JSON: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

var codeFencePattern = regexp.MustCompile("```[a-zA-Z]*")

// ExtractJSON recovers a structured payload embedded in free-form model text
// and unmarshals it into dest. Cleanup is deterministic and ordered: strip
// code fences, trim to the outermost brace pair, replace C0/C1 control runes
// with a space, drop trailing commas before a closing brace or bracket.
func ExtractJSON(raw string, dest any) error {
	text := codeFencePattern.ReplaceAllString(raw, "")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return ErrNoJSONFound
	}
	text = text[start : end+1]

	text = replaceControlRunes(text)
	text = removeTrailingCommas(text)

	if err := json.Unmarshal([]byte(text), dest); err != nil {
		return &ParseError{Cleaned: text, Err: err}
	}
	return nil
}

// replaceControlRunes maps the C0 (U+0000..U+001F) and C1 (U+0080..U+009F)
// ranges to a single space. Models sometimes emit literal newlines inside
// string values, which strict JSON rejects.
func replaceControlRunes(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || (r >= 0x80 && r <= 0x9F) {
			return ' '
		}
		return r
	}, s)
}

// removeTrailingCommas drops commas whose next non-space byte closes a brace
// or bracket. String literals are left untouched: a comma inside a quoted
// value is legitimate content, not model sloppiness.
func removeTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			b.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
			b.WriteByte(c)
		case ',':
			j := i + 1
			for j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\n' || s[j] == '\r') {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// thinkPayload is the loose shape the controller prompt asks the model for.
type thinkPayload struct {
	Text   string          `json:"text"`
	Action json.RawMessage `json:"action"`
}

// extractThink recovers the controller payload: text defaults to empty,
// action stays raw for validating decode by the caller.
func extractThink(raw string) (thinkPayload, error) {
	var payload thinkPayload
	if err := ExtractJSON(raw, &payload); err != nil {
		return thinkPayload{}, err
	}
	return payload, nil
}

// cardPayload tolerates cards being absent or not a sequence: both decode to
// an empty list, which routes the orchestrator to its fallback.
type cardPayload struct {
	Cards []struct {
		Front string `json:"front"`
		Back  string `json:"back"`
	} `json:"cards"`
}

// extractCards recovers the flashcard payload. A missing or malformed cards
// field yields an empty slice, never an error distinct from parse failure.
func extractCards(raw string) (cardPayload, error) {
	// Decode cards laxly first: if the payload parses but cards is the wrong
	// type, treat it as empty rather than failing the whole response.
	var loose struct {
		Cards json.RawMessage `json:"cards"`
	}
	if err := ExtractJSON(raw, &loose); err != nil {
		return cardPayload{}, err
	}

	var payload cardPayload
	if len(loose.Cards) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(loose.Cards, &payload.Cards); err != nil {
		return cardPayload{}, nil
	}
	return payload, nil
}
