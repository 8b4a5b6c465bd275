package assist

import (
	"fmt"

	"github.com/studypal/assist-gateway/internal/types"
)

const maxCards = 10

// genericTopics seed the manual deck when the caller supplied no topics.
var genericTopics = []string{"Key concepts", "Definitions", "Review questions"}

// ManualDeck deterministically synthesizes flashcards from the request alone,
// without any provider. One card per topic, capped at maxCards; with no
// topics it falls back to three generic placeholders. This is the non-AI
// safety net: flashcard generation never fails outright.
func ManualDeck(req types.FlashcardRequest) types.Deck {
	course := req.CourseName
	if course == "" {
		course = "General"
	}
	module := req.ModuleTitle
	if module == "" {
		module = "General"
	}

	topics := req.Topics
	if len(topics) == 0 {
		topics = genericTopics
	}
	if len(topics) > maxCards {
		topics = topics[:maxCards]
	}

	cards := make([]types.Flashcard, 0, len(topics))
	for _, topic := range topics {
		cards = append(cards, types.Flashcard{
			Front: fmt.Sprintf("What do you remember about %s?", topic),
			Back:  fmt.Sprintf("Review %s in the %s module of %s.", topic, module, course),
		})
	}
	return types.Deck{Cards: cards}
}
