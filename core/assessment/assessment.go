// Package assessment estimates how well a learner understands the current
// topic from the text of their latest message.
package assessment

import (
	"strings"

	"github.com/SharminSirajudeen/ai-tutor-mvp/core/conversations"
)

// Assessor maps a learner message to an understanding level. Implementations
// must be total and deterministic.
type Assessor func(message string) conversations.UnderstandingLevel

var (
	// ConfusionMarkers win over MasteryMarkers when a message contains both.
	ConfusionMarkers = []string{"help", "don't understand", "confused", "what", "?"}
	MasteryMarkers   = []string{"got it", "understand", "makes sense", "i see", "correct"}
)

var apostrophes = strings.NewReplacer("’", "'", "‘", "'")

// Keyword is the default assessor using ConfusionMarkers and MasteryMarkers.
func Keyword(message string) conversations.UnderstandingLevel {
	return classify(message, ConfusionMarkers, MasteryMarkers)
}

// NewKeywordAssessor returns an assessor with custom marker lists. Markers are
// matched as case-insensitive substrings and confusion is checked first.
func NewKeywordAssessor(confusion, mastery []string) Assessor {
	confusion = normalizeAll(confusion)
	mastery = normalizeAll(mastery)
	return func(message string) conversations.UnderstandingLevel {
		return classify(message, confusion, mastery)
	}
}

func classify(message string, confusion, mastery []string) conversations.UnderstandingLevel {
	text := normalize(message)
	switch {
	case containsAny(text, confusion):
		return conversations.UnderstandingConfused
	case containsAny(text, mastery):
		return conversations.UnderstandingMastered
	default:
		return conversations.UnderstandingProgressing
	}
}

func containsAny(text string, markers []string) bool {
	for _, marker := range markers {
		if marker != "" && strings.Contains(text, normalize(marker)) {
			return true
		}
	}
	return false
}

func normalize(text string) string {
	return strings.ToLower(apostrophes.Replace(text))
}

func normalizeAll(markers []string) []string {
	normalized := make([]string, 0, len(markers))
	for _, marker := range markers {
		normalized = append(normalized, normalize(marker))
	}
	return normalized
}
