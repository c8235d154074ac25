package groq

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/SharminSirajudeen/ai-tutor-mvp/core/conversations"
	"github.com/SharminSirajudeen/ai-tutor-mvp/core/llms"
)

var levelGuidance = map[conversations.UnderstandingLevel]string{
	conversations.UnderstandingConfused: "The student is confused. Break the idea into one small step, " +
		"ask a single simple guiding question and offer a concrete example if they stay stuck.",
	conversations.UnderstandingProgressing: "The student is making progress. Ask a question that moves them " +
		"one step further and let them find their own mistakes.",
	conversations.UnderstandingMastered: "The student shows mastery. Confirm briefly and pose a slightly " +
		"harder variation of the problem.",
}

// SystemPrompt builds the Socratic tutoring instructions for a request.
func SystemPrompt(request llms.Request) string {
	var prompt strings.Builder
	fmt.Fprintf(&prompt, "You are a Socratic tutor for theory of computation, currently teaching %s.\n", request.Topic)
	prompt.WriteString("Never hand out complete solutions. Guide the student with questions, " +
		"one concept at a time, and keep replies short.\n\n")

	level := request.UnderstandingLevel
	if !level.Valid() {
		level = conversations.UnderstandingProgressing
	}
	fmt.Fprintf(&prompt, "Understanding level: %s. %s\n", level, levelGuidance[level])
	fmt.Fprintf(&prompt, "Turns taken so far: %d.\n", request.Attempts)

	if problem := strings.TrimSpace(request.ProblemContext); problem != "" {
		fmt.Fprintf(&prompt, "\nProblem the student is working on:\n%s\n", problem)
	}

	if len(request.CanvasState) > 0 {
		if canvas, err := json.Marshal(request.CanvasState); err == nil {
			fmt.Fprintf(&prompt, "\nCurrent canvas (JSON):\n%s\n", canvas)
		}
	}

	if len(request.Tools) > 0 {
		prompt.WriteString("\nWhen a diagram would help, draw it with the available tools instead of " +
			"describing it. Use the symbol ε for epsilon transitions.\n")
	}

	return prompt.String()
}
