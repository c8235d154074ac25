package conversations

import (
	"maps"
	"slices"
)

const DefaultTopic = "DFA"

// UnderstandingLevel is the tutor's coarse estimate of the learner's grasp of
// the current topic.
type UnderstandingLevel string

const (
	UnderstandingConfused    UnderstandingLevel = "confused"
	UnderstandingProgressing UnderstandingLevel = "progressing"
	UnderstandingMastered    UnderstandingLevel = "mastered"
)

func (l UnderstandingLevel) Valid() bool {
	switch l {
	case UnderstandingConfused, UnderstandingProgressing, UnderstandingMastered:
		return true
	default:
		return false
	}
}

// DrawCommand is an opaque drawing instruction for the client canvas.
type DrawCommand map[string]any

// State is the persisted state of a single tutoring session.
type State struct {
	History        []Message      `json:"history"`
	ProblemContext string         `json:"problem_context"`
	CanvasState    map[string]any `json:"canvas_state"`
	// DrawCommands accumulates every drawing instruction produced by tools
	// across all turns. It is append-only.
	DrawCommands       []DrawCommand      `json:"draw_commands"`
	UnderstandingLevel UnderstandingLevel `json:"understanding_level"`
	Attempts           int                `json:"attempts"`
	Topic              string             `json:"topic"`
	// MasteryScores is carried through turns unchanged.
	MasteryScores map[string]float64 `json:"mastery_scores"`
}

// NewState returns the state a session starts with before its first turn.
func NewState(topic string) State {
	if topic == "" {
		topic = DefaultTopic
	}

	return State{
		History:            []Message{},
		DrawCommands:       []DrawCommand{},
		UnderstandingLevel: UnderstandingConfused,
		Topic:              topic,
		MasteryScores:      map[string]float64{},
	}
}

// Clone returns a copy that shares no slices or maps with s. Canvas state and
// draw command values are copied one level deep, they are never mutated in
// place.
func (s State) Clone() State {
	clone := s
	clone.History = make([]Message, len(s.History))
	for i, message := range s.History {
		message.ToolCalls = slices.Clone(message.ToolCalls)
		clone.History[i] = message
	}

	clone.DrawCommands = make([]DrawCommand, len(s.DrawCommands))
	for i, command := range s.DrawCommands {
		clone.DrawCommands[i] = maps.Clone(command)
	}

	clone.CanvasState = maps.Clone(s.CanvasState)
	clone.MasteryScores = maps.Clone(s.MasteryScores)
	return clone
}

// LastUserMessage returns the most recent message authored by the learner.
func (s State) LastUserMessage() (Message, bool) {
	for i := len(s.History) - 1; i >= 0; i-- {
		if s.History[i].Role == RoleUser {
			return s.History[i], true
		}
	}

	return Message{}, false
}
