// Package automata provides the drawing tools for finite automata.
package automata

import (
	"errors"
	"fmt"

	"github.com/SharminSirajudeen/ai-tutor-mvp/core/conversations"
)

// Epsilon is the symbol reserved for epsilon moves.
const Epsilon = "ε"

type Kind string

const (
	KindDFA Kind = "DFA"
	KindNFA Kind = "NFA"
)

type State struct {
	Label    string `json:"label" yaml:"label" jsonschema:"description=State label such as q0"`
	IsStart  bool   `json:"is_start,omitempty" yaml:"is_start" jsonschema:"description=Whether this is the start state"`
	IsAccept bool   `json:"is_accept,omitempty" yaml:"is_accept" jsonschema:"description=Whether this is an accepting state"`
}

type Transition struct {
	From   string `json:"from_state" yaml:"from_state" jsonschema:"description=Label of the source state"`
	To     string `json:"to_state" yaml:"to_state" jsonschema:"description=Label of the target state"`
	Symbol string `json:"symbol" yaml:"symbol" jsonschema:"description=Input symbol (ε for epsilon moves)"`
}

// Automaton is a finite automaton as drawn on the canvas.
type Automaton struct {
	States      []State      `json:"states" yaml:"states" jsonschema:"description=States of the automaton"`
	Transitions []Transition `json:"transitions" yaml:"transitions" jsonschema:"description=Transitions between declared states"`
	Type        Kind         `json:"automaton_type,omitempty" yaml:"automaton_type" jsonschema:"enum=DFA,enum=NFA,default=DFA,description=Kind of automaton"`
}

func (a Automaton) kind() Kind {
	if a.Type == "" {
		return KindDFA
	}
	return a.Type
}

// Validate checks that transitions only reference declared states and that
// a DFA has no epsilon moves.
func (a Automaton) Validate() error {
	if len(a.States) == 0 {
		return errors.New("automaton has no states")
	}

	declared := make(map[string]struct{}, len(a.States))
	var errs []error
	for _, state := range a.States {
		if state.Label == "" {
			errs = append(errs, errors.New("state with empty label"))
			continue
		}
		if _, ok := declared[state.Label]; ok {
			errs = append(errs, fmt.Errorf("state %q declared twice", state.Label))
		}
		declared[state.Label] = struct{}{}
	}

	for _, transition := range a.Transitions {
		for _, label := range []string{transition.From, transition.To} {
			if _, ok := declared[label]; !ok {
				errs = append(errs, fmt.Errorf("transition %s -%s-> %s references undeclared state %q",
					transition.From, transition.Symbol, transition.To, label))
			}
		}
		if transition.Symbol == Epsilon && a.kind() == KindDFA {
			errs = append(errs, fmt.Errorf("transition %s -> %s uses %s, which a DFA cannot have", transition.From, transition.To, Epsilon))
		}
	}

	return errors.Join(errs...)
}

// DrawCommands renders the automaton as canvas commands: every state first,
// then every transition, each in declaration order.
func (a Automaton) DrawCommands() []conversations.DrawCommand {
	commands := make([]conversations.DrawCommand, 0, len(a.States)+len(a.Transitions))
	for _, state := range a.States {
		commands = append(commands, conversations.DrawCommand{
			"type":     "addState",
			"label":    state.Label,
			"isStart":  state.IsStart,
			"isAccept": state.IsAccept,
		})
	}
	for _, transition := range a.Transitions {
		commands = append(commands, conversations.DrawCommand{
			"type":   "addTransition",
			"from":   transition.From,
			"to":     transition.To,
			"symbol": transition.Symbol,
		})
	}
	return commands
}
