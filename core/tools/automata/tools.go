package automata

import (
	"context"
	"fmt"
	"strings"

	"github.com/SharminSirajudeen/ai-tutor-mvp/core/tools"
)

const (
	BuilderToolName = "automata_builder_tool"
	PatternToolName = "draw_common_dfa"
)

type PatternArguments struct {
	PatternName string `json:"pattern_name" jsonschema:"description=Name of a well known automaton to draw"`
}

// Capabilities returns the automata builder and the catalog pattern tool.
func Capabilities(catalog *Catalog) []tools.Capability {
	return []tools.Capability{
		tools.NewCapability(BuilderToolName,
			"Draw a finite automaton on the student's canvas from its states and transitions.",
			build),
		tools.NewCapability(PatternToolName,
			fmt.Sprintf("Draw a well known DFA on the student's canvas. Available patterns: %s.", strings.Join(catalog.Names(), ", ")),
			func(ctx context.Context, args PatternArguments) (tools.Output, error) {
				return drawPattern(ctx, catalog, args)
			}),
	}
}

func build(_ context.Context, automaton Automaton) (tools.Output, error) {
	if err := automaton.Validate(); err != nil {
		return tools.Output{}, err
	}

	commands := automaton.DrawCommands()
	return tools.Output{
		Payload: map[string]any{
			"success":          true,
			"automaton_type":   automaton.kind(),
			"state_count":      len(automaton.States),
			"transition_count": len(automaton.Transitions),
			"draw_commands":    commands,
		},
		DrawCommands: commands,
	}, nil
}

func drawPattern(_ context.Context, catalog *Catalog, args PatternArguments) (tools.Output, error) {
	pattern, ok := catalog.Lookup(args.PatternName)
	if !ok {
		return tools.Output{}, fmt.Errorf("unknown pattern %q, available patterns: %s",
			args.PatternName, strings.Join(catalog.Names(), ", "))
	}

	commands := pattern.Automaton.DrawCommands()
	return tools.Output{
		Payload: map[string]any{
			"success":       true,
			"pattern":       pattern.Name,
			"description":   pattern.Description,
			"draw_commands": commands,
		},
		DrawCommands: commands,
	}, nil
}
