// Package tools holds the capabilities the tutor can invoke on behalf of the
// generator and the dispatcher that runs them.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/SharminSirajudeen/ai-tutor-mvp/core/conversations"
	"github.com/SharminSirajudeen/ai-tutor-mvp/core/llms"
	"github.com/invopop/jsonschema"
	"github.com/xeipuuv/gojsonschema"
)

// Handler executes a capability with already validated JSON arguments.
type Handler func(ctx context.Context, arguments json.RawMessage) (Output, error)

// Output is what a successful handler produces. Payload is serialised into
// the tool result message, DrawCommands are merged into the session canvas.
type Output struct {
	Payload      any
	DrawCommands []conversations.DrawCommand
}

type Capability struct {
	Name        string
	Description string
	// Schema describes the arguments object. Arguments are not validated
	// when it is nil.
	Schema  *jsonschema.Schema
	Handler Handler
}

// NewCapability builds a capability whose argument schema is reflected from
// T and whose handler receives the arguments decoded into T.
func NewCapability[T any](name, description string, handle func(context.Context, T) (Output, error)) Capability {
	reflector := jsonschema.Reflector{DoNotReference: true, Anonymous: true}
	schema := reflector.ReflectFromType(reflect.TypeOf((*T)(nil)).Elem())
	schema.Version = ""

	return Capability{
		Name:        name,
		Description: description,
		Schema:      schema,
		Handler: func(ctx context.Context, arguments json.RawMessage) (Output, error) {
			var args T
			if err := json.Unmarshal(arguments, &args); err != nil {
				return Output{}, fmt.Errorf("failed to decode arguments: %w", err)
			}
			return handle(ctx, args)
		},
	}
}

// Registry is an immutable set of capabilities keyed by name.
type Registry struct {
	order   []string
	entries map[string]entry
}

type entry struct {
	capability Capability
	parameters json.RawMessage
	validator  *gojsonschema.Schema
}

func NewRegistry(capabilities ...Capability) (*Registry, error) {
	registry := &Registry{entries: make(map[string]entry, len(capabilities))}

	var errs []error
	for _, capability := range capabilities {
		switch {
		case capability.Name == "":
			errs = append(errs, errors.New("capability without a name"))
			continue
		case capability.Handler == nil:
			errs = append(errs, fmt.Errorf("capability %q has no handler", capability.Name))
			continue
		}
		if _, exists := registry.entries[capability.Name]; exists {
			errs = append(errs, fmt.Errorf("capability %q registered twice", capability.Name))
			continue
		}

		registered := entry{capability: capability}
		if capability.Schema != nil {
			parameters, err := json.Marshal(capability.Schema)
			if err != nil {
				errs = append(errs, fmt.Errorf("failed to encode schema of %q: %w", capability.Name, err))
				continue
			}
			validator, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(parameters))
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid schema for %q: %w", capability.Name, err))
				continue
			}
			registered.parameters = parameters
			registered.validator = validator
		}

		registry.entries[capability.Name] = registered
		registry.order = append(registry.order, capability.Name)
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return registry, nil
}

// MustNewRegistry is like NewRegistry but panics on error.
func MustNewRegistry(capabilities ...Capability) *Registry {
	registry, err := NewRegistry(capabilities...)
	if err != nil {
		panic(err)
	}
	return registry
}

func (r *Registry) Lookup(name string) (Capability, bool) {
	if r == nil {
		return Capability{}, false
	}
	registered, ok := r.entries[name]
	return registered.capability, ok
}

// Names returns capability names in registration order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.order...)
}

func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}

// Definitions describes every capability for the response generator.
func (r *Registry) Definitions() []llms.ToolDefinition {
	if r == nil {
		return nil
	}

	definitions := make([]llms.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		registered := r.entries[name]
		definitions = append(definitions, llms.ToolDefinition{
			Name:        name,
			Description: registered.capability.Description,
			Parameters:  append(json.RawMessage(nil), registered.parameters...),
		})
	}
	return definitions
}

// validate reports the first schema violations of arguments, naming the
// offending fields.
func (r *Registry) validate(name string, arguments json.RawMessage) error {
	registered, ok := r.entries[name]
	if !ok || registered.validator == nil {
		return nil
	}

	result, err := registered.validator.Validate(gojsonschema.NewBytesLoader(arguments))
	if err != nil {
		return fmt.Errorf("arguments could not be validated: %w", err)
	}
	if result.Valid() {
		return nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, violation := range result.Errors() {
		violations = append(violations, fmt.Sprintf("%s: %s", violation.Field(), violation.Description()))
	}
	return errors.New(strings.Join(violations, "; "))
}
