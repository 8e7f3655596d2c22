package catalog

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"habla/internal/tools/core"
	"habla/pkg/logger"

	"github.com/xeipuuv/gojsonschema"
)

// Wildcard in an enablement list makes a tool available to every assistant
// type.
const Wildcard = "*"

var ErrInvalidDefinition = errors.New("invalid tool definition")

// ConfirmationGenerator produces a dynamic confirmation question from the
// raw parameters, in the given locale.
type ConfirmationGenerator func(params map[string]any, locale string) string

// Definition describes one registered tool. Definitions are immutable after
// registration; re-registering a name replaces the old entry.
type Definition struct {
	Name        string
	Category    string
	Description string

	// ParameterSchema is a JSON-Schema document with a top-level object
	// type. It is compiled once at registration, never per call.
	ParameterSchema map[string]any

	RequiredCapabilities []string

	RequiresConfirmation  bool
	ConfirmationTemplate  string
	ConfirmationGenerator ConfirmationGenerator

	// EnabledFor lists assistant types the tool is available to, or the
	// wildcard.
	EnabledFor []string

	// Timeout bounds handler execution. Zero means the executor default.
	Timeout time.Duration

	Handler core.Handler

	compiled *gojsonschema.Schema
}

// EnabledForType reports whether the definition is enabled for the given
// assistant type.
func (d *Definition) EnabledForType(assistantType string) bool {
	for _, t := range d.EnabledFor {
		if t == Wildcard || t == assistantType {
			return true
		}
	}
	return false
}

// ValidateParams checks params against the compiled schema and returns every
// violation, not just the first.
func (d *Definition) ValidateParams(params map[string]any) ([]string, error) {
	if params == nil {
		params = map[string]any{}
	}
	result, err := d.compiled.Validate(gojsonschema.NewGoLoader(params))
	if err != nil {
		return nil, fmt.Errorf("schema validation: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}
	violations := make([]string, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		violations = append(violations, re.String())
	}
	return violations, nil
}

// Catalog is the registry of tool definitions. It is built by the process's
// composition root and injected where needed; it holds no mutable cross-call
// state besides the definition map.
type Catalog struct {
	mu    sync.RWMutex
	tools map[string]*Definition
	log   *logger.Logger
}

func New(log *logger.Logger) *Catalog {
	return &Catalog{
		tools: make(map[string]*Definition),
		log:   log,
	}
}

// Register inserts or overwrites a named tool. Definitions lacking a name, a
// handler, a valid object-typed parameter schema, or a non-empty enablement
// list are rejected. Overwriting an existing name is allowed but logged.
func (c *Catalog) Register(def *Definition) error {
	if def == nil {
		return fmt.Errorf("%w: nil definition", ErrInvalidDefinition)
	}
	if def.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidDefinition)
	}
	if def.Handler == nil {
		return fmt.Errorf("%w: tool %q has no handler", ErrInvalidDefinition, def.Name)
	}
	if len(def.EnabledFor) == 0 {
		return fmt.Errorf("%w: tool %q has an empty enablement list", ErrInvalidDefinition, def.Name)
	}
	if def.ParameterSchema == nil {
		return fmt.Errorf("%w: tool %q has no parameter schema", ErrInvalidDefinition, def.Name)
	}
	if t, _ := def.ParameterSchema["type"].(string); t != "object" {
		return fmt.Errorf("%w: tool %q parameter schema must have type object", ErrInvalidDefinition, def.Name)
	}

	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(def.ParameterSchema))
	if err != nil {
		return fmt.Errorf("%w: tool %q schema does not compile: %v", ErrInvalidDefinition, def.Name, err)
	}
	def.compiled = compiled

	c.mu.Lock()
	_, replaced := c.tools[def.Name]
	c.tools[def.Name] = def
	c.mu.Unlock()

	if replaced {
		c.log.Warn("Tool definition replaced", "tool", def.Name)
	}
	return nil
}

// Get returns the definition for a name, or nil if unregistered.
func (c *Catalog) Get(name string) *Definition {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tools[name]
}

// GetForAssistantType returns every tool enabled for the given assistant
// type, including wildcard-enabled tools.
func (c *Catalog) GetForAssistantType(assistantType string) []*Definition {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]*Definition, 0, len(c.tools))
	for _, def := range c.tools {
		if def.EnabledForType(assistantType) {
			result = append(result, def)
		}
	}
	return result
}

// ListNames returns the names of every registered tool.
func (c *Catalog) ListNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.tools))
	for name := range c.tools {
		names = append(names, name)
	}
	return names
}

// GetByCategory returns every tool in the given category.
func (c *Catalog) GetByCategory(category string) []*Definition {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]*Definition, 0)
	for _, def := range c.tools {
		if def.Category == category {
			result = append(result, def)
		}
	}
	return result
}

// RequiresConfirmation reports whether the named tool needs a confirmation
// round-trip before execution. Unknown tools report false.
func (c *Catalog) RequiresConfirmation(name string) bool {
	def := c.Get(name)
	return def != nil && def.RequiresConfirmation
}

// ConfirmationMessage builds the confirmation question for a tool: a dynamic
// generator wins over a placeholder template, which wins over a generic
// fallback phrase.
func (c *Catalog) ConfirmationMessage(name string, params map[string]any, locale string) string {
	def := c.Get(name)
	if def == nil {
		return genericConfirmation(locale)
	}
	if def.ConfirmationGenerator != nil {
		if msg := def.ConfirmationGenerator(params, locale); msg != "" {
			return msg
		}
	}
	if def.ConfirmationTemplate != "" {
		return substitutePlaceholders(def.ConfirmationTemplate, params)
	}
	return genericConfirmation(locale)
}

// substitutePlaceholders replaces {key} markers with the string form of the
// matching parameter. Unmatched markers are left in place.
func substitutePlaceholders(template string, params map[string]any) string {
	out := template
	for key, value := range params {
		out = strings.ReplaceAll(out, "{"+key+"}", fmt.Sprintf("%v", value))
	}
	return out
}

func genericConfirmation(locale string) string {
	if locale == "es" {
		return "¿Confirmas que quieres continuar?"
	}
	return "Do you confirm you want to proceed?"
}
