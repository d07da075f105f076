// Package registry holds skills defined in code: a definition describing the
// skill's inputs and outputs paired with the handler that runs it.
package registry

import (
	"context"
)

// ParamType is the JSON type of a parameter or output
type ParamType string

// Supported parameter and output types
const (
	TypeString  ParamType = "string"
	TypeNumber  ParamType = "number"
	TypeBoolean ParamType = "boolean"
	TypeObject  ParamType = "object"
	TypeArray   ParamType = "array"
)

// Parameter describes one input a skill accepts
type Parameter struct {
	Name        string         `json:"name"`
	Type        ParamType      `json:"type"`
	Description string         `json:"description"`
	Required    bool           `json:"required,omitempty"`
	Default     any            `json:"default,omitempty"`
	Enum        []any          `json:"enum,omitempty"`
	Schema      map[string]any `json:"schema,omitempty"`
}

// Output describes what a skill returns
type Output struct {
	Type   ParamType      `json:"type"`
	Format string         `json:"format,omitempty"` // markdown, plain, json or html
	Schema map[string]any `json:"schema,omitempty"`
}

// Example is a documented invocation
type Example struct {
	Input       map[string]any `json:"input"`
	Output      any            `json:"output"`
	Description string         `json:"description,omitempty"`
}

// RateLimit caps invocations to Requests per Period
type RateLimit struct {
	Requests int    `json:"requests"`
	Period   string `json:"period"` // second, minute, hour or day
}

// Definition describes a skill
type Definition struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	Category     string      `json:"category,omitempty"`
	Tags         []string    `json:"tags,omitempty"`
	Parameters   []Parameter `json:"parameters,omitempty"`
	Output       *Output     `json:"output,omitempty"`
	Examples     []Example   `json:"examples,omitempty"`
	Version      string      `json:"version,omitempty"`
	Author       string      `json:"author,omitempty"`
	RequiresAuth bool        `json:"requiresAuth,omitempty"`
	RateLimit    *RateLimit  `json:"rateLimit,omitempty"`
}

// Context carries caller information into a handler
type Context struct {
	UserID    string         `json:"userId,omitempty"`
	AuthToken string         `json:"authToken,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Result is what a handler produces
type Result struct {
	Success  bool           `json:"success"`
	Data     any            `json:"data,omitempty"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Handler runs a skill
type Handler func(ctx context.Context, input map[string]any, sc *Context) (*Result, error)

// Skill pairs a definition with its handler
type Skill struct {
	Definition Definition
	Handler    Handler
}
