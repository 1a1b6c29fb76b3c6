// Package llm is a small provider-neutral layer over the Anthropic, OpenAI
// and Gemini SDKs. Callers describe a prompt and an optional JSON schema and
// get back validated JSON.
package llm

import (
	"context"
	"encoding/json"
)

// Provider generates a response for a prompt.
type Provider interface {
	// Generate sends req and returns the model output. When req.Schema is
	// set the output has been validated against it.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID names the configured model.
	ModelID() string
}

// Request is one prompt.
type Request struct {
	System    string
	Messages  []Message
	Schema    *Schema // nil for free text
	MaxTokens int

	// Temperature in [0, 1]; zero leaves the provider default.
	Temperature float64

	// Purpose labels the call in the request log, e.g. "study-tips".
	Purpose string
}

// purpose is req.Purpose, or "unknown" when unset.
func (req Request) purpose() string {
	if req.Purpose == "" {
		return "unknown"
	}
	return req.Purpose
}

// Message is one conversation turn.
type Message struct {
	Role    Role
	Content string
}

// Role is the sender of a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// UserPrompt is a single-turn request body.
func UserPrompt(content string) []Message {
	return []Message{{Role: RoleUser, Content: content}}
}

// Schema is the JSON shape a response must have. Name is kebab-case and is
// used as the tool or schema name by providers that need one.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// Response is the model output.
type Response struct {
	// Content is the validated JSON object when a Schema was given, or the
	// raw text otherwise.
	Content json.RawMessage
	Usage   Usage
	Model   string

	// StopReason is "end" or "max_tokens".
	StopReason string
}

// Usage is the token count of one call.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Decode unmarshals the response content into v.
func (r *Response) Decode(v any) error {
	return json.Unmarshal(r.Content, v)
}
