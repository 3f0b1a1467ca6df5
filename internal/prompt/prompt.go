// Package prompt implements the Prompt Handler: the engine's abstraction
// for asking a human (or an automated responder) for a value, per
// spec.md §4.5. Grounded on the teacher's interactive CLI input pattern
// (cmd/main/cli.go's survey-style prompts, since deleted from this tree
// once cmd/lacewing was rebuilt to the spec's smaller CLI surface) and
// generalized behind a Responder interface so the Executor never talks to
// a terminal directly.
package prompt

import (
	"context"

	lwerrors "lacewing/internal/errors"
	"lacewing/internal/provider"
)

// Type enumerates the prompt kinds spec.md §4.5 names.
type Type string

const (
	Text    Type = "text"
	Confirm Type = "confirm"
	Select  Type = "select"
)

// Request is one Ask invocation.
type Request struct {
	Message string
	Type    Type
	Default any
	Options []string
	// Dynamic requests LLM reinterpretation of a text response, when an
	// LLM provider is configured and Type == Text.
	Dynamic bool
}

// Response carries both the raw responder answer and, for dynamic text
// prompts, the LLM-reinterpreted value.
type Response struct {
	Raw         any
	Interpreted string
}

// Responder supplies the raw answer to a prompt. The CLI front-end
// implements this over a terminal; tests and the inspector UI can supply
// their own.
type Responder interface {
	Respond(ctx context.Context, req Request) (any, error)
}

// Handler implements spec.md §4.5's Ask/Confirm/Select surface.
type Handler struct {
	responder Responder
	provider  provider.Provider // nil when no LLM provider is configured
}

// New constructs a Handler. provider may be nil.
func New(responder Responder, llm provider.Provider) *Handler {
	return &Handler{responder: responder, provider: llm}
}

// Ask implements the general prompt operation, including the
// empty-input-returns-default rule and dynamic reinterpretation.
func (h *Handler) Ask(ctx context.Context, req Request) (Response, error) {
	raw, err := h.responder.Respond(ctx, req)
	if err != nil {
		return Response{}, lwerrors.ProviderWrap(err, "prompt responder failed")
	}

	if req.Type == Text {
		if s, ok := raw.(string); ok && s == "" && req.Default != nil {
			raw = req.Default
		}
	}

	if req.Type == Select {
		if err := validateSelectOption(raw, req.Options); err != nil {
			return Response{}, err
		}
	}

	resp := Response{Raw: raw}
	if req.Type == Text && req.Dynamic && h.provider != nil {
		if s, ok := raw.(string); ok {
			interpreted, err := provider.Interpret(ctx, h.provider, s, req.Message)
			if err != nil {
				return Response{}, err
			}
			resp.Interpreted = interpreted
		}
	}
	return resp, nil
}

// Confirm asks a yes/no question.
func (h *Handler) Confirm(ctx context.Context, message string, defaultValue any) (bool, error) {
	resp, err := h.Ask(ctx, Request{Message: message, Type: Confirm, Default: defaultValue})
	if err != nil {
		return false, err
	}
	b, ok := resp.Raw.(bool)
	if !ok {
		return false, lwerrors.Validation("confirm prompt returned a non-boolean value")
	}
	return b, nil
}

// Select asks the user to pick one of options.
func (h *Handler) Select(ctx context.Context, message string, options []string) (string, error) {
	resp, err := h.Ask(ctx, Request{Message: message, Type: Select, Options: options})
	if err != nil {
		return "", err
	}
	s, ok := resp.Raw.(string)
	if !ok {
		return "", lwerrors.Validation("select prompt returned a non-string value")
	}
	return s, nil
}

func validateSelectOption(raw any, options []string) error {
	s, ok := raw.(string)
	if !ok {
		return lwerrors.Validation("select prompt expects a string answer")
	}
	for _, opt := range options {
		if opt == s {
			return nil
		}
	}
	return lwerrors.Validation("selected option %q is not among the offered options %v", s, options)
}
