// Package model defines the provider-neutral chat interface the workflow
// steps use for language-model assisted parsing and recommendations, plus a
// deterministic MockModel for tests. Provider backends live in the anthropic
// and openai subpackages.
package model

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Message is one chat turn sent to a provider.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Request is the normalized model input produced by steps. The engine
// consumes whole messages; streaming is deliberately out of scope.
type Request struct {
	Instructions string    `json:"instructions,omitempty"` // system prompt
	Messages     []Message `json:"messages"`
}

// Response is the final completion returned by a provider.
type Response struct {
	Content      string `json:"content"`
	FinishReason string `json:"finish_reason,omitempty"` // "stop", "length", ...
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", ...
}

// Model is the minimal interface steps use to drive generation.
type Model interface {
	Chat(ctx context.Context, req Request) (Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// ChatJSON sends a single-prompt request and extracts the first JSON object
// from the completion. Steps use it for structured parsing of user input.
func ChatJSON(ctx context.Context, m Model, instructions, prompt string) (map[string]any, error) {
	resp, err := m.Chat(ctx, Request{
		Instructions: instructions,
		Messages:     []Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return nil, fmt.Errorf("model chat: %w", err)
	}
	obj, err := ExtractJSON(resp.Content)
	if err != nil {
		return nil, fmt.Errorf("parse model response: %w", err)
	}
	return obj, nil
}

// MockModel is a lightweight in-memory Model useful for tests and examples.
// Responses are matched on prompt substrings in registration order.
type MockModel struct {
	mu        sync.Mutex
	info      Info
	responses []mockResponse
}

type mockResponse struct {
	match    string
	response string
}

// NewMockModel constructs a MockModel.
func NewMockModel(name string) *MockModel {
	return &MockModel{info: Info{Name: name, Provider: "mock"}}
}

// AddResponse registers a canned completion returned when the last user
// message contains match. An empty match string matches any prompt.
func (m *MockModel) AddResponse(match, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, mockResponse{match: match, response: response})
}

// Chat implements Model.
func (m *MockModel) Chat(_ context.Context, req Request) (Response, error) {
	if len(req.Messages) == 0 {
		return Response{}, fmt.Errorf("no messages provided")
	}
	last := req.Messages[len(req.Messages)-1].Content

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.responses {
		if r.match == "" || strings.Contains(last, r.match) {
			return Response{Content: r.response, FinishReason: "stop"}, nil
		}
	}
	return Response{Content: fmt.Sprintf("Mock response to: %s", last), FinishReason: "stop"}, nil
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
