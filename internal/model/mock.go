package model

import "context"

// MockProvider returns a canned reply. Used in tests and for running the
// service without any API key.
type MockProvider struct {
	Reply string
}

func NewMockProvider(reply string) *MockProvider {
	if reply == "" {
		reply = "This is a mock reply; no model provider is configured."
	}
	return &MockProvider{Reply: reply}
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) Generate(ctx context.Context, prompt string, opts Options) (*Response, error) {
	return &Response{Text: m.Reply}, nil
}
