package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/eysh-app/eysh/internal/store"
)

type fakeEvents struct {
	events []store.LLMRequestEventData
	err    error
}

func (f *fakeEvents) AppendLLMRequest(_ context.Context, data store.LLMRequestEventData) error {
	f.events = append(f.events, data)
	return f.err
}

func (f *fakeEvents) RecentLLMRequests(_ context.Context, limit int) ([]store.LLMRequestEvent, error) {
	return nil, nil
}

func TestLoggingProvider_RecordsSuccess(t *testing.T) {
	events := &fakeEvents{}
	mock := NewMockProvider(MockResponse{
		Content: json.RawMessage(`{"tips":[]}`),
		Usage:   Usage{InputTokens: 12, OutputTokens: 3, TotalTokens: 15},
	})
	p := WithLogging(mock, ProviderOpenRouter, events)

	req := Request{System: "coach", Messages: UserPrompt("help"), Schema: tipsSchema(), Purpose: "study-tips"}
	if _, err := p.Generate(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(events.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events.events))
	}
	e := events.events[0]
	if e.Provider != ProviderOpenRouter || e.Model != "mock" || e.Purpose != "study-tips" {
		t.Fatalf("event = %+v", e)
	}
	if !e.Success || e.InputTokens != 12 || e.OutputTokens != 3 {
		t.Fatalf("event = %+v", e)
	}
	if e.ResponseBody != `{"tips":[]}` {
		t.Fatalf("response body = %q", e.ResponseBody)
	}
	for _, part := range []string{"[system]\ncoach", "[user]\nhelp", "[schema: test-study-tips]"} {
		if !strings.Contains(e.RequestBody, part) {
			t.Fatalf("request body missing %q:\n%s", part, e.RequestBody)
		}
	}
}

func TestLoggingProvider_RecordsFailure(t *testing.T) {
	events := &fakeEvents{}
	p := WithLogging(NewMockProvider(MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}}), ProviderGemini, events)

	if _, err := p.Generate(context.Background(), Request{}); err == nil {
		t.Fatal("expected error")
	}
	e := events.events[0]
	if e.Success || !strings.Contains(e.ErrorMessage, "down") || e.Purpose != "unknown" {
		t.Fatalf("event = %+v", e)
	}
}

func TestLoggingProvider_StoreFailureDoesNotFailCall(t *testing.T) {
	events := &fakeEvents{err: errors.New("disk full")}
	p := WithLogging(NewMockProvider(MockResponse{Content: json.RawMessage(`{}`)}), ProviderMock, events)

	if _, err := p.Generate(context.Background(), Request{}); err != nil {
		t.Fatalf("log failure leaked: %v", err)
	}
	if p.ModelID() != "mock" {
		t.Fatalf("ModelID = %q", p.ModelID())
	}
}
