package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func openAIServer(t *testing.T, status int, body any, seen *map[string]any) *OpenAIProvider {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			json.NewDecoder(r.Body).Decode(seen)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(server.Close)

	p, err := NewOpenAIProvider(ProviderConfig{APIKey: "test-key", Model: "gpt-4o-mini", BaseURL: server.URL + "/v1"})
	if err != nil {
		t.Fatalf("NewOpenAIProvider: %v", err)
	}
	return p
}

func completion(content, finish string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": finish,
		}},
		"usage": map[string]any{"prompt_tokens": 40, "completion_tokens": 25, "total_tokens": 65},
	}
}

func TestOpenAIProvider_Generate(t *testing.T) {
	var seen map[string]any
	p := openAIServer(t, http.StatusOK, completion(`{"tips":[]}`, "stop"), &seen)

	resp, err := p.Generate(context.Background(), Request{
		System:    "coach",
		Messages:  UserPrompt("tips"),
		Schema:    tipsSchema(),
		MaxTokens: 256,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Usage.InputTokens != 40 || resp.Usage.OutputTokens != 25 {
		t.Fatalf("usage = %+v", resp.Usage)
	}
	if resp.StopReason != "end" {
		t.Fatalf("stop reason = %q", resp.StopReason)
	}

	msgs, _ := seen["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("expected system and user messages, got %d", len(msgs))
	}
	format, _ := seen["response_format"].(map[string]any)
	if format["type"] != "json_schema" {
		t.Fatalf("response_format = %v", format)
	}
}

func TestOpenAIProvider_SchemaMismatch(t *testing.T) {
	p := openAIServer(t, http.StatusOK, completion(`{"advice":"study"}`, "stop"), nil)

	_, err := p.Generate(context.Background(), Request{Messages: UserPrompt("tips"), Schema: tipsSchema(), MaxTokens: 64})
	var invalid *ErrInvalidResponse
	if !errors.As(err, &invalid) {
		t.Fatalf("expected ErrInvalidResponse, got %T (%v)", err, err)
	}
}

func TestOpenAIProvider_FreeTextSkipsValidation(t *testing.T) {
	p := openAIServer(t, http.StatusOK, completion("just text", "length"), nil)

	resp, err := p.Generate(context.Background(), Request{Messages: UserPrompt("hi"), MaxTokens: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StopReason != "max_tokens" || string(resp.Content) != "just text" {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestOpenAIProvider_ErrorMapping(t *testing.T) {
	errBody := map[string]any{"error": map[string]any{"type": "x", "message": "boom"}}

	p := openAIServer(t, http.StatusTooManyRequests, errBody, nil)
	_, err := p.Generate(context.Background(), Request{Messages: UserPrompt("x"), MaxTokens: 10})
	var rl *ErrRateLimit
	if !errors.As(err, &rl) {
		t.Fatalf("429: expected ErrRateLimit, got %T (%v)", err, err)
	}

	p = openAIServer(t, http.StatusBadGateway, errBody, nil)
	_, err = p.Generate(context.Background(), Request{Messages: UserPrompt("x"), MaxTokens: 10})
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("502: expected ErrProviderUnavailable, got %T (%v)", err, err)
	}
}
