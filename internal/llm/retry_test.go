package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func retryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: 1 * time.Millisecond,
		MaxWait:     10 * time.Millisecond,
		Multiplier:  2.0,
	}
}

func tipRequest() Request {
	return Request{
		System:   "study coach",
		Messages: UserPrompt("Weak topics: Алгебр, Геометр"),
		Schema:   tipsSchema(),
		Purpose:  "study-tips",
	}
}

const (
	goodTips    = `{"tips":[{"topic":"Алгебр","tip":"Өдөр бүр 5 тэгшитгэл бод."}]}`
	tipsNoTopic = `{"tips":[{"tip":"Давт."}]}`
	tipsAsText  = `{"tips":"Давт."}`
)

func TestRetry_StudyTipFailures(t *testing.T) {
	down := func() MockResponse { return MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("503")}} }
	tips := func(body string) MockResponse { return MockResponse{Content: json.RawMessage(body)} }

	tests := []struct {
		name      string
		replies   []MockResponse
		wantCalls int
		wantErr   any // pointer to the expected error type, nil for success
	}{
		{
			name:      "tips on first attempt",
			replies:   []MockResponse{tips(goodTips)},
			wantCalls: 1,
		},
		{
			name:      "outage then tips",
			replies:   []MockResponse{down(), tips(goodTips)},
			wantCalls: 2,
		},
		{
			name:      "outage on every attempt",
			replies:   []MockResponse{down(), down(), down(), tips(goodTips)},
			wantCalls: 3,
			wantErr:   new(*ErrProviderUnavailable),
		},
		{
			name:      "tip without topic is asked again once",
			replies:   []MockResponse{tips(tipsNoTopic), tips(goodTips)},
			wantCalls: 2,
		},
		{
			name:      "schema failures stop after one retry",
			replies:   []MockResponse{tips(tipsAsText), tips(tipsNoTopic), tips(goodTips)},
			wantCalls: 2,
			wantErr:   new(*ErrInvalidResponse),
		},
		{
			name:      "truncated tips are not retried",
			replies:   []MockResponse{{Err: &ErrMaxTokensExceeded{Content: json.RawMessage(`{"tips":[{"topic":"Ал`)}}, tips(goodTips)},
			wantCalls: 1,
			wantErr:   new(*ErrMaxTokensExceeded),
		},
		{
			name:      "rejected key is not retried",
			replies:   []MockResponse{{Err: &ErrRejected{Status: 401, Err: errors.New("bad key")}}, tips(goodTips)},
			wantCalls: 1,
			wantErr:   new(*ErrRejected),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockProvider(tt.replies...)
			resp, err := WithRetry(mock, retryConfig()).Generate(context.Background(), tipRequest())

			if got := mock.CallCount(); got != tt.wantCalls {
				t.Fatalf("calls = %d, want %d", got, tt.wantCalls)
			}
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				var out struct {
					Tips []struct{ Topic, Tip string }
				}
				if err := resp.Decode(&out); err != nil || len(out.Tips) != 1 || out.Tips[0].Topic != "Алгебр" {
					t.Fatalf("decoded tips = %+v, err %v", out, err)
				}
				return
			}
			if !errors.As(err, tt.wantErr) {
				t.Fatalf("error = %T (%v), want %T", err, err, tt.wantErr)
			}
		})
	}
}

func TestRetry_RequestReachesEveryAttempt(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("503")}},
		MockResponse{Content: json.RawMessage(goodTips)},
	)
	if _, err := WithRetry(mock, retryConfig()).Generate(context.Background(), tipRequest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, call := range mock.Calls {
		if call.Purpose != "study-tips" || call.Schema == nil || len(call.Messages) != 1 {
			t.Fatalf("attempt %d lost the request: %+v", i+1, call)
		}
	}
}

func TestRetry_CancelledDuringBackoff(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}},
		MockResponse{Content: json.RawMessage(`{"ok":true}`)},
	)
	cfg := retryConfig()
	cfg.InitialWait = time.Hour
	cfg.MaxWait = time.Hour
	p := WithRetry(mock, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Generate(ctx, Request{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 call, got %d", mock.CallCount())
	}
}

func TestRetry_CancellationNotRetried(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: context.Canceled},
		MockResponse{Content: json.RawMessage(`{"ok":true}`)},
	)
	p := WithRetry(mock, retryConfig())

	if _, err := p.Generate(context.Background(), Request{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 call, got %d", mock.CallCount())
	}
}

func TestRetry_ZeroAttemptsMeansOne(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: &ErrProviderUnavailable{}})
	p := WithRetry(mock, RetryConfig{})

	if _, err := p.Generate(context.Background(), Request{}); err == nil {
		t.Fatal("expected error")
	}
	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 call, got %d", mock.CallCount())
	}
}

func TestRetry_BackoffBounds(t *testing.T) {
	r := &RetryProvider{config: RetryConfig{InitialWait: 100 * time.Millisecond, MaxWait: time.Second, Multiplier: 2}}
	for attempt := range 6 {
		d := r.backoff(attempt, errors.New("x"))
		if d < 0 || d > 1200*time.Millisecond {
			t.Fatalf("attempt %d: backoff %s out of bounds", attempt, d)
		}
	}
	if d := r.backoff(0, &ErrRateLimit{RetryAfter: 7 * time.Second}); d != 7*time.Second {
		t.Fatalf("RetryAfter ignored: %s", d)
	}
}

func TestRetry_RateLimitRespectsRetryAfter(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrRateLimit{RetryAfter: 1 * time.Millisecond, Err: errors.New("429")}},
		MockResponse{Content: json.RawMessage(`{"ok":true}`)},
	)
	p := WithRetry(mock, retryConfig())

	resp, err := p.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Content) != `{"ok":true}` {
		t.Fatalf("unexpected content: %s", resp.Content)
	}
	if mock.CallCount() != 2 {
		t.Fatalf("expected 2 calls, got %d", mock.CallCount())
	}
}

func TestRetry_ModelIDDelegates(t *testing.T) {
	mock := NewMockProvider()
	p := WithRetry(mock, retryConfig())
	if p.ModelID() != "mock" {
		t.Fatalf("expected 'mock', got %q", p.ModelID())
	}
}
