// Package advisor turns a scored test into study tips for its weak topics.
package advisor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/eysh-app/eysh/internal/llm"
	"github.com/eysh-app/eysh/internal/scoring"
)

// Tip is advice for one topic.
type Tip struct {
	Topic string `json:"topic"`
	Tip   string `json:"tip"`
}

// Advice is the outcome of Advise. Generated is false when the static
// fallback was used.
type Advice struct {
	Tips      []Tip `json:"tips"`
	Generated bool  `json:"generated"`
}

// Service produces study tips. A nil provider always uses the fallback.
type Service struct {
	provider llm.Provider
	cfg      Config
}

// NewService creates an advisor. provider may be nil.
func NewService(provider llm.Provider, cfg Config) *Service {
	return &Service{provider: provider, cfg: cfg}
}

type tipsOutput struct {
	Tips []Tip `json:"tips"`
}

// Advise returns one tip per weak topic of result. Provider failures are
// logged and answered with static tips; Advise itself only fails when ctx
// is done.
func (s *Service) Advise(ctx context.Context, result scoring.Result) (Advice, error) {
	topics := result.WeakTopics
	if s.cfg.MaxTopics > 0 && len(topics) > s.cfg.MaxTopics {
		topics = topics[:s.cfg.MaxTopics]
	}
	if len(topics) == 0 {
		return Advice{}, nil
	}
	if s.provider == nil {
		return fallback(topics), nil
	}

	tips, err := s.generate(ctx, result, topics)
	if err != nil {
		if ctx.Err() != nil {
			return Advice{}, ctx.Err()
		}
		slog.Warn("study tips unavailable, using defaults", "err", err)
		return fallback(topics), nil
	}
	return Advice{Tips: tips, Generated: true}, nil
}

func (s *Service) generate(ctx context.Context, result scoring.Result, topics []string) ([]Tip, error) {
	resp, err := s.provider.Generate(ctx, llm.Request{
		System:      systemPrompt,
		Messages:    llm.UserPrompt(buildUserMessage(result, topics)),
		Schema:      TipsSchema,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
		Purpose:     "study-tips",
	})
	if err != nil {
		return nil, fmt.Errorf("study tips: %w", err)
	}

	var out tipsOutput
	if err := resp.Decode(&out); err != nil {
		return nil, fmt.Errorf("parse study tips: %w", err)
	}
	return merge(topics, out.Tips), nil
}

// merge keeps the model's tips in weak-topic order and fills topics the
// model skipped or renamed with the static tip.
func merge(topics []string, generated []Tip) []Tip {
	byTopic := make(map[string]string, len(generated))
	for _, t := range generated {
		if _, dup := byTopic[t.Topic]; !dup && t.Tip != "" {
			byTopic[t.Topic] = t.Tip
		}
	}
	out := make([]Tip, len(topics))
	for i, topic := range topics {
		tip, ok := byTopic[topic]
		if !ok {
			tip = staticTip(topic)
		}
		out[i] = Tip{Topic: topic, Tip: tip}
	}
	return out
}

func fallback(topics []string) Advice {
	tips := make([]Tip, len(topics))
	for i, t := range topics {
		tips[i] = Tip{Topic: t, Tip: staticTip(t)}
	}
	return Advice{Tips: tips}
}

func staticTip(topic string) string {
	return fmt.Sprintf("%s сэдвийн онолыг давтаж, өдөрт 10 бодлого бодож алдаагаа шинжлээрэй.", topic)
}
