package store

import (
	"context"
	"time"

	"github.com/eysh-app/eysh/internal/scoring"
)

// QueryOpts configures history queries with filtering and pagination.
type QueryOpts struct {
	Limit int       // max results (0 = unlimited)
	From  time.Time // taken_at >= From
	To    time.Time // taken_at <= To
}

// HistoryRecord is one locally scored test.
type HistoryRecord struct {
	ID          string                  `json:"id"`
	Sequence    int64                   `json:"sequence"`
	TakenAt     time.Time               `json:"taken_at"`
	Score       float64                 `json:"score"`
	Total       int                     `json:"total_questions"`
	Correct     int                     `json:"correct_count"`
	Level       int                     `json:"predicted_level"`
	WeakTopics  []string                `json:"weak_topics"`
	Topics      map[string]scoring.Stat `json:"topics"`
	AverageTime int                     `json:"average_time"`
	Submitted   bool                    `json:"submitted"`
}

// HistoryRepo manages locally saved test results.
type HistoryRepo interface {
	// Save stores a record. An empty ID is filled with a new UUID and the
	// sequence is assigned on insert.
	Save(ctx context.Context, rec *HistoryRecord) error

	// Get returns the record with id, or nil if absent.
	Get(ctx context.Context, id string) (*HistoryRecord, error)

	// List returns records newest first.
	List(ctx context.Context, opts QueryOpts) ([]HistoryRecord, error)

	// MarkSubmitted flags a record as accepted by the backend.
	MarkSubmitted(ctx context.Context, id string) error

	// Count returns the number of saved records.
	Count(ctx context.Context) (int, error)

	// Prune deletes all but the keep most recent records.
	Prune(ctx context.Context, keep int) error
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEvent is a stored LLM request.
type LLMRequestEvent struct {
	LLMRequestEventData
	ID        int64
	Sequence  int64
	Timestamp time.Time
}

// EventRepo provides append and read access to LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// RecentLLMRequests returns up to limit events, newest first.
	RecentLLMRequests(ctx context.Context, limit int) ([]LLMRequestEvent, error)
}
