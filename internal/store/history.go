package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/eysh-app/eysh/internal/scoring"
)

const historyTable = "history"

var historyColumns = []string{
	"id", "sequence", "taken_at", "score", "total", "correct", "level",
	"weak_topics", "topics", "average_time", "submitted",
}

// historyRepo implements HistoryRepo with the ent SQL builder.
type historyRepo struct {
	drv *entsql.Driver
	seq *meta
}

func builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.SQLite)
}

// NewHistoryRecord captures a scored result taken at t.
func NewHistoryRecord(res scoring.Result, t time.Time) *HistoryRecord {
	return &HistoryRecord{
		TakenAt:     t,
		Score:       res.Score,
		Total:       res.TotalQuestions,
		Correct:     res.CorrectCount,
		Level:       res.PredictedLevel,
		WeakTopics:  res.WeakTopics,
		Topics:      res.Topics,
		AverageTime: res.AverageTime,
	}
}

func (r *historyRepo) Save(ctx context.Context, rec *HistoryRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.TakenAt.IsZero() {
		rec.TakenAt = time.Now()
	}
	weak := rec.WeakTopics
	if weak == nil {
		weak = []string{}
	}
	weakJSON, err := json.Marshal(weak)
	if err != nil {
		return fmt.Errorf("marshal weak topics: %w", err)
	}
	topics := rec.Topics
	if topics == nil {
		topics = map[string]scoring.Stat{}
	}
	topicsJSON, err := json.Marshal(topics)
	if err != nil {
		return fmt.Errorf("marshal topics: %w", err)
	}

	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	query, args := builder().Insert(historyTable).
		Columns(historyColumns...).
		Values(rec.ID, seqNum, rec.TakenAt.UnixMilli(), rec.Score, rec.Total, rec.Correct,
			rec.Level, string(weakJSON), string(topicsJSON), rec.AverageTime, rec.Submitted).
		Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("save history record: %w", err)
	}
	rec.Sequence = seqNum
	return nil
}

func (r *historyRepo) Get(ctx context.Context, id string) (*HistoryRecord, error) {
	b := builder()
	query, args := b.Select(historyColumns...).
		From(b.Table(historyTable)).
		Where(entsql.EQ("id", id)).
		Limit(1).
		Query()
	recs, err := r.query(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("query history record: %w", err)
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return &recs[0], nil
}

func (r *historyRepo) List(ctx context.Context, opts QueryOpts) ([]HistoryRecord, error) {
	b := builder()
	sel := b.Select(historyColumns...).
		From(b.Table(historyTable)).
		OrderBy(entsql.Desc("sequence"))

	var preds []*entsql.Predicate
	if !opts.From.IsZero() {
		preds = append(preds, entsql.GTE("taken_at", opts.From.UnixMilli()))
	}
	if !opts.To.IsZero() {
		preds = append(preds, entsql.LTE("taken_at", opts.To.UnixMilli()))
	}
	if len(preds) > 0 {
		sel = sel.Where(entsql.And(preds...))
	}
	if opts.Limit > 0 {
		sel = sel.Limit(opts.Limit)
	}

	query, args := sel.Query()
	recs, err := r.query(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	return recs, nil
}

func (r *historyRepo) MarkSubmitted(ctx context.Context, id string) error {
	query, args := builder().Update(historyTable).
		Set("submitted", true).
		Where(entsql.EQ("id", id)).
		Query()
	var res sql.Result
	if err := r.drv.Exec(ctx, query, args, &res); err != nil {
		return fmt.Errorf("mark submitted: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark submitted: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("history record %s not found", id)
	}
	return nil
}

func (r *historyRepo) Count(ctx context.Context) (int, error) {
	b := builder()
	query, args := b.Select(entsql.Count("*")).From(b.Table(historyTable)).Query()

	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, query, args, rows); err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	defer rows.Close()

	var n int
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, fmt.Errorf("count history: %w", err)
		}
	}
	return n, rows.Err()
}

func (r *historyRepo) Prune(ctx context.Context, keep int) error {
	b := builder()
	query, args := b.Select("sequence").
		From(b.Table(historyTable)).
		OrderBy(entsql.Desc("sequence")).
		Offset(keep).
		Limit(1).
		Query()

	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, query, args, rows); err != nil {
		return fmt.Errorf("query history for prune: %w", err)
	}
	var threshold int64
	found := rows.Next()
	if found {
		if err := rows.Scan(&threshold); err != nil {
			rows.Close()
			return fmt.Errorf("query history for prune: %w", err)
		}
	}
	rows.Close()
	if !found {
		return nil // fewer than keep records exist
	}

	query, args = builder().Delete(historyTable).
		Where(entsql.LTE("sequence", threshold)).
		Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("prune history: %w", err)
	}
	return nil
}

func (r *historyRepo) query(ctx context.Context, query string, args []any) ([]HistoryRecord, error) {
	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, query, args, rows); err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []HistoryRecord
	for rows.Next() {
		var (
			rec        HistoryRecord
			takenAt    int64
			weakJSON   string
			topicsJSON string
		)
		if err := rows.Scan(&rec.ID, &rec.Sequence, &takenAt, &rec.Score, &rec.Total,
			&rec.Correct, &rec.Level, &weakJSON, &topicsJSON, &rec.AverageTime, &rec.Submitted); err != nil {
			return nil, err
		}
		rec.TakenAt = time.UnixMilli(takenAt)
		if err := json.Unmarshal([]byte(weakJSON), &rec.WeakTopics); err != nil {
			return nil, fmt.Errorf("unmarshal weak topics: %w", err)
		}
		if err := json.Unmarshal([]byte(topicsJSON), &rec.Topics); err != nil {
			return nil, fmt.Errorf("unmarshal topics: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
