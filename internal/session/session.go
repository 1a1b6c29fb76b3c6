// Package session finishes a test attempt: the result is saved to local
// history first, then sent to the backend together with a roadmap refresh.
// Backend failures never lose the local record.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/eysh-app/eysh/internal/api"
	"github.com/eysh-app/eysh/internal/roadmap"
	"github.com/eysh-app/eysh/internal/scoring"
	"github.com/eysh-app/eysh/internal/store"
)

// DefaultHistoryLimit is how many local records Save keeps.
const DefaultHistoryLimit = 200

// ErrNoBackend is reported by Sync when no logged-in client was given.
var ErrNoBackend = errors.New("not logged in; result kept locally")

// Backend is the part of the API client the finish flow needs.
type Backend interface {
	Submit(ctx context.Context, sub scoring.Submission) (*api.TestResult, error)
	GenerateRoadmap(ctx context.Context) (*roadmap.Roadmap, error)
}

// SyncResult reports what the backend accepted.
type SyncResult struct {
	Submitted bool
	Server    *api.TestResult
	Roadmap   *roadmap.Roadmap
	Err       error // first failure, nil when everything went through
}

// Finisher saves and submits finished tests.
type Finisher struct {
	history store.HistoryRepo
	backend Backend
	now     func() time.Time

	// Limit caps local history; zero keeps everything.
	Limit int
}

// NewFinisher creates a Finisher. backend may be nil when logged out, in
// which case Sync only reports that nothing was sent.
func NewFinisher(history store.HistoryRepo, backend Backend) *Finisher {
	return &Finisher{history: history, backend: backend, now: time.Now, Limit: DefaultHistoryLimit}
}

// Save records res locally under id and trims old history.
func (f *Finisher) Save(ctx context.Context, id string, res scoring.Result) (*store.HistoryRecord, error) {
	rec := store.NewHistoryRecord(res, f.now())
	rec.ID = id
	if err := f.history.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("save history: %w", err)
	}
	if f.Limit > 0 {
		if err := f.history.Prune(ctx, f.Limit); err != nil {
			slog.Warn("prune history", "err", err)
		}
	}
	return rec, nil
}

// Sync submits res to the backend and asks for a fresh roadmap. The record
// with id is marked submitted once the backend accepts the answers. The
// roadmap call runs even when the submit fails so that an existing
// server-side history still yields a plan.
func (f *Finisher) Sync(ctx context.Context, id string, res scoring.Result) SyncResult {
	var out SyncResult
	if f.backend == nil {
		out.Err = ErrNoBackend
		return out
	}

	server, err := f.backend.Submit(ctx, res.Submission())
	if err != nil {
		slog.Warn("submit test results", "id", id, "err", err)
		out.Err = fmt.Errorf("submit results: %w", err)
	} else {
		out.Submitted = true
		out.Server = server
		if err := f.history.MarkSubmitted(ctx, id); err != nil {
			slog.Warn("mark history submitted", "id", id, "err", err)
		}
	}

	rm, err := f.backend.GenerateRoadmap(ctx)
	if err != nil {
		slog.Warn("generate roadmap", "err", err)
		if out.Err == nil {
			out.Err = fmt.Errorf("generate roadmap: %w", err)
		}
	} else {
		out.Roadmap = rm
	}
	return out
}

// Finish is Save followed by Sync. A Save failure is returned; Sync
// problems are only reported in the SyncResult.
func (f *Finisher) Finish(ctx context.Context, id string, res scoring.Result) (*store.HistoryRecord, SyncResult, error) {
	rec, err := f.Save(ctx, id, res)
	if err != nil {
		return nil, SyncResult{}, err
	}
	return rec, f.Sync(ctx, id, res), nil
}
