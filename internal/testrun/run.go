// Package testrun tracks a test while it is being taken: which question is
// on screen, the option the learner has highlighted, flags, and how long
// each question has been looked at. Answers are recorded when the learner
// moves off a question.
package testrun

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/eysh-app/eysh/internal/scoring"
)

// Phase is the lifecycle phase of a run.
type Phase int

const (
	PhaseActive   Phase = iota // Questions being answered
	PhaseFinished              // Finish called, result computed
)

var (
	// ErrFinished is returned by operations on a finished run.
	ErrFinished = errors.New("test already finished")

	// ErrNoQuestions is returned by New when there is nothing to ask.
	ErrNoQuestions = errors.New("test has no questions")
)

// Run is the state of one test attempt. It is not safe for concurrent use;
// the screen that owns it drives it from a single goroutine.
type Run struct {
	// ID identifies this attempt in local history.
	ID string

	questions []scoring.Question
	current   int
	phase     Phase

	highlighted map[string]int
	flagged     map[string]bool
	spent       map[string]time.Duration
	sheet       *scoring.AnswerSheet

	now       func() time.Time
	startedAt time.Time
	shownAt   time.Time
	endedAt   time.Time
}

// Option configures a Run.
type Option func(*Run)

// WithClock overrides the clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Run) { r.now = now }
}

// New starts a run over questions. The first question is shown immediately.
func New(questions []scoring.Question, opts ...Option) (*Run, error) {
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	r := &Run{
		ID:          uuid.NewString(),
		questions:   append([]scoring.Question(nil), questions...),
		highlighted: make(map[string]int),
		flagged:     make(map[string]bool),
		spent:       make(map[string]time.Duration),
		sheet:       &scoring.AnswerSheet{},
		now:         time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	r.startedAt = r.now()
	r.shownAt = r.startedAt
	return r, nil
}

// Len is the number of questions.
func (r *Run) Len() int { return len(r.questions) }

// Index is the position of the question on screen.
func (r *Run) Index() int { return r.current }

// Phase returns the current phase.
func (r *Run) Phase() Phase { return r.phase }

// Current returns the question on screen.
func (r *Run) Current() scoring.Question { return r.questions[r.current] }

// Question returns the question at i.
func (r *Run) Question(i int) scoring.Question { return r.questions[i] }

// Questions returns every question in order.
func (r *Run) Questions() []scoring.Question {
	return append([]scoring.Question(nil), r.questions...)
}

// Select highlights option for the current question. Nothing is recorded
// until the learner moves on.
func (r *Run) Select(option int) error {
	if r.phase == PhaseFinished {
		return ErrFinished
	}
	q := r.Current()
	if option < 0 || option >= len(q.Options) {
		return fmt.Errorf("option %d out of range [0,%d)", option, len(q.Options))
	}
	r.highlighted[q.ID] = option
	return nil
}

// Selected returns the highlighted option for the current question.
func (r *Run) Selected() (int, bool) {
	opt, ok := r.highlighted[r.Current().ID]
	return opt, ok
}

// Next moves to the following question. It reports false on the last one.
func (r *Run) Next() bool {
	if r.phase == PhaseFinished || r.current >= len(r.questions)-1 {
		return false
	}
	r.leave()
	r.current++
	return true
}

// Prev moves to the preceding question. It reports false on the first one.
func (r *Run) Prev() bool {
	if r.phase == PhaseFinished || r.current == 0 {
		return false
	}
	r.leave()
	r.current--
	return true
}

// Jump moves straight to question i.
func (r *Run) Jump(i int) error {
	if r.phase == PhaseFinished {
		return ErrFinished
	}
	if i < 0 || i >= len(r.questions) {
		return fmt.Errorf("question %d out of range [0,%d)", i, len(r.questions))
	}
	if i == r.current {
		return nil
	}
	r.leave()
	r.current = i
	return nil
}

// Flag toggles the review flag on the current question and moves on to the
// next one when there is one.
func (r *Run) Flag() {
	if r.phase == PhaseFinished {
		return
	}
	id := r.Current().ID
	r.flagged[id] = !r.flagged[id]
	if !r.Next() {
		r.leave()
	}
}

// Finish records the current question and scores the attempt.
func (r *Run) Finish() (*scoring.AnswerSheet, scoring.Result) {
	if r.phase != PhaseFinished {
		r.leave()
		r.phase = PhaseFinished
		r.endedAt = r.now()
	}
	return r.sheet, scoring.Score(r.questions, r.sheet.Answers())
}

// leave closes the current viewing interval and records the answer if an
// option is highlighted. Time on a question accumulates over revisits.
func (r *Run) leave() {
	now := r.now()
	q := r.Current()
	r.spent[q.ID] += now.Sub(r.shownAt)
	r.shownAt = now

	if opt, ok := r.highlighted[q.ID]; ok {
		r.sheet.Record(scoring.NewAnswer(q, opt, seconds(r.spent[q.ID])))
	}
}

// IsFlagged reports whether question i is flagged for review.
func (r *Run) IsFlagged(i int) bool { return r.flagged[r.questions[i].ID] }

// IsAnswered reports whether question i has a recorded answer.
func (r *Run) IsAnswered(i int) bool {
	_, ok := r.sheet.Get(r.questions[i].ID)
	return ok
}

// Answered counts recorded answers.
func (r *Run) Answered() int { return r.sheet.Len() }

// Flagged counts flagged questions.
func (r *Run) Flagged() int {
	n := 0
	for _, f := range r.flagged {
		if f {
			n++
		}
	}
	return n
}

// Elapsed is the time since the run started, frozen once finished.
func (r *Run) Elapsed() time.Duration {
	if r.phase == PhaseFinished {
		return r.endedAt.Sub(r.startedAt)
	}
	return r.now().Sub(r.startedAt)
}

// QuestionElapsed is the total time spent on the current question so far,
// including earlier visits.
func (r *Run) QuestionElapsed() time.Duration {
	d := r.spent[r.Current().ID]
	if r.phase == PhaseActive {
		d += r.now().Sub(r.shownAt)
	}
	return d
}

// Remaining is the current question's allowance minus the time spent on it.
// It is informational; nothing happens when it reaches zero.
func (r *Run) Remaining() time.Duration {
	left := r.Current().TimeAllowance() - r.QuestionElapsed()
	if left < 0 {
		return 0
	}
	return left
}

// StartedAt is when the run began.
func (r *Run) StartedAt() time.Time { return r.startedAt }

func seconds(d time.Duration) int {
	return int(d.Round(time.Second) / time.Second)
}
