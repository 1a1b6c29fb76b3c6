package testrun

import (
	"errors"
	"testing"
	"time"

	"github.com/eysh-app/eysh/internal/scoring"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time       { return c.t }
func (c *clock) tick(d time.Duration) { c.t = c.t.Add(d) }
func newClock() *clock                { return &clock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)} }
func correct(i int) *int              { return &i }
func testQuestions() []scoring.Question {
	return []scoring.Question{
		{ID: "q1", Topic: "algebra", Difficulty: scoring.Easy, Options: []string{"1", "2", "3", "4"}, CorrectAnswer: correct(0)},
		{ID: "q2", Topic: "geometry", Difficulty: scoring.Medium, Options: []string{"a", "b"}, CorrectAnswer: correct(1)},
		{ID: "q3", Topic: "algebra", Difficulty: scoring.Hard, Options: []string{"x", "y", "z"}, CorrectAnswer: correct(2), TimeLimit: 90},
	}
}

func newTestRun(t *testing.T) (*Run, *clock) {
	t.Helper()
	clk := newClock()
	r, err := New(testQuestions(), WithClock(clk.now))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r, clk
}

func TestNew_NoQuestions(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, ErrNoQuestions) {
		t.Fatalf("err = %v, want ErrNoQuestions", err)
	}
}

func TestNew_AssignsID(t *testing.T) {
	r, _ := newTestRun(t)
	if r.ID == "" {
		t.Fatal("expected a run ID")
	}
}

func TestNavigationRecordsOnLeave(t *testing.T) {
	r, clk := newTestRun(t)

	if err := r.Select(0); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if r.Answered() != 0 {
		t.Fatal("highlighting alone must not record an answer")
	}
	clk.tick(12 * time.Second)
	if !r.Next() {
		t.Fatal("Next returned false")
	}
	if r.Index() != 1 {
		t.Errorf("Index = %d, want 1", r.Index())
	}
	if !r.IsAnswered(0) {
		t.Fatal("question 0 should be answered after moving off it")
	}
	a, _ := r.sheet.Get("q1")
	if a.TimeSpent != 12 || !a.Correct {
		t.Errorf("answer = %+v, want 12s correct", a)
	}
}

func TestLeavingUnansweredRecordsNothing(t *testing.T) {
	r, clk := newTestRun(t)
	clk.tick(5 * time.Second)
	r.Next()
	if r.Answered() != 0 {
		t.Errorf("Answered = %d, want 0", r.Answered())
	}
}

func TestRevisitAccumulatesTimeAndOverwrites(t *testing.T) {
	r, clk := newTestRun(t)

	r.Select(1)
	clk.tick(10 * time.Second)
	r.Next()
	clk.tick(30 * time.Second) // on q2, not counted for q1
	r.Prev()

	if got := r.QuestionElapsed(); got != 10*time.Second {
		t.Errorf("QuestionElapsed on revisit = %v, want 10s", got)
	}
	if opt, ok := r.Selected(); !ok || opt != 1 {
		t.Errorf("Selected = %d,%v, want previous highlight 1", opt, ok)
	}

	r.Select(0)
	clk.tick(5 * time.Second)
	r.Next()

	if r.Answered() != 1 {
		t.Fatalf("Answered = %d, want 1", r.Answered())
	}
	a, _ := r.sheet.Get("q1")
	if a.Selected != 0 || a.TimeSpent != 15 || !a.Correct {
		t.Errorf("answer = %+v, want option 0 after 15s, correct", a)
	}
}

func TestBoundaries(t *testing.T) {
	r, _ := newTestRun(t)
	if r.Prev() {
		t.Error("Prev on first question should return false")
	}
	r.Jump(2)
	if r.Next() {
		t.Error("Next on last question should return false")
	}
	if err := r.Jump(3); err == nil {
		t.Error("Jump out of range should fail")
	}
	if err := r.Select(3); err == nil {
		t.Error("Select out of range should fail")
	}
}

func TestJumpRecords(t *testing.T) {
	r, clk := newTestRun(t)
	r.Select(3)
	clk.tick(2 * time.Second)
	if err := r.Jump(2); err != nil {
		t.Fatalf("Jump: %v", err)
	}
	if !r.IsAnswered(0) {
		t.Error("Jump should record the question left behind")
	}
}

func TestFlagTogglesAndAdvances(t *testing.T) {
	r, _ := newTestRun(t)
	r.Select(2)
	r.Flag()

	if !r.IsFlagged(0) {
		t.Error("question 0 should be flagged")
	}
	if r.Index() != 1 {
		t.Errorf("Index = %d, want 1 after Flag", r.Index())
	}
	if !r.IsAnswered(0) {
		t.Error("Flag should record the current answer")
	}

	r.Jump(0)
	r.Flag()
	if r.IsFlagged(0) {
		t.Error("second Flag should clear the flag")
	}
	if r.Flagged() != 0 {
		t.Errorf("Flagged = %d, want 0", r.Flagged())
	}
}

func TestFlagOnLastQuestionRecords(t *testing.T) {
	r, _ := newTestRun(t)
	r.Jump(2)
	r.Select(2)
	r.Flag()
	if r.Index() != 2 {
		t.Errorf("Index = %d, want to stay on 2", r.Index())
	}
	if !r.IsAnswered(2) {
		t.Error("Flag on the last question should still record it")
	}
}

func TestFinish(t *testing.T) {
	r, clk := newTestRun(t)
	r.Select(0) // correct
	clk.tick(20 * time.Second)
	r.Next()
	r.Select(0) // wrong
	clk.tick(40 * time.Second)
	r.Next()
	r.Select(2) // correct
	clk.tick(30 * time.Second)

	sheet, res := r.Finish()
	if r.Phase() != PhaseFinished {
		t.Fatal("phase should be finished")
	}
	if sheet.Len() != 3 {
		t.Fatalf("sheet has %d answers, want 3", sheet.Len())
	}
	if res.CorrectCount != 2 || res.TotalQuestions != 3 {
		t.Errorf("result = %d/%d, want 2/3", res.CorrectCount, res.TotalQuestions)
	}
	if res.AverageTime != 30 {
		t.Errorf("AverageTime = %d, want 30", res.AverageTime)
	}
	if r.Elapsed() != 90*time.Second {
		t.Errorf("Elapsed = %v, want 90s", r.Elapsed())
	}

	clk.tick(time.Hour)
	if r.Elapsed() != 90*time.Second {
		t.Error("Elapsed should freeze after Finish")
	}
	if err := r.Select(1); !errors.Is(err, ErrFinished) {
		t.Errorf("Select after Finish = %v, want ErrFinished", err)
	}
	if r.Next() {
		t.Error("Next after Finish should be a no-op")
	}

	_, again := r.Finish()
	if again.CorrectCount != res.CorrectCount {
		t.Error("second Finish should return the same result")
	}
}

func TestRemaining(t *testing.T) {
	r, clk := newTestRun(t)
	clk.tick(45 * time.Second)
	if got := r.Remaining(); got != 15*time.Second {
		t.Errorf("Remaining = %v, want 15s", got)
	}
	clk.tick(time.Minute)
	if got := r.Remaining(); got != 0 {
		t.Errorf("Remaining = %v, want 0", got)
	}
	r.Jump(2)
	if got := r.Remaining(); got != 90*time.Second {
		t.Errorf("Remaining on q3 = %v, want 90s", got)
	}
}
