// Package roadmap holds the study-plan and mentor shapes shared with the
// backend, plus the offline rules the client uses when the backend has
// nothing to show yet.
package roadmap

import (
	"fmt"

	"github.com/eysh-app/eysh/internal/wiretime"
)

// ReviewTopic is the focus of weeks left over once weak topics run out.
const ReviewTopic = "Нийт давталт"

// MinWeeks is the shortest plan Preview produces.
const MinWeeks = 4

// WeekPlan is one week of a roadmap.
type WeekPlan struct {
	WeekNumber          int      `json:"week_number"`
	Topics              []string `json:"topics"`
	Goals               []string `json:"goals"`
	Resources           []string `json:"resources"`
	PracticeQuestionIDs []string `json:"practice_question_ids"`
	Completed           bool     `json:"completed"`
}

// Roadmap is a student's study plan.
type Roadmap struct {
	ID          string         `json:"id,omitempty"`
	UserID      string         `json:"user_id,omitempty"`
	Weeks       []WeekPlan     `json:"weeks"`
	Progress    float64        `json:"progress"`
	GeneratedAt wiretime.Time  `json:"generated_at"`
	UpdatedAt   *wiretime.Time `json:"updated_at,omitempty"`
}

// Completed counts finished weeks.
func (r Roadmap) Completed() int {
	n := 0
	for _, w := range r.Weeks {
		if w.Completed {
			n++
		}
	}
	return n
}

// Week returns the plan for week number n.
func (r Roadmap) Week(n int) (WeekPlan, bool) {
	for _, w := range r.Weeks {
		if w.WeekNumber == n {
			return w, true
		}
	}
	return WeekPlan{}, false
}

// WeekCount is the plan length for a predicted level.
func WeekCount(level int) int {
	return max(MinWeeks, (10-level)*2)
}

// Preview builds the rule-based plan the backend falls back to: one week per
// weak topic in order, then general review weeks until the plan is long
// enough for the level.
func Preview(level int, weakTopics []string) Roadmap {
	n := WeekCount(level)
	weeks := make([]WeekPlan, 0, n)
	for i := 1; i <= n; i++ {
		focus := ReviewTopic
		if i <= len(weakTopics) {
			focus = weakTopics[i-1]
		}
		weeks = append(weeks, WeekPlan{
			WeekNumber: i,
			Topics:     []string{focus},
			Goals: []string{
				fmt.Sprintf("%s сэдвийг гүнзгий судлах", focus),
				"Өдөрт 10 бодлого бодох",
				"Алдаагаа шинжлэх",
			},
			Resources: []string{
				focus + " - Онол",
				focus + " - Дасгал",
				focus + " - Шалгалтын бодлого",
			},
			PracticeQuestionIDs: []string{},
		})
	}
	return Roadmap{Weeks: weeks}
}
