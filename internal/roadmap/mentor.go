package roadmap

import (
	"sort"

	"github.com/eysh-app/eysh/internal/wiretime"
)

// TimeSlot is a weekly availability window.
type TimeSlot struct {
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// Mentor is a mentor profile as listed by the backend.
type Mentor struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	UserName     string     `json:"user_name"`
	University   string     `json:"university"`
	Major        string     `json:"major"`
	Subjects     []string   `json:"subjects"`
	Experience   string     `json:"experience,omitempty"`
	Bio          string     `json:"bio,omitempty"`
	Availability []TimeSlot `json:"availability"`
	Rating       float64    `json:"rating"`
	ReviewCount  int        `json:"review_count"`
}

// Mentorship is a student-mentor pairing.
type Mentorship struct {
	ID          string        `json:"id"`
	StudentID   string        `json:"student_id"`
	StudentName string        `json:"student_name"`
	MentorID    string        `json:"mentor_id"`
	MentorName  string        `json:"mentor_name"`
	Subjects    []string      `json:"subjects"`
	Status      string        `json:"status"`
	Schedule    []TimeSlot    `json:"schedule"`
	CreatedAt   wiretime.Time `json:"created_at"`
}

// MatchScore is ten points per shared subject plus the mentor's rating.
func MatchScore(subjects []string, m Mentor) float64 {
	want := make(map[string]struct{}, len(subjects))
	for _, s := range subjects {
		want[s] = struct{}{}
	}
	seen := make(map[string]struct{}, len(m.Subjects))
	overlap := 0
	for _, s := range m.Subjects {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		if _, ok := want[s]; ok {
			overlap++
		}
	}
	return float64(overlap)*10 + m.Rating
}

// RankMentors returns mentors ordered by MatchScore, highest first. Equal
// scores keep their input order. The input slice is not modified.
func RankMentors(subjects []string, mentors []Mentor) []Mentor {
	type scored struct {
		score  float64
		mentor Mentor
	}
	list := make([]scored, len(mentors))
	for i, m := range mentors {
		list[i] = scored{MatchScore(subjects, m), m}
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].score > list[j].score
	})
	ranked := make([]Mentor, len(list))
	for i, s := range list {
		ranked[i] = s.mentor
	}
	return ranked
}
