package results

import (
	"errors"
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/eysh-app/eysh/internal/api"
	"github.com/eysh-app/eysh/internal/scoring"
	"github.com/eysh-app/eysh/internal/session"
	"github.com/eysh-app/eysh/internal/ui/components"
	"github.com/eysh-app/eysh/internal/ui/theme"
)

func (s *Screen) View(width, height int) string {
	inner := max(width-6, 30)
	body := s.renderSummary(inner)
	if s.review {
		body = s.renderReview(inner)
	}
	s.viewport.SetWidth(width)
	s.viewport.SetHeight(height)
	s.viewport.SetContent(lipgloss.NewStyle().Padding(1, 3).Render(body))
	return s.viewport.View()
}

func (s *Screen) renderSummary(width int) string {
	r := s.result
	var b strings.Builder

	b.WriteString(theme.ScoreStyle(r.Score).Render(fmt.Sprintf("%.1f%%", r.Score)))
	b.WriteString(theme.Body.Render(fmt.Sprintf("   %d/%d зөв   ·   Түвшин %d/10", r.CorrectCount, r.TotalQuestions, r.PredictedLevel)))
	b.WriteString("\n")
	timing := fmt.Sprintf("Дундаж хугацаа: %d сек/асуулт", r.AverageTime)
	if r.FastestTopic != "" {
		timing += fmt.Sprintf("   ·   Хурдан: %s   ·   Удаан: %s", r.FastestTopic, r.SlowestTopic)
	}
	b.WriteString(theme.Dim.Render(timing))
	b.WriteString("\n\n")

	labelWidth := 0
	for _, t := range r.TopicOrder {
		labelWidth = max(labelWidth, lipgloss.Width(t))
	}
	for _, d := range scoring.DifficultyLabels() {
		labelWidth = max(labelWidth, lipgloss.Width(d))
	}

	b.WriteString(theme.Title.Render("Сэдвээр"))
	b.WriteString("\n")
	for _, t := range r.TopicOrder {
		st := r.Topics[t]
		bar := components.NewProgressBar(t, float64(st.Percentage)/100, true, min(width, 70))
		bar.LabelWidth = labelWidth
		bar.Fill = theme.ScoreStyle(float64(st.Percentage)).GetForeground()
		b.WriteString(bar.View() + theme.Dim.Render(fmt.Sprintf("  %d/%d", st.Correct, st.Total)) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(theme.Title.Render("Түвшингээр"))
	b.WriteString("\n")
	for _, d := range scoring.DifficultyLabels() {
		st, ok := r.Difficulty[d]
		if !ok || st.Total == 0 {
			continue
		}
		bar := components.NewProgressBar(d, float64(st.Percentage)/100, true, min(width, 70))
		bar.LabelWidth = labelWidth
		b.WriteString(bar.View() + theme.Dim.Render(fmt.Sprintf("  %d/%d", st.Correct, st.Total)) + "\n")
	}

	if len(r.WeakTopics) > 0 {
		b.WriteString("\n")
		b.WriteString(theme.Incorrect.Render("Сул сэдэв: " + strings.Join(r.WeakTopics, ", ")))
		b.WriteString("\n")
	}

	if tips := s.renderTips(width); tips != "" {
		b.WriteString("\n" + tips + "\n")
	}
	b.WriteString("\n" + s.renderSync())
	return b.String()
}

func (s *Screen) renderTips(width int) string {
	switch {
	case s.advising:
		return theme.Hint.Render("Зөвлөмж бэлдэж байна…")
	case s.advice == nil || s.advice.err != nil || len(s.advice.advice.Tips) == 0:
		return ""
	}
	var b strings.Builder
	b.WriteString(theme.Title.Render("Зөвлөмж"))
	b.WriteString("\n")
	for _, t := range s.advice.advice.Tips {
		b.WriteString(theme.Body.Width(width).Render("• " + t.Topic + ": " + t.Tip))
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (s *Screen) renderSync() string {
	switch {
	case s.deps.Finisher == nil:
		return ""
	case s.saving:
		return theme.Hint.Render("Хадгалж, илгээж байна…")
	case s.finished.err != nil:
		return theme.Incorrect.Render("Хадгалж чадсангүй: " + s.finished.err.Error())
	}

	sync := s.finished.sync
	lines := []string{theme.Correct.Render("✓ Түүхэнд хадгаллаа")}
	switch {
	case sync.Submitted:
		lines = append(lines, theme.Correct.Render("✓ Сервер рүү илгээлээ"))
	case errors.Is(sync.Err, session.ErrNoBackend):
		lines = append(lines, theme.Dim.Render("Нэвтрээгүй тул зөвхөн энэ төхөөрөмжид хадгаллаа (eysh login)"))
	case api.IsUnauthorized(sync.Err):
		lines = append(lines, theme.Flagged.Render("Нэвтрэлт хүчингүй болсон тул илгээсэнгүй (eysh login)"))
	default:
		lines = append(lines, theme.Flagged.Render("Сервер рүү илгээж чадсангүй"))
	}
	if sync.Roadmap != nil {
		lines = append(lines, theme.Correct.Render(fmt.Sprintf("✓ %d долоо хоногийн төлөвлөгөө шинэчлэгдлээ (eysh roadmap)", len(sync.Roadmap.Weeks))))
	}
	return strings.Join(lines, "\n")
}

func (s *Screen) renderReview(width int) string {
	byID := make(map[string]scoring.Answer, len(s.result.Answers))
	for _, a := range s.result.Answers {
		byID[a.QuestionID] = a
	}

	var b strings.Builder
	for i, q := range s.questions {
		chosen := -1
		status := theme.Dim.Render("хариулаагүй")
		if a, ok := byID[q.ID]; ok {
			chosen = a.Selected
			if a.Correct {
				status = theme.Correct.Render(fmt.Sprintf("зөв · %d сек", a.TimeSpent))
			} else {
				status = theme.Incorrect.Render(fmt.Sprintf("буруу · %d сек", a.TimeSpent))
			}
		}
		fmt.Fprintf(&b, "%s  %s  %s\n", theme.Title.Render(fmt.Sprintf("%d.", i+1)), theme.Dim.Render(q.Label()), status)
		b.WriteString(theme.Body.Width(width).Render(q.Content))
		b.WriteString("\n")
		b.WriteString(components.Reveal(q.Options, chosen, q.CorrectAnswer))
		b.WriteString("\n")
		if q.Explanation != "" {
			b.WriteString(theme.Hint.Width(width).Render(q.Explanation))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}
