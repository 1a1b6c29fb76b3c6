package advisor

import (
	"fmt"
	"strings"

	"github.com/eysh-app/eysh/internal/scoring"
)

const systemPrompt = `You are a coach preparing Mongolian high school students for the EYSH university entrance exam. Give short, practical study advice in Mongolian.`

func buildUserMessage(result scoring.Result, topics []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Score: %.0f%% (%d of %d correct)\n", result.Score, result.CorrectCount, result.TotalQuestions)
	fmt.Fprintf(&b, "Predicted level: %d of 10\n", result.PredictedLevel)

	b.WriteString("\nWeak topics:\n")
	for _, t := range topics {
		st := result.Topics[t]
		fmt.Fprintf(&b, "- %s: %d/%d correct, %.0fs per question\n", t, st.Correct, st.Total, st.AverageTime())
	}

	b.WriteString(`
Instructions:
Return exactly one tip for each weak topic above, using the topic name unchanged.
Each tip is one or two sentences and names a concrete next step (what to review, how many problems to solve).
Plain text only, no markdown.`)

	return b.String()
}
