package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/eysh-app/eysh/internal/output"
	"github.com/eysh-app/eysh/internal/roadmap"
	"github.com/eysh-app/eysh/internal/scoring"
	"github.com/spf13/cobra"
)

var scoreCmd = &cobra.Command{
	Use:   "score FILE",
	Short: "Score a saved test offline",
	Long: `Score questions and answers from a JSON file without contacting the
backend. The file holds {"questions": [...], "answers": [{"question_id",
"answer", "time_spent"}]}; use - to read standard input.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var r io.Reader = cmd.InOrStdin()
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return output.ErrUsage(err.Error())
			}
			defer f.Close()
			r = f
		}
		res, err := scoreFile(r)
		if err != nil {
			return err
		}
		return env.out.Print(res, func(w io.Writer) error { return printResult(w, res) })
	},
}

type scoreInput struct {
	Questions []scoring.Question        `json:"questions"`
	Answers   []scoring.SubmittedAnswer `json:"answers"`
}

// scoreFile reads a scoreInput and scores it. Correctness is always
// recomputed from the questions.
func scoreFile(r io.Reader) (scoring.Result, error) {
	var in scoreInput
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return scoring.Result{}, output.ErrUsage(fmt.Sprintf("invalid score file: %v", err))
	}
	byID := make(map[string]scoring.Question, len(in.Questions))
	for _, q := range in.Questions {
		byID[q.ID] = q
	}
	answers := make([]scoring.Answer, 0, len(in.Answers))
	for _, a := range in.Answers {
		q, ok := byID[a.QuestionID]
		if !ok {
			answers = append(answers, scoring.Answer{QuestionID: a.QuestionID, Selected: a.Answer, TimeSpent: a.TimeSpent})
			continue
		}
		answers = append(answers, scoring.NewAnswer(q, a.Answer, a.TimeSpent))
	}
	return scoring.Score(in.Questions, answers), nil
}

func printResult(w io.Writer, res scoring.Result) error {
	if err := output.Fields(w,
		[2]string{"Score", fmt.Sprintf("%.1f%% (%d/%d)", res.Score, res.CorrectCount, res.TotalQuestions)},
		[2]string{"Predicted level", fmt.Sprintf("%d/10", res.PredictedLevel)},
		[2]string{"Average time", fmt.Sprintf("%ds per question", res.AverageTime)},
		[2]string{"Weak topics", orNone(strings.Join(res.WeakTopics, ", "))},
		[2]string{"Roadmap length", fmt.Sprintf("%d weeks", roadmap.WeekCount(res.PredictedLevel))},
	); err != nil {
		return err
	}
	fmt.Fprintln(w)

	rows := make([][]string, 0, len(res.TopicOrder)+3)
	for _, t := range res.TopicOrder {
		st := res.Topics[t]
		rows = append(rows, []string{t, fmt.Sprintf("%d/%d", st.Correct, st.Total), fmt.Sprintf("%d%%", st.Percentage)})
	}
	for _, d := range scoring.DifficultyLabels() {
		if st, ok := res.Difficulty[d]; ok && st.Total > 0 {
			rows = append(rows, []string{d, fmt.Sprintf("%d/%d", st.Correct, st.Total), fmt.Sprintf("%d%%", st.Percentage)})
		}
	}
	return output.Table(w, []string{"TOPIC", "CORRECT", "PERCENT"}, rows, "No answers.")
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
