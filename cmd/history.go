package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/eysh-app/eysh/internal/api"
	"github.com/eysh-app/eysh/internal/output"
	"github.com/eysh-app/eysh/internal/store"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past tests",
	Long: `List tests saved on this machine, newest first. With --remote the list
comes from the backend instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		limit, _ := cmd.Flags().GetInt("limit")
		remote, _ := cmd.Flags().GetBool("remote")

		if remote {
			client, err := env.client(ctx, true)
			if err != nil {
				return err
			}
			results, err := client.History(ctx)
			if err != nil {
				return err
			}
			if limit > 0 && len(results) > limit {
				results = results[:limit]
			}
			return env.out.Print(results, func(w io.Writer) error { return printRemoteHistory(w, results) })
		}

		st, err := env.openStore()
		if err != nil {
			return err
		}
		recs, err := st.HistoryRepo().List(ctx, store.QueryOpts{Limit: limit})
		if err != nil {
			return fmt.Errorf("read history: %w", err)
		}
		return env.out.Print(recs, func(w io.Writer) error {
			rows := make([][]string, 0, len(recs))
			for _, r := range recs {
				sent := "no"
				if r.Submitted {
					sent = "yes"
				}
				rows = append(rows, []string{
					r.TakenAt.Local().Format("2006-01-02 15:04"),
					fmt.Sprintf("%.1f%%", r.Score),
					fmt.Sprintf("%d/%d", r.Correct, r.Total),
					fmt.Sprint(r.Level),
					strings.Join(r.WeakTopics, ", "),
					sent,
				})
			}
			return output.Table(w, []string{"TAKEN", "SCORE", "CORRECT", "LEVEL", "WEAK TOPICS", "SUBMITTED"}, rows,
				"No tests yet. Start one with: eysh test")
		})
	},
}

func printRemoteHistory(w io.Writer, results []api.TestResult) error {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			r.CompletedAt.Local().Format("2006-01-02 15:04"),
			fmt.Sprintf("%.1f%%", r.Score),
			fmt.Sprintf("%d/%d", r.CorrectCount, r.TotalQuestions),
			fmt.Sprint(r.PredictedLevel),
			strings.Join(r.WeakTopics, ", "),
		})
	}
	return output.Table(w, []string{"COMPLETED", "SCORE", "CORRECT", "LEVEL", "WEAK TOPICS"}, rows, "No submitted tests.")
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Number of tests to show (0 for all)")
	historyCmd.Flags().Bool("remote", false, "List tests submitted to the backend")
}
