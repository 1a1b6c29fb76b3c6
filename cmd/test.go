package cmd

import (
	"context"
	"fmt"

	"github.com/eysh-app/eysh/internal/api"
	"github.com/eysh-app/eysh/internal/app"
	"github.com/eysh-app/eysh/internal/output"
	"github.com/eysh-app/eysh/internal/scoring"
	"github.com/eysh-app/eysh/internal/screen"
	"github.com/eysh-app/eysh/internal/screens/home"
	"github.com/eysh-app/eysh/internal/screens/results"
	"github.com/eysh-app/eysh/internal/session"
	"github.com/eysh-app/eysh/internal/store"
	"github.com/eysh-app/eysh/internal/testrun"
	"github.com/spf13/cobra"
)

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Take an adaptive practice test",
	Long: `Fetch a set of questions and take the test in the terminal.

The result is scored locally and saved to history straight away. When you
are logged in it is also submitted and your roadmap is regenerated.`,
	Args: cobra.NoArgs,
	RunE: runTest,
}

func init() {
	testCmd.Flags().StringP("subject", "s", "", "Limit questions to a subject (default from config)")
	testCmd.Flags().IntP("count", "n", 0, "Number of questions (default from config)")
}

func runTest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if env.out.Machine() {
		return output.ErrUsage("eysh test is interactive; --json and --jq are not supported")
	}

	subject, _ := cmd.Flags().GetString("subject")
	if subject == "" {
		subject = env.cfg.Subject
	}
	count, _ := cmd.Flags().GetInt("count")
	if count == 0 {
		count = env.cfg.QuestionCount
	}
	if count < 1 || count > api.MaxQuestions {
		return output.ErrUsage(fmt.Sprintf("--count must be between 1 and %d", api.MaxQuestions))
	}

	client, err := env.client(ctx, false)
	if err != nil {
		return err
	}
	st, err := env.openStore()
	if err != nil {
		return err
	}

	var backend session.Backend
	if client.Authorized() {
		backend = client
	}
	deps := results.Deps{
		Ctx:      ctx,
		Finisher: session.NewFinisher(st.HistoryRepo(), backend),
		Advisor:  studyAdvisor(ctx, st.EventRepo()),
	}

	opts := home.Options{
		Ctx:      ctx,
		Subject:  subject,
		Count:    count,
		LoggedIn: client.Authorized(),
		Load: func(ctx context.Context) (*testrun.Run, error) {
			questions, err := client.Questions(ctx, subject, count)
			if err != nil {
				return nil, err
			}
			return testrun.New(questions)
		},
		OnFinish: func(run *testrun.Run, _ *scoring.AnswerSheet, res scoring.Result) screen.Screen {
			return results.New(run.ID, run.Questions(), res, deps)
		},
	}
	if recs, err := st.HistoryRepo().List(ctx, store.QueryOpts{Limit: 1}); err == nil && len(recs) > 0 {
		opts.Last = &recs[0]
	}
	return app.Run(ctx, home.New(opts))
}
