package cmd

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/eysh-app/eysh/internal/api"
	"github.com/eysh-app/eysh/internal/output"
	"github.com/spf13/cobra"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Platform statistics (admin accounts only)",
}

var adminStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show platform totals",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := env.client(ctx, true)
		if err != nil {
			return err
		}
		s, err := client.AdminStats(ctx)
		if err != nil {
			return err
		}
		return env.out.Print(s, func(w io.Writer) error {
			return output.Fields(w,
				[2]string{"Users", fmt.Sprint(s.TotalUsers)},
				[2]string{"Topics", fmt.Sprint(s.TotalTopics)},
				[2]string{"Questions", fmt.Sprint(s.TotalQuestions)},
			)
		})
	},
}

var adminUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "List accounts, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := env.client(ctx, true)
		if err != nil {
			return err
		}
		users, err := client.AdminUsers(ctx)
		if err != nil {
			return err
		}
		return env.out.Print(users, func(w io.Writer) error {
			rows := make([][]string, 0, len(users))
			for _, u := range users {
				rows = append(rows, []string{u.Email, u.Name, u.Role, u.CreatedAt.Local().Format("2006-01-02")})
			}
			return output.Table(w, []string{"EMAIL", "NAME", "ROLE", "JOINED"}, rows, "No users.")
		})
	},
}

var adminAnalyticsCmd = &cobra.Command{
	Use:       "analytics NAME",
	Short:     "Print an analytics report as JSON",
	Long:      "Print an analytics report as JSON. Reports: " + strings.Join(api.AnalyticsReports, ", ") + ".",
	Args:      cobra.ExactArgs(1),
	ValidArgs: api.AnalyticsReports,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if !slices.Contains(api.AnalyticsReports, args[0]) {
			return output.ErrUsage(fmt.Sprintf("unknown report %q; want one of %s", args[0], strings.Join(api.AnalyticsReports, ", ")))
		}
		client, err := env.client(ctx, true)
		if err != nil {
			return err
		}
		raw, err := client.Analytics(ctx, args[0])
		if err != nil {
			return err
		}
		return env.out.Print(raw, nil)
	},
}

func init() {
	adminCmd.AddCommand(adminStatsCmd)
	adminCmd.AddCommand(adminUsersCmd)
	adminCmd.AddCommand(adminAnalyticsCmd)
}
