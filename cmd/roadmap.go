package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/eysh-app/eysh/internal/api"
	"github.com/eysh-app/eysh/internal/output"
	"github.com/eysh-app/eysh/internal/roadmap"
	"github.com/eysh-app/eysh/internal/store"
	"github.com/spf13/cobra"
)

var roadmapCmd = &cobra.Command{
	Use:   "roadmap",
	Short: "Show and update your study roadmap",
	Args:  cobra.NoArgs,
	RunE:  runRoadmapShow,
}

var roadmapShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current roadmap",
	Args:  cobra.NoArgs,
	RunE:  runRoadmapShow,
}

var roadmapGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Rebuild the roadmap from your latest submitted test",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := env.client(ctx, true)
		if err != nil {
			return err
		}
		rm, err := client.GenerateRoadmap(ctx)
		if err != nil {
			return err
		}
		return env.out.Print(rm, func(w io.Writer) error { return printRoadmap(w, rm) })
	},
}

var roadmapDoneCmd = &cobra.Command{
	Use:   "done WEEK",
	Short: "Mark a roadmap week as completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		week, err := strconv.Atoi(args[0])
		if err != nil || week < 1 {
			return output.ErrUsage(fmt.Sprintf("invalid week %q", args[0]))
		}
		client, err := env.client(ctx, true)
		if err != nil {
			return err
		}
		progress, err := client.CompleteWeek(ctx, week)
		if err != nil {
			if api.IsNotFound(err) {
				return output.ErrNotFound("week", args[0], err)
			}
			return err
		}
		res := map[string]any{"week": week, "progress": progress}
		return env.out.Print(res, func(w io.Writer) error {
			_, err := fmt.Fprintf(w, "Week %d done. Progress: %.0f%%\n", week, progress)
			return err
		})
	},
}

var roadmapPreviewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Build a roadmap offline from a level and weak topics",
	Long: `Build the rule-based roadmap locally. Without flags the level and weak
topics come from the latest test in local history.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		level, _ := cmd.Flags().GetInt("level")
		weak, _ := cmd.Flags().GetStringSlice("weak")

		if !cmd.Flags().Changed("level") {
			st, err := env.openStore()
			if err != nil {
				return err
			}
			recs, err := st.HistoryRepo().List(ctx, store.QueryOpts{Limit: 1})
			if err != nil {
				return fmt.Errorf("read history: %w", err)
			}
			if len(recs) == 0 {
				return output.ErrUsage("no local test history; pass --level and --weak or run: eysh test")
			}
			level = recs[0].Level
			if !cmd.Flags().Changed("weak") {
				weak = recs[0].WeakTopics
			}
		}
		if level < 1 || level > 10 {
			return output.ErrUsage("--level must be between 1 and 10")
		}

		rm := roadmap.Preview(level, weak)
		return env.out.Print(rm, func(w io.Writer) error { return printRoadmap(w, &rm) })
	},
}

func runRoadmapShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	client, err := env.client(ctx, true)
	if err != nil {
		return err
	}
	rm, err := client.Roadmap(ctx)
	if api.IsNotFound(err) {
		return output.ErrNotFound("roadmap", "current", err)
	}
	if err != nil {
		return err
	}
	return env.out.Print(rm, func(w io.Writer) error { return printRoadmap(w, rm) })
}

func printRoadmap(w io.Writer, rm *roadmap.Roadmap) error {
	if len(rm.Weeks) > 0 {
		fmt.Fprintf(w, "%d of %d weeks done (%.0f%%)\n\n", rm.Completed(), len(rm.Weeks), rm.Progress)
	}
	rows := make([][]string, 0, len(rm.Weeks))
	for _, wk := range rm.Weeks {
		done := ""
		if wk.Completed {
			done = "✓"
		}
		rows = append(rows, []string{
			strconv.Itoa(wk.WeekNumber),
			done,
			strings.Join(wk.Topics, ", "),
			strings.Join(wk.Goals, "; "),
		})
	}
	return output.Table(w, []string{"WEEK", "DONE", "TOPICS", "GOALS"}, rows, "The roadmap is empty.")
}

var mentorsCmd = &cobra.Command{
	Use:   "mentors",
	Short: "Find a mentor",
	Args:  cobra.NoArgs,
	RunE:  runMentorsList,
}

var mentorsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List mentors, best match for your subjects first",
	Args:  cobra.NoArgs,
	RunE:  runMentorsList,
}

var mentorsRequestCmd = &cobra.Command{
	Use:   "request MENTOR_ID",
	Short: "Ask a mentor for mentorship",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		subjects, _ := cmd.Flags().GetStringSlice("subject")
		message, _ := cmd.Flags().GetString("message")

		client, err := env.client(ctx, true)
		if err != nil {
			return err
		}
		m, err := client.RequestMentor(ctx, api.MentorRequest{MentorID: args[0], Subjects: subjects, Message: message})
		if err != nil {
			if api.IsNotFound(err) {
				return output.ErrNotFound("mentor", args[0], err)
			}
			return err
		}
		return env.out.Print(m, func(w io.Writer) error {
			_, err := fmt.Fprintf(w, "Request sent to %s (%s).\n", m.MentorName, m.Status)
			return err
		})
	},
}

var mentorsMineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Show your mentorship",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := env.client(ctx, true)
		if err != nil {
			return err
		}
		m, err := client.MyMentor(ctx)
		if err != nil {
			return err
		}
		return env.out.Print(m, func(w io.Writer) error {
			if m == nil {
				_, err := fmt.Fprintln(w, "No mentor yet. Find one with: eysh mentors list")
				return err
			}
			return output.Fields(w,
				[2]string{"Mentor", m.MentorName},
				[2]string{"Status", m.Status},
				[2]string{"Subjects", strings.Join(m.Subjects, ", ")},
				[2]string{"Since", m.CreatedAt.Local().Format("2006-01-02")},
			)
		})
	},
}

func runMentorsList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	subjects, _ := cmd.Flags().GetStringSlice("subject")

	client, err := env.client(ctx, true)
	if err != nil {
		return err
	}
	if len(subjects) == 0 {
		if me, err := client.Me(ctx); err == nil {
			subjects = me.Profile.Subjects
		}
	}
	var filter string
	if len(subjects) == 1 {
		filter = subjects[0]
	}
	mentors, err := client.Mentors(ctx, filter)
	if err != nil {
		return err
	}
	ranked := roadmap.RankMentors(subjects, mentors)

	return env.out.Print(ranked, func(w io.Writer) error {
		rows := make([][]string, 0, len(ranked))
		for _, m := range ranked {
			rows = append(rows, []string{
				m.ID,
				m.UserName,
				m.University,
				strings.Join(m.Subjects, ", "),
				fmt.Sprintf("%.1f (%d)", m.Rating, m.ReviewCount),
			})
		}
		return output.Table(w, []string{"ID", "NAME", "UNIVERSITY", "SUBJECTS", "RATING"}, rows, "No mentors found.")
	})
}

func init() {
	roadmapPreviewCmd.Flags().Int("level", 0, "Predicted level 1-10")
	roadmapPreviewCmd.Flags().StringSlice("weak", nil, "Weak topics in priority order")

	roadmapCmd.AddCommand(roadmapShowCmd)
	roadmapCmd.AddCommand(roadmapGenerateCmd)
	roadmapCmd.AddCommand(roadmapDoneCmd)
	roadmapCmd.AddCommand(roadmapPreviewCmd)

	for _, c := range []*cobra.Command{mentorsCmd, mentorsListCmd} {
		c.Flags().StringSlice("subject", nil, "Subjects to match (default: your profile subjects)")
	}
	mentorsRequestCmd.Flags().StringSlice("subject", nil, "Subjects you want help with")
	mentorsRequestCmd.Flags().String("message", "", "Message to the mentor")

	mentorsCmd.AddCommand(mentorsListCmd)
	mentorsCmd.AddCommand(mentorsRequestCmd)
	mentorsCmd.AddCommand(mentorsMineCmd)
}
