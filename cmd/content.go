package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/eysh-app/eysh/internal/api"
	"github.com/eysh-app/eysh/internal/output"
	"github.com/spf13/cobra"
)

var topicCmd = &cobra.Command{
	Use:   "topic NAME",
	Short: "Show study material for a topic",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		name := strings.Join(args, " ")
		client, err := env.client(ctx, false)
		if err != nil {
			return err
		}
		t, err := client.Topic(ctx, name)
		if err != nil {
			if api.IsNotFound(err) {
				return output.ErrNotFound("topic", name, err)
			}
			return err
		}
		return env.out.Print(t, func(w io.Writer) error {
			fmt.Fprintln(w, t.Title)
			fmt.Fprintln(w)
			if t.Summary != "" {
				fmt.Fprintln(w, t.Summary)
				fmt.Fprintln(w)
			}
			pairs := [][2]string{{"Difficulty", orNone(t.Difficulty)}}
			if u := t.VideoURL(); u != "" {
				pairs = append(pairs, [2]string{"Video", u})
			}
			return output.Fields(w, pairs...)
		})
	},
}

var problemsCmd = &cobra.Command{
	Use:   "problems",
	Short: "Browse the problem bank",
	Args:  cobra.NoArgs,
	RunE:  runProblemsList,
}

var problemsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List problems",
	Args:  cobra.NoArgs,
	RunE:  runProblemsList,
}

var problemsShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show one problem",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := env.client(ctx, false)
		if err != nil {
			return err
		}
		p, err := client.Problem(ctx, args[0])
		if err != nil {
			if api.IsNotFound(err) {
				return output.ErrNotFound("problem", args[0], err)
			}
			return err
		}
		return env.out.Print(p, func(w io.Writer) error {
			pairs := [][2]string{
				{"Subject", p.Subject},
				{"Topic", p.Topic},
				{"Difficulty", p.Difficulty},
			}
			if p.Source != "" {
				pairs = append(pairs, [2]string{"Source", p.Source})
			}
			if len(p.Tags) > 0 {
				pairs = append(pairs, [2]string{"Tags", strings.Join(p.Tags, ", ")})
			}
			if len(p.Images) > 0 {
				pairs = append(pairs, [2]string{"Images", fmt.Sprintf("%d (eysh problems images %s)", len(p.Images), p.ID)})
			}
			if err := output.Fields(w, pairs...); err != nil {
				return err
			}
			_, err := fmt.Fprintf(w, "\n%s\n", p.Text)
			return err
		})
	},
}

var problemsImagesCmd = &cobra.Command{
	Use:   "images ID",
	Short: "Download a problem's images",
	Long: `Download every image of a problem into a directory. If any download
fails or the command is interrupted, the files already written are removed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		dir, _ := cmd.Flags().GetString("dir")
		if dir == "" {
			d, err := os.MkdirTemp("", "eysh-problem-")
			if err != nil {
				return err
			}
			dir = d
		} else if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}

		client, err := env.client(ctx, false)
		if err != nil {
			return err
		}
		p, err := client.Problem(ctx, args[0])
		if err != nil {
			if api.IsNotFound(err) {
				return output.ErrNotFound("problem", args[0], err)
			}
			return err
		}
		imgs, err := client.DownloadProblemImages(ctx, p.ImageIDs(), dir)
		if err != nil {
			return fmt.Errorf("download images: %w", err)
		}

		return env.out.Print(imgs, func(w io.Writer) error {
			rows := make([][]string, 0, len(imgs))
			for _, img := range imgs {
				rows = append(rows, []string{img.ID, img.ContentType, fmt.Sprintf("%d", img.Size), img.Path})
			}
			return output.Table(w, []string{"ID", "TYPE", "BYTES", "PATH"}, rows, "The problem has no images.")
		})
	},
}

func runProblemsList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	var f api.ProblemFilter
	f.Subject, _ = cmd.Flags().GetString("subject")
	f.Topic, _ = cmd.Flags().GetString("topic")
	f.Difficulty, _ = cmd.Flags().GetString("difficulty")
	f.Source, _ = cmd.Flags().GetString("source")
	f.Limit, _ = cmd.Flags().GetInt("limit")
	f.Skip, _ = cmd.Flags().GetInt("skip")

	client, err := env.client(ctx, false)
	if err != nil {
		return err
	}
	ps, err := client.Problems(ctx, f)
	if err != nil {
		return err
	}
	return env.out.Print(ps, func(w io.Writer) error {
		rows := make([][]string, 0, len(ps))
		for _, p := range ps {
			rows = append(rows, []string{p.ID, p.Subject, p.Topic, p.Difficulty, excerpt(p.Text, 48)})
		}
		return output.Table(w, []string{"ID", "SUBJECT", "TOPIC", "DIFFICULTY", "TEXT"}, rows, "No problems found.")
	})
}

// excerpt is the first line of s cut to n runes.
func excerpt(s string, n int) string {
	s, _, _ = strings.Cut(strings.TrimSpace(s), "\n")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func init() {
	for _, c := range []*cobra.Command{problemsCmd, problemsListCmd} {
		c.Flags().String("subject", "", "Filter by subject")
		c.Flags().String("topic", "", "Filter by topic")
		c.Flags().String("difficulty", "", "Filter by difficulty")
		c.Flags().String("source", "", "Filter by source")
		c.Flags().Int("limit", 20, "Maximum number of problems")
		c.Flags().Int("skip", 0, "Skip this many problems")
	}
	problemsImagesCmd.Flags().String("dir", "", "Directory to save into (default: a new temp dir)")

	problemsCmd.AddCommand(problemsListCmd)
	problemsCmd.AddCommand(problemsShowCmd)
	problemsCmd.AddCommand(problemsImagesCmd)
}
