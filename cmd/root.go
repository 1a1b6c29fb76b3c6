package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/eysh-app/eysh/internal/api"
	"github.com/eysh-app/eysh/internal/config"
	"github.com/eysh-app/eysh/internal/logging"
	"github.com/eysh-app/eysh/internal/output"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "eysh",
	Short: "Terminal client for EYSH exam preparation",
	Long: `eysh takes adaptive EYSH practice tests in the terminal, scores them
locally and keeps your roadmap, mentors and history in sync with the
EYSH backend.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) { env.close() },
}

// Execute runs the command tree and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	env.close()
	if err == nil {
		return output.ExitOK
	}

	e := classify(err)
	if env.out != nil && env.out.Machine() {
		_ = env.out.Err(e)
	} else {
		fmt.Fprintln(os.Stderr, "Error:", e.Error())
	}
	return e.ExitCode()
}

func init() {
	f := rootCmd.PersistentFlags()
	f.String("config", "", "Path to config file (overrides EYSH_CONFIG)")
	f.String("db", "", "Path to SQLite database file (overrides EYSH_DB)")
	f.String("api-url", "", "EYSH backend URL (overrides EYSH_API_URL)")
	f.Bool("reload", false, "Start a fresh response cache for this session")
	f.Bool("refresh", false, "Skip cached responses for this command (fresh ones are still stored)")
	f.Bool("no-cache", false, "Disable the response cache")
	f.Bool("json", false, "Print JSON instead of text")
	f.String("jq", "", "Filter JSON output with a jq expression (implies --json)")
	f.BoolP("verbose", "v", false, "Log debug output to stderr")

	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(roadmapCmd)
	rootCmd.AddCommand(mentorsCmd)
	rootCmd.AddCommand(topicCmd)
	rootCmd.AddCommand(problemsCmd)
	rootCmd.AddCommand(adminCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}

// setup resolves configuration, logging and the output writer before any
// command runs.
func setup(cmd *cobra.Command, args []string) error {
	if cmd == versionCmd {
		return nil
	}
	f := cmd.Flags()
	overrides := config.FlagOverrides{}
	overrides.ConfigPath, _ = f.GetString("config")
	overrides.APIURL, _ = f.GetString("api-url")
	overrides.DBPath, _ = f.GetString("db")
	overrides.Reload, _ = f.GetBool("reload")
	overrides.NoCache, _ = f.GetBool("no-cache")
	overrides.Verbose, _ = f.GetBool("verbose")

	jsonOut, _ := f.GetBool("json")
	jq, _ := f.GetString("jq")
	out, err := output.New(output.Options{JSON: jsonOut, JQ: jq, Writer: cmd.OutOrStdout()})
	if err != nil {
		return err
	}
	env.out = out

	cfg, err := config.Load(overrides)
	if err != nil {
		return output.ErrUsage(fmt.Sprintf("load config: %v", err))
	}
	env.cfg = cfg

	if _, err := logging.Setup(cfg.LogLevel, cmd.ErrOrStderr()); err != nil {
		return output.ErrUsage(err.Error())
	}
	if refresh, _ := f.GetBool("refresh"); refresh {
		cmd.SetContext(api.WithRefresh(cmd.Context()))
	}
	return nil
}
