package cmd

import (
	"fmt"
	"io"

	"github.com/eysh-app/eysh/internal/api"
	"github.com/spf13/cobra"
)

type statusReport struct {
	APIURL     string `json:"api_url"`
	Reachable  bool   `json:"reachable"`
	Version    string `json:"version,omitempty"`
	MinVersion string `json:"min_version"`
	Compatible bool   `json:"compatible"`
	LoggedIn   bool   `json:"logged_in"`
	Error      string `json:"error,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the backend connection and login",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := env.client(ctx, false)
		if err != nil {
			return err
		}

		rep := statusReport{APIURL: client.BaseURL(), MinVersion: api.MinServerVersion, LoggedIn: client.Authorized()}
		info, err := client.ServiceInfo(ctx)
		if err != nil {
			return err
		}
		rep.Reachable = true
		rep.Version = info.Version
		if rep.Compatible, err = info.Compatible(); err != nil {
			rep.Error = err.Error()
		}
		return env.out.Print(rep, func(w io.Writer) error { return printStatus(w, rep) })
	},
}

func printStatus(w io.Writer, rep statusReport) error {
	server := rep.Version
	if !rep.Compatible {
		server += fmt.Sprintf(" (unsupported, need %s or newer)", rep.MinVersion)
	}
	login := "no (eysh login)"
	if rep.LoggedIn {
		login = "yes"
	}
	fmt.Fprintf(w, "Server:    %s\n", rep.APIURL)
	fmt.Fprintf(w, "Version:   %s\n", server)
	fmt.Fprintf(w, "Logged in: %s\n", login)
	if rep.Error != "" {
		fmt.Fprintf(w, "Error:     %s\n", rep.Error)
	}
	return nil
}
