package cmd

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/eysh-app/eysh/internal/api"
	"github.com/eysh-app/eysh/internal/auth"
	"github.com/eysh-app/eysh/internal/output"
	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the EYSH backend",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		email, _ := cmd.Flags().GetString("email")

		p := auth.NewPrompter()
		p.Out = cmd.ErrOrStderr()
		if email == "" {
			var err error
			if email, err = p.Line("Email: "); err != nil {
				return fmt.Errorf("read email: %w", err)
			}
		}
		password, err := p.Password("Password: ")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		if email == "" || password == "" {
			return output.ErrUsage("email and password are required")
		}

		client := api.New(env.cfg.APIURL, api.WithUserAgent("eysh/"+version))
		tok, err := client.Login(ctx, email, password)
		if err != nil {
			if api.IsUnauthorized(err) {
				return output.ErrAuth("wrong email or password", err)
			}
			return err
		}

		creds := &auth.Credentials{
			AccessToken: tok.AccessToken,
			TokenType:   tok.TokenType,
			BaseURL:     env.cfg.APIURL,
			Email:       email,
			SavedAt:     time.Now(),
		}
		if err := env.credentials().Save(creds); err != nil {
			return fmt.Errorf("save credentials: %w", err)
		}
		return env.out.Print(map[string]any{"ok": true, "email": email, "api_url": env.cfg.APIURL},
			func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Logged in to %s as %s\n", env.cfg.APIURL, email)
				return err
			})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved login for the backend",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := env.credentials().Delete(env.cfg.APIURL); err != nil {
			return fmt.Errorf("delete credentials: %w", err)
		}
		return env.out.Print(map[string]any{"ok": true}, func(w io.Writer) error {
			_, err := fmt.Fprintln(w, "Logged out.")
			return err
		})
	},
}

type whoami struct {
	User      *api.User  `json:"user"`
	APIURL    string     `json:"api_url"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := env.client(ctx, true)
		if err != nil {
			return err
		}
		user, err := client.Me(ctx)
		if err != nil {
			return err
		}

		res := whoami{User: user, APIURL: env.cfg.APIURL}
		authz, _ := env.authorization()
		if info, err := auth.Inspect(authz); err == nil && !info.ExpiresAt.IsZero() {
			res.ExpiresAt = &info.ExpiresAt
		}
		return env.out.Print(res, func(w io.Writer) error {
			pairs := [][2]string{
				{"Name", user.Name},
				{"Email", user.Email},
				{"Role", user.Role},
				{"Server", res.APIURL},
			}
			if len(user.Profile.Subjects) > 0 {
				pairs = append(pairs, [2]string{"Subjects", strings.Join(user.Profile.Subjects, ", ")})
			}
			if user.Profile.TargetUniversity != "" {
				pairs = append(pairs, [2]string{"Target", user.Profile.TargetUniversity})
			}
			if res.ExpiresAt != nil {
				pairs = append(pairs, [2]string{"Token expires", res.ExpiresAt.Local().Format("2006-01-02 15:04")})
			}
			return output.Fields(w, pairs...)
		})
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		var r api.Registration
		r.Email, _ = cmd.Flags().GetString("email")
		r.Name, _ = cmd.Flags().GetString("name")

		p := auth.NewPrompter()
		p.Out = cmd.ErrOrStderr()
		var err error
		if r.Name == "" {
			if r.Name, err = p.Line("Name: "); err != nil {
				return err
			}
		}
		if r.Email == "" {
			if r.Email, err = p.Line("Email: "); err != nil {
				return err
			}
		}
		if r.Password, err = p.Password("Password: "); err != nil {
			return err
		}
		confirm, err := p.Password("Repeat password: ")
		if err != nil {
			return err
		}
		switch {
		case r.Name == "" || r.Email == "" || r.Password == "":
			return output.ErrUsage("name, email and password are required")
		case confirm != r.Password:
			return output.ErrUsage("passwords do not match")
		}

		client := api.New(env.cfg.APIURL, api.WithUserAgent("eysh/"+version))
		user, err := client.Register(ctx, r)
		if err != nil {
			var apiErr *api.Error
			if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest && apiErr.Detail != "" {
				return output.ErrUsage(apiErr.Detail)
			}
			return err
		}
		return env.out.Print(user, func(w io.Writer) error {
			_, err := fmt.Fprintf(w, "Registered %s. Log in with: eysh login --email %s\n", user.Email, user.Email)
			return err
		})
	},
}

func init() {
	loginCmd.Flags().String("email", "", "Account email")
	registerCmd.Flags().String("email", "", "Account email")
	registerCmd.Flags().String("name", "", "Display name")
}
