package cli

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/lawmind/internal/api"
	"github.com/joseph-ayodele/lawmind/internal/entity"
)

func newLoginCmd(app *App) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if email, err = app.valueOrPrompt(email, "Email"); err != nil {
				return err
			}
			if password, err = app.valueOrPrompt(password, "Password"); err != nil {
				return err
			}
			return app.login(cmd, email, password)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")
	return cmd
}

func (a *App) login(cmd *cobra.Command, email, password string) error {
	tok, err := a.Client.Auth.Login(cmd.Context(), email, password)
	if err != nil {
		return err
	}
	if err := a.Session.Login(cmd.Context(), tok.AccessToken); err != nil {
		return err
	}
	a.printf("Logged in as %s\n", email)
	return nil
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.Session.Logout(cmd.Context()); err != nil {
				return err
			}
			app.printf("Logged out\n")
			return nil
		},
	}
}

func newRegisterCmd(app *App) *cobra.Command {
	var req entity.RegisterRequest
	var confirm, organization string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if req.FullName, err = app.valueOrPrompt(req.FullName, "Full name"); err != nil {
				return err
			}
			if req.Email, err = app.valueOrPrompt(req.Email, "Email"); err != nil {
				return err
			}
			if req.Password, err = app.valueOrPrompt(req.Password, "Password"); err != nil {
				return err
			}
			if confirm, err = app.valueOrPrompt(confirm, "Confirm password"); err != nil {
				return err
			}
			if organization != "" {
				req.Organization = &organization
			}

			user, err := app.Client.Auth.Register(cmd.Context(), req, confirm)
			if err != nil {
				return err
			}
			app.printf("Registered %s\n", user.Email)
			return app.login(cmd, req.Email, req.Password)
		},
	}
	cmd.Flags().StringVar(&req.FullName, "name", "", "full name")
	cmd.Flags().StringVar(&req.Email, "email", "", "account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "password (at least 8 characters)")
	cmd.Flags().StringVar(&confirm, "confirm", "", "password confirmation")
	cmd.Flags().StringVar(&organization, "organization", "", "organization (optional)")
	return cmd
}

func newWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			s := app.Session.Current()
			if !s.IsAuthenticated {
				app.printf("Not logged in (%s)\n", app.Client.Base.BaseURL())
				return nil
			}
			app.printf("Logged in to %s with token %s\n", app.Client.Base.BaseURL(), maskToken(s.Token))
			return nil
		},
	}
}

// maskToken keeps only the last four characters.
func maskToken(tok string) string {
	if len(tok) <= 4 {
		return "****"
	}
	return "****" + tok[len(tok)-4:]
}

func newStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the API and the local cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := app.newTable()
			tw.AppendHeader(table.Row{"Component", "Status"})

			h, healthErr := app.Client.Health.Check(cmd.Context())
			if healthErr != nil {
				tw.AppendRow(table.Row{"api", "unreachable: " + api.Message(healthErr)})
			} else {
				tw.AppendRow(table.Row{"api", h.Status})
				if h.Database != "" {
					tw.AppendRow(table.Row{"api database", h.Database})
				}
				if h.AIService != "" {
					tw.AppendRow(table.Row{"ai service", h.AIService})
				}
			}
			switch {
			case app.Cache != nil && app.Cache.HealthCheck(cmd.Context(), 2*time.Second) != nil:
				tw.AppendRow(table.Row{"local cache (" + app.Cache.Dialect() + ")", "unreachable"})
			case app.Jobs != nil:
				jobs, err := app.Jobs.ListActive(cmd.Context())
				if err != nil {
					tw.AppendRow(table.Row{"local cache", "error: " + err.Error()})
				} else {
					tw.AppendRow(table.Row{"local cache", fmt.Sprintf("ok, %d pending extraction(s)", len(jobs))})
				}
			}
			tw.AppendRow(table.Row{"session", sessionLabel(app.Session.IsAuthenticated())})
			tw.Render()
			return healthErr
		},
	}
}

func sessionLabel(ok bool) string {
	if ok {
		return "logged in"
	}
	return "logged out"
}

// shortTime renders API timestamps for tables.
func shortTime(t entity.Timestamp) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.DateTime)
}
