package cli

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newLoginCmd(app *App) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and persist the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			var err error
			if username == "" {
				if username, err = prompt(app, in, "Username"); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = prompt(app, in, "Password"); err != nil {
					return err
				}
			}

			pair, err := app.auth.Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			app.manager.Login(pair.Access, pair.Refresh)

			if identity, ok := app.manager.Identity(); ok {
				fmt.Fprintf(app.out, "Logged in as %s (%s)\n", identity.Username, identity.Role)
			} else {
				fmt.Fprintln(app.out, "Logged in")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when empty)")
	return cmd
}

func prompt(app *App, in *bufio.Reader, field string) (string, error) {
	fmt.Fprintf(app.errOut, "%s: ", field)
	line, err := in.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(field), err)
		}
		return "", fmt.Errorf("%s is required", strings.ToLower(field))
	}
	return line, nil
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the persisted session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app.manager.Logout()
			fmt.Fprintln(app.out, "Logged out")
			return nil
		},
	}
}

type whoami struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Pays      string    `json:"pays,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

func newWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the identity of the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.authorize(); err != nil {
				return err
			}
			identity, ok := app.manager.Identity()
			if !ok {
				fmt.Fprintln(app.out, "Logged in, but the access token could not be decoded")
				return nil
			}

			me := whoami{Username: identity.Username, Role: identity.Role, Pays: identity.CountryScope, ExpiresAt: identity.ExpiresAt}
			return app.render(me, []string{"USERNAME", "ROLE", "PAYS", "EXPIRES"}, func() [][]string {
				pays := me.Pays
				if pays == "" {
					pays = "*"
				}
				return [][]string{{me.Username, me.Role, pays, me.ExpiresAt.Local().Format(time.RFC3339)}}
			})
		},
	}
}

func newTokenCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Print the Authorization header value of the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.authorize(); err != nil {
				return err
			}
			fmt.Fprintln(app.out, app.manager.AuthorizationHeaderValue())
			return nil
		},
	}
}
