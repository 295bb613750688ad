package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lezoo/keep/internal/app"
	"github.com/lezoo/keep/internal/resource"
)

func newLoginCmd(e *env) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		Long:  "Sign in with email and password. The password is read from stdin when --password is omitted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}
			return e.withApp(func(ctx context.Context, a *app.App) error {
				user, err := a.Session.Login(ctx, email, password)
				if err != nil {
					return err
				}
				return e.message("Signed in as %s", user.Email)
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func newLogoutCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withApp(func(ctx context.Context, a *app.App) error {
				if err := a.Session.SignOut(ctx); err != nil {
					return err
				}
				return e.message("Signed out")
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

type whoami struct {
	ID        int64      `json:"id,omitempty"`
	Name      string     `json:"name,omitempty"`
	Email     string     `json:"email"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func newWhoamiCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withApp(func(ctx context.Context, a *app.App) error {
				user, ok := a.Session.User()
				if !ok {
					return resource.ErrNotAuthenticated
				}
				out := whoami{ID: user.ID, Name: user.Name, Email: user.Email}
				if exp, ok := a.Session.ExpiresAt(); ok {
					out.ExpiresAt = &exp
				}
				return e.render(out, func(w io.Writer) {
					_, _ = fmt.Fprintf(w, "Email:\t%s\n", out.Email)
					if out.Name != "" {
						_, _ = fmt.Fprintf(w, "Name:\t%s\n", out.Name)
					}
					if out.ExpiresAt != nil {
						_, _ = fmt.Fprintf(w, "Expires:\t%s\n", out.ExpiresAt.Local().Format(time.RFC1123))
					}
				})
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}
