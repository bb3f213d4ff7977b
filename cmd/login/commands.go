package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/jrsteele09/go-login-server/client"
	apperrors "github.com/jrsteele09/go-login-server/internal/errors"
	"github.com/jrsteele09/go-login-server/loginform"
	"github.com/spf13/cobra"
)

// loginConfig holds configuration for the login command.
type loginConfig struct {
	email    string
	password string
	ref      string
}

func newLoginCmd(root *rootConfig) *cobra.Command {
	cfg := &loginConfig{}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with an email and password",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLogin(cmd, root, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.email, "email", "", "account email")
	cmd.Flags().StringVar(&cfg.password, "password", "", "account password")
	cmd.Flags().StringVar(&cfg.ref, "ref", "", "why the login form was opened (loggedOut ends the stored session first)")

	return cmd
}

func runLogin(cmd *cobra.Command, root *rootConfig, cfg *loginConfig) error {
	ctx := cmd.Context()
	a, err := startApp(ctx, root)
	if err != nil {
		return err
	}
	defer a.stop()

	if cfg.ref == loginform.RefLoggedOut {
		if err := a.restore(); err != nil && !errors.Is(err, apperrors.ErrNoSession) {
			return err
		}
		a.prepareLogout()
	}
	a.connector.Mount(url.Values{loginform.RefParam: []string{cfg.ref}})
	if err := a.settle(); err != nil {
		cmd.PrintErrln("Previous session could not be fully ended:", err)
	}

	form := a.connector.Form()
	if err := form.Change(loginform.FieldEmail, cfg.email); err != nil {
		return err
	}
	if err := form.Change(loginform.FieldPassword, cfg.password); err != nil {
		return err
	}

	view := a.connector.View()
	if view.EmailError {
		return errors.New("enter a valid email address")
	}
	if view.PasswordError {
		return errors.New("enter a password")
	}

	if err := a.connector.Submit(ctx); err != nil {
		var gqlErr *client.Error
		if errors.As(err, &gqlErr) {
			return errors.New(a.connector.ServerError())
		}
		return fmt.Errorf("login failed: %w", err)
	}
	if err := a.settle(); err != nil {
		return fmt.Errorf("logged in but the session was not saved: %w", err)
	}

	cmd.Printf("Logged in as %s (%s)\n", cfg.email, a.store.State().LoginID)
	return nil
}

func newLogoutCmd(root *rootConfig) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "End the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := startApp(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer a.stop()

			if err := a.restore(); errors.Is(err, apperrors.ErrNoSession) {
				cmd.Println("Not logged in")
				return nil
			} else if err != nil {
				return err
			}
			if err := a.logout(all); err != nil {
				// The local session is already gone
				cmd.PrintErrln("Server logout failed:", err)
			}
			cmd.Println("Logged out")
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "end every session of the account, on every device")

	return cmd
}

func newStatusCmd(root *rootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := startApp(ctx, root)
			if err != nil {
				return err
			}
			defer a.stop()

			if err := a.restore(); errors.Is(err, apperrors.ErrNoSession) {
				cmd.Println("Not logged in")
				return nil
			} else if err != nil {
				return err
			}
			state := a.store.State()

			user, err := a.client.Me(ctx, state.Token)
			if err != nil {
				return fmt.Errorf("status: %w", err)
			}
			if user == nil {
				if err := a.sessionExpired(); err != nil {
					cmd.PrintErrln("Session cleanup failed:", err)
				}
				cmd.Println("Session expired, log in again")
				return nil
			}

			cmd.Printf("Logged in as %s (%s)\n", user.Email, user.ID)
			if user.LastLogin != nil {
				cmd.Printf("Last login %s\n", user.LastLogin.Local().Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}

func startApp(ctx context.Context, root *rootConfig) (*app, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(root)
	if err != nil {
		return nil, err
	}
	if err := a.start(ctx); err != nil {
		return nil, err
	}
	return a, nil
}
