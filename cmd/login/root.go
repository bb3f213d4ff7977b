package main

import (
	"github.com/jrsteele09/go-login-server/internal/config"
	"github.com/spf13/cobra"
)

// rootConfig holds the flags shared by every subcommand.
type rootConfig struct {
	serverURL string
	folder    string
}

// NewRootCmd creates the root command for the login CLI.
func NewRootCmd(c config.ClientConfig) *cobra.Command {
	cfg := &rootConfig{}

	cmd := &cobra.Command{
		Use:           "login",
		Short:         "Log in to a go-login-server instance",
		Long:          `Log in, log out and show the current session. The session is kept in a file in the data folder.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfg.serverURL, "server", c.GetServerURL(), "login server base URL")
	cmd.PersistentFlags().StringVar(&cfg.folder, "folder", c.GetDataFolder(), "folder holding the session file")

	cmd.AddCommand(newLoginCmd(cfg))
	cmd.AddCommand(newLogoutCmd(cfg))
	cmd.AddCommand(newStatusCmd(cfg))

	return cmd
}
