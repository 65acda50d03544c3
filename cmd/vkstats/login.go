package main

import (
	"context"

	"github.com/spf13/cobra"

	"vkstats/pkg/auth"
	"vkstats/pkg/config"
	"vkstats/pkg/logger"
)

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to VK and store the access token",
	Long: `Sign in to VK with account credentials and store the access token for
subsequent runs.

The token is kept in the system keychain when one is available, with a
plain file under the user config directory as fallback. Run this again to
replace a stored token.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLogin()
	},
}

// logoutCmd removes the stored token
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored access token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := auth.NewManager()
		if err != nil {
			return err
		}
		return store.Delete()
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}

func runLogin() error {
	flags := make(map[string]interface{})
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return err
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return err
	}
	log := logger.GetLogger()

	creds, err := auth.PromptCredentials()
	if err != nil {
		return err
	}

	flow, err := auth.NewFlow(auth.FlowOptions{
		AuthorizeURL: cfg.VK.OAuthURL,
		RedirectURI:  cfg.VK.RedirectURI,
		ClientID:     cfg.VK.AppID,
		Scope:        cfg.VK.Scope,
	}, log)
	if err != nil {
		return err
	}

	token, err := flow.Login(context.Background(), creds)
	if err != nil {
		return err
	}

	store, err := auth.NewManager()
	if err != nil {
		return err
	}
	if err := store.Save(token); err != nil {
		return err
	}

	log.InfoWithFields("signed in", map[string]interface{}{
		"user_id": token.UserID,
	})
	return nil
}
