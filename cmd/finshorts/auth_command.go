package main

import (
	"fmt"
	"os"

	"finshorts/publish"

	"github.com/spf13/cobra"
)

func newAuthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authorize YouTube uploads and save the OAuth token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(cfg.Paths.Credentials, 0o700); err != nil {
				return fmt.Errorf("creating credentials dir: %w", err)
			}
			oauthCfg, err := publish.LoadOAuthConfig(cfg.ClientSecretPath())
			if err != nil {
				return fmt.Errorf("%w (download the OAuth client JSON to %s)", err, cfg.ClientSecretPath())
			}
			return publish.Authorize(cmd.Context(), oauthCfg, cfg.TokenPath(), cmd.OutOrStdout())
		},
	}
}
