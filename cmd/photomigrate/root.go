package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"photomigrate/internal/config"
)

type rootOptions struct {
	logLevel string
	output   string
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "photomigrate",
		Short: "Move inline base64 profile photos into object storage",
		Long: "photomigrate reads users whose photo column holds a data:image URI, uploads the decoded\n" +
			"image to the profile-images bucket as <id>-profile.jpg and replaces the column with the public URL.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			warning, err := configureLoggerForCLI(cmd.ErrOrStderr(), opts.logLevel, cfg.LogLevel)
			if err != nil {
				return err
			}
			if warning != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), warning)
			}
			return nil
		},
	}

	cmd.Version = version
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "text", "output format (text, json, yaml)")

	cmd.AddCommand(
		newRunCmd(cfg, opts),
		newConfigCmd(cfg),
	)

	return cmd
}
