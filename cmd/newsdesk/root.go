package main

import (
	"github.com/spf13/cobra"

	"NewsDesk/internal/config"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	loadConfig := func() config.Config {
		return config.LoadFile(configFlag)
	}

	rootCmd := &cobra.Command{
		Use:           "newsdesk",
		Short:         "News publishing API with live topic notifications",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newServeCommand(loadConfig))
	rootCmd.AddCommand(newTokenCommand(loadConfig))
	rootCmd.AddCommand(newSchemaCommand())

	return rootCmd
}
