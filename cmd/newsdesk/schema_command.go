package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"NewsDesk/internal/infrastructure/storage"
)

func newSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the Postgres schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), storage.Schema())
			return nil
		},
	}
}
