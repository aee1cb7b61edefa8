package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSeedCmd(bootstrap *zap.Logger, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the schema and insert default tools if the table is empty, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := initApp(cmd.Context(), bootstrap, opts.envFile)
			if err != nil {
				return err
			}
			a.close()
			return nil
		},
	}
}
