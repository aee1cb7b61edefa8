package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type rootOptions struct {
	envFile string
}

func main() {
	// 配置加载前使用的引导日志器
	bootstrap, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = bootstrap.Sync() }()

	if err := newRootCmd(bootstrap).Execute(); err != nil {
		bootstrap.Error("command failed", zap.Error(err))
		_ = bootstrap.Sync()
		os.Exit(1)
	}
}

func newRootCmd(bootstrap *zap.Logger) *cobra.Command {
	opts := &rootOptions{envFile: ".env"}

	serve := newServeCmd(bootstrap, opts)
	root := &cobra.Command{
		Use:           "portal-backend",
		Short:         "Backend service for the company tool portal",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}

	root.PersistentFlags().StringVar(&opts.envFile, "env-file", opts.envFile, "optional .env file; real environment variables take precedence")

	root.AddCommand(
		serve,
		newSeedCmd(bootstrap, opts),
	)

	return root
}
