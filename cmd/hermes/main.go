package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lunagic/hermes/hermes"
	"github.com/spf13/cobra"
)

type cli struct {
	envFiles []string
	config   hermes.Config
	logger   *slog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(&cli{}).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand(cli *cli) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "hermes",
		Short:         "Media object storage for the processing pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config, err := hermes.NewConfigFromEnvironment(cli.envFiles...)
			if err != nil {
				return err
			}

			cli.config = config
			cli.logger = slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
				Level: config.LogLevel(),
			}))
			slog.SetDefault(cli.logger)

			return nil
		},
	}

	rootCmd.PersistentFlags().StringSliceVar(&cli.envFiles, "env-file", nil, "extra dotenv files, read before .env.local and .env")

	rootCmd.AddCommand(newServeCommand(cli))
	rootCmd.AddCommand(newSweepCommand(cli))
	rootCmd.AddCommand(newGrantCommand(cli))
	rootCmd.AddCommand(newTypeScriptCommand(cli))

	return rootCmd
}
