package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/lunagic/hermes/hermes"
	"github.com/lunagic/hermes/hermesapi"
	"github.com/lunagic/hermes/hermesservices/janitor"
	"github.com/lunagic/hermes/hermesservices/media"
	"github.com/lunagic/hermes/hermesservices/storage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func newServeCommand(cli *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the media API, consume delete requests and run scheduled sweeps",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			services, err := cli.buildServices(ctx)
			if err != nil {
				return err
			}

			cacheDriver, err := cli.config.Cache(ctx)
			if err != nil {
				return err
			}

			configFuncs := []hermes.ConfigurationFunc{
				hermes.WithLogger(cli.logger),
				hermes.WithHandler("/metrics", promhttp.HandlerFor(services.registry, promhttp.HandlerOpts{})),
				hermesapi.WithRouter(services.media, cli.logger),
				hermes.WithQueue(services.deleteRequests, services.janitor.HandleDeleteRequest),
				hermes.WithBackgroundJobs(cacheDriver, []hermes.BackgroundJob{
					hermes.NewBackgroundJob("sweep", cli.config.SweepInterval, func(ctx context.Context) error {
						_, err := services.janitor.Sweep(ctx)
						return err
					}),
				}),
			}

			// The local driver answers its own presigned uploads and public links
			if localDriver, ok := services.storage.(*storage.DriverLocal); ok {
				configFuncs = append(configFuncs, hermes.WithHandler(
					hermes.LocalStoragePrefix+"/",
					http.StripPrefix(hermes.LocalStoragePrefix, localDriver),
				))
			}

			app, err := hermes.NewApp(ctx, cli.config, configFuncs...)
			if err != nil {
				return err
			}

			return app.Start(ctx)
		},
	}
}

func newSweepCommand(cli *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Request deletion of stale uploads once",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			services, err := cli.buildServices(ctx)
			if err != nil {
				return err
			}

			sweeper := services.janitor

			// Nothing consumes an in-process queue after exit, so delete right away
			if cli.config.AppDriverQueue == "memory" {
				sweeper, err = janitor.New(
					services.media,
					janitor.PublisherFunc(services.janitor.HandleDeleteRequest),
					cli.sweepConfig(services.media.Buckets()),
					janitor.WithLogger(cli.logger),
				)
				if err != nil {
					return err
				}
			}

			count, err := sweeper.Sweep(ctx)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d stale objects\n", count)

			return err
		},
	}
}

func newGrantCommand(cli *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "grant <AUDIO|VIDEO> <key>",
		Short: "Issue an upload URL for one object",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mediaType, err := media.ParseMediaType(args[0])
			if err != nil {
				return err
			}

			services, err := cli.buildServices(cmd.Context())
			if err != nil {
				return err
			}

			grant, err := services.media.IssueUploadGrant(cmd.Context(), mediaType, args[1])
			if err != nil {
				return err
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")

			return encoder.Encode(grant)
		},
	}
}

func newTypeScriptCommand(cli *cli) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "typescript",
		Short: "Generate the TypeScript client for the media API",
		RunE: func(cmd *cobra.Command, args []string) error {
			writer := cmd.OutOrStdout()
			if output != "" {
				file, err := os.Create(output)
				if err != nil {
					return err
				}
				defer func() {
					_ = file.Close()
				}()
				writer = file
			}

			app, err := hermes.NewApp(
				cmd.Context(),
				cli.config,
				hermes.WithTypeScriptTypes("Hermes", hermesapi.TypeScriptTypes()),
				hermesapi.WithRouter(nil, cli.logger),
			)
			if err != nil {
				return err
			}

			return app.WriteTypeScript(writer)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write instead of stdout")

	return cmd
}
