package main

import (
	"context"
	"fmt"

	"github.com/lunagic/hermes/hermesservices/janitor"
	"github.com/lunagic/hermes/hermesservices/media"
	"github.com/lunagic/hermes/hermesservices/queue"
	"github.com/lunagic/hermes/hermesservices/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const deleteRequestQueueName = "hermes-delete-requests"

// services are built once per process and shared by every command.
type services struct {
	registry       *prometheus.Registry
	storage        storage.Driver
	media          *media.Service
	deleteRequests queue.Queue[janitor.DeleteRequest]
	janitor        *janitor.Janitor
}

func (cli *cli) buildServices(ctx context.Context) (*services, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	metrics, err := media.NewMetrics(registry)
	if err != nil {
		return nil, err
	}

	storageDriver, err := cli.config.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}

	mediaService := cli.config.Media(
		storageDriver,
		media.WithLogger(cli.logger),
		media.WithMetrics(metrics),
	)

	queueDriver, err := cli.config.Queue()
	if err != nil {
		return nil, fmt.Errorf("queue: %w", err)
	}

	deleteRequests, err := queue.NewQueue[janitor.DeleteRequest](ctx, queueDriver, deleteRequestQueueName)
	if err != nil {
		return nil, err
	}

	sweeper, err := janitor.New(
		mediaService,
		deleteRequests,
		cli.sweepConfig(mediaService.Buckets()),
		janitor.WithLogger(cli.logger),
	)
	if err != nil {
		return nil, err
	}

	return &services{
		registry:       registry,
		storage:        storageDriver,
		media:          mediaService,
		deleteRequests: deleteRequests,
		janitor:        sweeper,
	}, nil
}

// sweepConfig points the janitor at the staging bucket, where uploads that
// never get processed pile up.
func (cli *cli) sweepConfig(buckets media.Buckets) janitor.Config {
	return janitor.Config{
		Bucket: buckets.Input,
		Prefix: cli.config.SweepPrefix,
		MaxAge: cli.config.SweepMaxAge,
	}
}
