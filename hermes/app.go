package hermes

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"sync"

	"github.com/google/uuid"
	"github.com/lunagic/hermes/hermesservices/cache"
	"github.com/lunagic/poseidon/poseidon"
)

type ConfigurationFunc func(app *App) error

func WithLogger(logger *slog.Logger) ConfigurationFunc {
	return func(app *App) error {
		app.logger = logger

		return nil
	}
}

func NewApp(
	ctx context.Context,
	config Config,
	configFuncs ...ConfigurationFunc,
) (
	*App,
	error,
) {
	// Build the app with the defaults
	app := &App{
		config:       config,
		instanceUUID: uuid.NewString(),
		handlers:     map[string]http.Handler{},
		logger:       slog.Default(),
		typeScript: typeScriptConfig{
			types:            map[string]reflect.Type{},
			ignoredArguments: map[reflect.Type]bool{},
		},
		autoRouter: autoRouterConfig{
			argumentMapping: map[reflect.Type]func(w http.ResponseWriter, r *http.Request) (reflect.Value, error){},
		},
	}

	// Process all config functions provided by the user
	for _, configFunc := range configFuncs {
		if err := configFunc(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

type App struct {
	config           Config
	instanceUUID     string
	logger           *slog.Logger
	jobs             []BackgroundJob
	jobsCacheService cache.Driver
	consumers        []consumer
	typeScript       typeScriptConfig
	autoRouter       autoRouterConfig
	handlers         map[string]http.Handler
	middlewares      poseidon.Middlewares
}

// Start runs the background jobs and queue consumers, then serves HTTP until
// ctx is done.
func (app *App) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := app.Background(ctx); err != nil {
		return err
	}

	waitGroup := &sync.WaitGroup{}
	for _, consumer := range app.consumers {
		waitGroup.Add(1)
		go func() {
			defer waitGroup.Done()
			consumer(ctx)
		}()
	}

	err := app.Serve(ctx)
	cancel()
	waitGroup.Wait()

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return err
}
