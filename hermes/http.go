package hermes

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/lunagic/poseidon/poseidon"
)

func WithHandler(path string, handler http.Handler) ConfigurationFunc {
	return func(app *App) error {
		if _, found := app.handlers[path]; found {
			return fmt.Errorf("duplicate handler path: %s", path)
		}

		app.handlers[path] = handler

		return nil
	}
}

func WithMiddlewares(middlewares poseidon.Middlewares) ConfigurationFunc {
	return func(app *App) error {
		app.middlewares = middlewares

		return nil
	}
}

// Serve the application over HTTP until ctx is done
func (app *App) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", app.config.ListenAddr())
	if err != nil {
		return err
	}

	app.logger.Info(
		"Server Listen on HTTP",
		"addr", fmt.Sprintf("http://%s", strings.ReplaceAll(listener.Addr().String(), "[::]", "0.0.0.0")),
	)

	server := &http.Server{
		Handler:           app.Handler(),
		ReadHeaderTimeout: time.Second * 10,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			app.logger.Error("Server Shutdown", "error", err)
		}
	}()

	return server.Serve(listener)
}

func (app *App) Handler() http.Handler {
	mux := http.NewServeMux()

	// Add all the handlers
	for path, handler := range app.handlers {
		mux.Handle(path, handler)
	}

	return app.middlewares.Apply(mux)
}
