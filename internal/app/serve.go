package app

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"watch-catalog/internal/api"
)

// Serve runs the HTTP query API until interrupted, then drains in-flight
// requests within the configured shutdown timeout.
func (a *App) Serve(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot serve")
	}
	defer closeStore()

	router := api.NewRouter(a.newEngine(store), a.Logger)
	server := &http.Server{
		Addr:         a.Config.Server.Addr,
		Handler:      router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		a.Logger.Info().Str("addr", server.Addr).Msg("http server listening")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err = <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	a.Logger.Info().Msg("shutting down http server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		a.Logger.Error().Err(err).Msg("forced shutdown")
		return err
	}

	a.Logger.Info().Msg("http server stopped")
	return nil
}
