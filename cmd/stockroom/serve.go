package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/emberline/stockroom/internal/auth"
	"github.com/emberline/stockroom/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the stock and show API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), false, func(a *app) error {
				return runServer(cmd.Context(), a)
			})
		},
	}
}

func runServer(ctx context.Context, a *app) error {
	handler, err := server.NewHTTPHandler(server.Dependencies{
		Gate:           a.gate,
		Inventory:      a.store,
		Users:          a.users,
		Presence:       a.presence,
		AllowedOrigins: a.config.AllowedOrigins,
		Logger:         a.logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    a.config.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go logPresence(signalCtx, a.presence, a.logger)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server starting", zap.String("address", a.config.HTTPAddress))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func logPresence(ctx context.Context, presence *auth.PresenceDispatcher, logger *zap.Logger) {
	stream, cleanup := presence.Subscribe(ctx)
	defer cleanup()
	for event := range stream {
		logger.Info("presence changed",
			zap.String("kind", event.Kind),
			zap.Int64("user_id", event.User.ID),
			zap.String("name", event.User.Name),
		)
	}
}
