package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/pflag"

	"github.com/conorfennell/knolstudy/internal/api"
	"github.com/conorfennell/knolstudy/internal/sync"
)

func runServe(ctx context.Context, a *app, _ *pflag.FlagSet, _ io.Reader, _ io.Writer) error {
	server := api.NewServer(api.Config{
		DB:      a.db,
		Store:   a.store,
		Study:   a.study,
		Syncer:  a.syncer,
		Metrics: a.metrics,
		Logger:  a.logger,
	})

	if a.cfg.Watch {
		go func() {
			err := a.syncer.Watch(ctx, a.cfg.FlushDelay, func(r sync.Report) {
				a.logger.Info("Deck changed on disk", "deck", r.DeckID, "cards", r.Parsed, "deleted", r.Deleted)
			})
			if err != nil {
				a.logger.Error("Deck watcher stopped", "error", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:              a.cfg.Listen,
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		a.logger.Info("Starting server", "addr", a.cfg.Listen, "metrics", a.metrics != nil, "watch", a.cfg.Watch)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return errors.Join(srv.Shutdown(shutdownCtx), server.Shutdown(shutdownCtx))
}
