// Catalogus - Data Catalog Activity Streams
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

// Package main is the entry point for the Catalogus server.
//
// Catalogus records and serves activity streams for a data catalog:
// an append-only log of who did what to which dataset, group,
// organization or user, with per-subject feeds, a fan-in dashboard
// feed, snapshot diffing and unread tracking.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered Koanf v2 sources (defaults, YAML file,
//     CATALOGUS_* environment variables)
//  2. Database: DuckDB with the activity schema migrations
//  3. Catalog directory: object existence, state and follow graph
//  4. Query engine, dispatcher and dashboard tracker
//  5. HTTP server: chi router with graceful shutdown
//
// # Signal Handling
//
// The server shuts down gracefully on SIGINT and SIGTERM: it stops
// accepting new connections, waits for in-flight requests up to the
// configured shutdown timeout, then closes the database.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/catalogus/internal/activity"
	"github.com/tomtom215/catalogus/internal/api"
	"github.com/tomtom215/catalogus/internal/catalog"
	"github.com/tomtom215/catalogus/internal/config"
	"github.com/tomtom215/catalogus/internal/dashboard"
	"github.com/tomtom215/catalogus/internal/database"
	"github.com/tomtom215/catalogus/internal/dispatch"
	"github.com/tomtom215/catalogus/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Int("default_page_limit", cfg.Activity.DefaultPageLimit).
		Msg("Configuration loaded")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized")

	directory := catalog.NewDirectory(db.Conn())
	store := activity.NewDuckDBStore(db.Conn())

	engine := activity.NewEngine(activity.EngineConfig{
		Store:        store,
		Directory:    directory,
		Graph:        directory,
		Members:      directory,
		HiddenActors: cfg.HiddenActors(),
		DefaultLimit: cfg.Activity.DefaultPageLimit,
		MaxLimit:     cfg.Activity.MaxPageLimit,
	})

	dispatcher := dispatch.NewDispatcher(engine, store, directory)

	markers := dashboard.NewDuckDBMarkerStore(db.Conn())
	tracker := dashboard.NewTracker(markers, engine, cfg.Activity.MaxPageLimit)

	handlers := api.NewHandlers(engine, tracker, dispatcher, catalog.AllowAll{}, db)
	router := api.NewRouter(handlers, cfg.Server)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Activity.RetentionDays > 0 {
		go retentionLoop(ctx, engine, cfg.Activity.RetentionDays)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("HTTP server failed")
		}
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("HTTP server shutdown error")
	}

	logging.Info().Msg("Application stopped gracefully")
}

// retentionLoop purges log entries older than the retention window
// once a day.
func retentionLoop(ctx context.Context, engine *activity.Engine, days int) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		cutoff := time.Now().UTC().AddDate(0, 0, -days)
		deleted, err := engine.Purge(ctx, activity.Purge{Before: &cutoff})
		if err != nil {
			logging.Error().Err(err).Msg("Retention purge failed")
		} else if deleted > 0 {
			logging.Info().
				Int64("deleted", deleted).
				Time("cutoff", cutoff).
				Msg("Retention purge completed")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
