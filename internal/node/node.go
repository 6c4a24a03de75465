// Copyright 2026 DecentraMind Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package node

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/decentramind-labs/govengine"
	"github.com/decentramind-labs/govengine/api"
	"github.com/decentramind-labs/govengine/database"
	"github.com/decentramind-labs/govengine/event"
	"github.com/decentramind-labs/govengine/holdings"
	"github.com/decentramind-labs/govengine/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// services holds everything opened for a run, in dependency order
type services struct {
	db       *database.Database
	ledger   *holdings.Ledger
	eventBus *event.EventBus
	engine   *govengine.Engine
}

func (s *services) Close() error {
	if s.eventBus != nil {
		s.eventBus.Stop()
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func open(
	cfg *config.Config,
	logger *slog.Logger,
	reg prometheus.Registerer,
) (*services, error) {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	params, err := cfg.Params()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	s := &services{}
	db, err := database.New(&database.Config{
		DataDir:                cfg.DataDir,
		Logger:                 logger,
		PromRegistry:           reg,
		ProposalCacheSize:      cfg.ProposalCacheSize,
		BlobBlockCacheSize:     cfg.Storage.BlobBlockCacheSize,
		BlobIndexCacheSize:     cfg.Storage.BlobIndexCacheSize,
		BlobGcInterval:         cfg.Storage.BlobGcInterval,
		BlobGcDisabled:         cfg.Storage.BlobGcDisabled,
		MetadataVacuumInterval: cfg.Storage.MetadataVacuumInterval,
	})
	if db == nil {
		if err == nil {
			err = errors.New("empty database returned")
		}
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db
	if err != nil {
		var dbErr database.CommitTimestampError
		if !errors.As(err, &dbErr) {
			_ = s.Close()
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		// Treasury records may lag the proposals that reference them
		logger.Warn(
			"database commit timestamps differ",
			"component", "node",
			"error", err,
		)
	}
	s.ledger, err = holdings.Open(cfg.HoldingsFile, logger)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to load holdings: %w", err)
	}
	s.eventBus = event.NewEventBus(reg, logger)
	currency := cfg.Currency
	if currency == "" {
		currency = s.ledger.Currency()
	}
	s.engine, err = govengine.New(
		govengine.NewConfig(
			govengine.WithDatabase(s.db),
			govengine.WithProvider(s.ledger),
			govengine.WithFundsTransfer(s.ledger),
			govengine.WithEventBus(s.eventBus),
			govengine.WithLogger(logger),
			govengine.WithPrometheusRegistry(reg),
			govengine.WithParams(params),
			govengine.WithCurrency(currency),
			govengine.WithTreasurySender(cfg.TreasurySender),
			govengine.WithTreasurySigners(cfg.TreasurySigners...),
			govengine.WithTransferTimeout(cfg.TransferTimeout),
		),
	)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func Run(cfg *config.Config, logger *slog.Logger) error {
	logger.Debug(fmt.Sprintf("config: %+v", cfg), "component", "node")
	// Wait for interrupt/termination signal
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()
	return run(signalCtx, cfg, logger, prometheus.DefaultRegisterer)
}

func run(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	reg prometheus.Registerer,
) error {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	shutdownTracing := func(context.Context) error { return nil }
	if cfg.Tracing {
		var err error
		shutdownTracing, err = setupTracing(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to configure tracing: %w", err)
		}
	}
	s, err := open(cfg, logger, reg)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			logger.Error("database close error", "component", "node", "error", err)
		}
	}()

	apiServer := api.NewAPI(api.APIConfig{
		Logger:          logger,
		Engine:          s.engine,
		Host:            cfg.BindAddr,
		Port:            cfg.ApiPort,
		TlsCertFilePath: cfg.TlsCertFilePath,
		TlsKeyFilePath:  cfg.TlsKeyFilePath,
	})
	if err := apiServer.Start(); err != nil {
		return err
	}

	// Metrics listener
	var metricsServer *http.Server
	metricsErr := make(chan error, 1)
	if cfg.MetricsPort > 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.BindAddr, cfg.MetricsPort),
			Handler:           mux,
			ReadHeaderTimeout: 60 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		}
		logger.Info(
			"serving prometheus metrics on "+metricsServer.Addr,
			"component", "node",
		)
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil &&
				!errors.Is(err, http.ErrServerClosed) {
				metricsErr <- fmt.Errorf("metrics listener: %w", err)
			}
		}()
	}

	// Run the periodic sweep until the context is cancelled
	sweepCtx, sweepCancel := context.WithCancel(ctx)
	defer sweepCancel()
	sweepErr := make(chan error, 1)
	go func() {
		sweepErr <- s.engine.Run(sweepCtx, cfg.SweepInterval)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("signal received, initiating graceful shutdown", "component", "node")
	case runErr = <-metricsErr:
		logger.Error("metrics server failed", "component", "node", "error", runErr)
	case err := <-sweepErr:
		if err != nil {
			runErr = err
			logger.Error("sweeper stopped", "component", "node", "error", err)
		}
	}
	sweepCancel()

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.ShutdownTimeout,
	)
	defer cancel()
	var errs []error
	if err := apiServer.Stop(shutdownCtx); err != nil {
		logger.Error("API server shutdown error", "component", "node", "error", err)
		errs = append(errs, err)
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", "component", "node", "error", err)
			errs = append(errs, err)
		}
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("tracing shutdown error", "component", "node", "error", err)
		errs = append(errs, err)
	}
	if runErr != nil {
		return runErr
	}
	if err := errors.Join(errs...); err != nil {
		logger.Error("shutdown errors occurred", "component", "node", "error", err)
		return err
	}
	logger.Info("shutdown complete", "component", "node")
	return nil
}
