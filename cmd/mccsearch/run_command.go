package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/storm-mcc-search/internal/adapter/gridfile"
	httpadapter "github.com/couchcryptid/storm-mcc-search/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/storm-mcc-search/internal/adapter/kafka"
	"github.com/couchcryptid/storm-mcc-search/internal/adapter/mapbox"
	"github.com/couchcryptid/storm-mcc-search/internal/adapter/sqlite"
	"github.com/couchcryptid/storm-mcc-search/internal/config"
	"github.com/couchcryptid/storm-mcc-search/internal/domain"
	"github.com/couchcryptid/storm-mcc-search/internal/observability"
	"github.com/couchcryptid/storm-mcc-search/internal/pipeline"
	"github.com/couchcryptid/storm-mcc-search/internal/precip"
	"github.com/couchcryptid/storm-mcc-search/internal/summary"
)

type runFlags struct {
	frames  string
	serve   bool
	jsonOut bool
	showMCS bool
}

func newRunCommand() *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Search a frame archive and publish the features found",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return runSearch(cmd, cfg, flags)
		},
	}
	cmd.Flags().StringVarP(&flags.frames, "frames", "f", "", "Frame archive (.json, .msgpack)")
	cmd.Flags().BoolVar(&flags.serve, "serve", false, "Keep serving the HTTP API after the run until interrupted")
	cmd.Flags().BoolVar(&flags.jsonOut, "json", false, "Print features as JSON instead of tables")
	cmd.Flags().BoolVar(&flags.showMCS, "mcs", false, "Also report MCS features")
	_ = cmd.MarkFlagRequired("frames")
	return cmd
}

func runSearch(cmd *cobra.Command, cfg *config.Config, flags runFlags) error {
	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ds, err := gridfile.Read(flags.frames)
	if err != nil {
		return err
	}
	logger.Info("frames loaded", "path", flags.frames, "frames", len(ds.Frames),
		"rows", ds.Grid.Rows(), "cols", ds.Grid.Cols())

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var opts pipeline.Options
	var closers []func() error

	if cfg.PrecipEnabled && ds.Precip != nil {
		opts.Enricher = precip.NewEnricher(precip.Bilinear{}, cfg.Criteria, logger)
	}

	// Feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN.
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		opts.Geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	if cfg.SQLitePath != "" {
		store, err := sqlite.Open(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return err
		}
		closers = append(closers, store.Close)
		opts.Loaders = append(opts.Loaders, store)
	}
	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewWriter(cfg, logger)
		closers = append(closers, writer.Close)
		opts.Loaders = append(opts.Loaders, writer)
	}
	defer func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Error("close sink", "error", err)
			}
		}
	}()

	p := pipeline.New(cfg.Criteria, opts, logger, metrics)

	var srv *httpadapter.Server
	if cfg.HTTPAddr != "" {
		srv = httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
		defer shutdownServer(srv, cfg, logger)
	}

	run, err := p.Run(ctx, ds)
	if err != nil {
		var stageErr *domain.StageError
		if errors.As(err, &stageErr) {
			logger.Error("search failed", "stage", stageErr.Stage, "frame", stageErr.Frame,
				"node", stageErr.Node.String(), "error", stageErr.Err)
		}
		return err
	}

	if flags.jsonOut {
		out := runOutput{RunID: run.ID, Period: run.Period, MCC: run.MCCFeatures()}
		if flags.showMCS {
			out.MCS = run.MCSFeatures()
		}
		if err := writeJSON(cmd, out); err != nil {
			return err
		}
	} else {
		printRun(cmd, run, flags.showMCS)
	}

	if flags.serve && srv != nil {
		logger.Info("serving results until interrupted", "addr", cfg.HTTPAddr)
		<-ctx.Done()
	}
	return nil
}

func shutdownServer(srv *httpadapter.Server, cfg *config.Config, logger *slog.Logger) {
	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
}

type runOutput struct {
	RunID  string           `json:"run_id"`
	Period summary.Period   `json:"period"`
	MCC    []domain.Feature `json:"mcc"`
	MCS    []domain.Feature `json:"mcs,omitempty"`
}
