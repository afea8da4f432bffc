package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/flagops/flagscrub/internal/api"
	"github.com/flagops/flagscrub/internal/config"
	"github.com/flagops/flagscrub/internal/history"
	"github.com/flagops/flagscrub/internal/ruleset"
	"github.com/flagops/flagscrub/internal/scan"
	"github.com/flagops/flagscrub/internal/store"
	"github.com/flagops/flagscrub/internal/telemetry"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	setupLogger(cfg.AppEnv)

	rs, err := resolveRuleset(cfg.RulesetFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load ruleset")
	}

	pipeline, err := scan.FromRuleset(rs)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid ruleset")
	}
	log.Info().Int("prefixes", len(rs.Prefixes)).Int("version", rs.Version).Msg("ruleset loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.NewStore(ctx, cfg.StoreType, cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer st.Close()

	recorder := history.NewRecorder(st, nil, cfg.HistoryQueueSize)

	telemetry.Init()

	srvAPI := api.NewServer(pipeline, rs, st, recorder, api.Options{
		AdminAPIKey:    cfg.AdminAPIKey,
		ClientAPIKey:   cfg.ClientAPIKey,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		RateLimitPerIP: cfg.RateLimitPerIP,
	})

	httpSrv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srvAPI.Router(),
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{
		Addr:        cfg.MetricsAddr,
		Handler:     metricsMux,
		ReadTimeout: 3 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics server listening")
		if err := metricsSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Shutdown on signal or on the first listener error
	g.Go(func() error {
		<-gctx.Done()

		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpSrv.Shutdown(shutCtx); err != nil {
			log.Warn().Err(err).Msg("http server shutdown")
		}
		if err := metricsSrv.Shutdown(shutCtx); err != nil {
			log.Warn().Err(err).Msg("metrics server shutdown")
		}
		// Drain queued scans before the store goes away
		if err := recorder.Close(); err != nil {
			log.Warn().Err(err).Msg("history recorder close")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
	log.Info().Msg("stopped")
}

func setupLogger(appEnv string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if appEnv == "dev" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func resolveRuleset(path string) (*ruleset.Ruleset, error) {
	if path == "" {
		return ruleset.Default(), nil
	}
	return ruleset.LoadFile(path)
}
