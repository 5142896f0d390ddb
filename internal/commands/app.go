package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/cleared-dev/razao/internal/config"
	"github.com/cleared-dev/razao/internal/ledger"
	"github.com/cleared-dev/razao/internal/obs"
	"github.com/cleared-dev/razao/internal/posting"
	"github.com/cleared-dev/razao/internal/storage"
)

// app is a loaded ledger plus the resources behind it.
type app struct {
	cfg         *config.Config
	log         *logrus.Logger
	ledger      *ledger.Store
	registry    *prometheus.Registry
	metricsFile string
	closers     []io.Closer
}

// openApp reads configuration, opens storage and loads the ledger.
func openApp(ctx context.Context, opts *globalOptions, stderr io.Writer) (*app, error) {
	if err := config.LoadEnvFile(opts.envFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load(opts.configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		cfg = config.Default("")
	case err != nil:
		return nil, err
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if cfg.CompanyID == "" {
		return nil, fmt.Errorf("company_id is not set (in %s or %s)", opts.configPath, config.EnvCompanyID)
	}

	log, err := obs.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	log.SetOutput(stderr)

	fixtures := cfg.Storage.Fixtures
	if fixtures != "" && !filepath.IsAbs(fixtures) {
		fixtures = filepath.Join(filepath.Dir(opts.configPath), fixtures)
	}
	store, closer, err := storage.Open(ctx, storage.Options{
		Driver:   cfg.Storage.Driver,
		DSN:      cfg.Storage.DSN,
		Fixtures: fixtures,
	})
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	a := &app{
		cfg:         cfg,
		log:         log,
		registry:    prometheus.NewRegistry(),
		metricsFile: opts.metricsFile,
		closers:     []io.Closer{closer},
	}

	ledgerOpts := []ledger.Option{
		ledger.WithLogger(log),
		ledger.WithStrict(cfg.Ledger.Strict),
		ledger.WithBatchSize(cfg.Ledger.InstallmentBatchSize),
		ledger.WithMetrics(obs.NewMetrics(a.registry)),
	}
	if cfg.Cache.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr})
		a.closers = append(a.closers, client)
		ledgerOpts = append(ledgerOpts, ledger.WithCache(posting.NewRedisCache(client, cfg.Cache.TTL)))
	}

	a.ledger = ledger.New(store, ledgerOpts...)
	if err := a.ledger.Load(ctx, cfg.CompanyID); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// Close writes the metrics file, if one was requested, and releases storage
// and cache connections.
func (a *app) Close() {
	if a.metricsFile != "" {
		if err := prometheus.WriteToTextfile(a.metricsFile, a.registry); err != nil {
			a.log.WithError(err).Warn("writing metrics file")
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.log.WithError(err).Warn("closing resource")
		}
	}
}
