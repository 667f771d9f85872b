package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"siteledger/internal/blob"
	"siteledger/internal/config"
	"siteledger/internal/core"
	"siteledger/internal/logging"

	"github.com/prometheus/client_golang/prometheus"
)

// runtime is the process wiring shared by every subcommand.
type runtime struct {
	cfg      config.Config
	logger   *slog.Logger
	svc      *core.Service
	store    core.PersistentStore
	blobs    blob.Store
	registry *prometheus.Registry
}

func bootstrap(ctx context.Context, flags *globalFlags, logOut io.Writer) (*runtime, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(logOut, logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return nil, err
	}

	store, err := core.OpenPersistentStore(ctx, core.StorageConfig{
		Driver:      core.StorageDriver(cfg.Storage.Driver),
		SQLitePath:  cfg.Storage.SQLitePath,
		PostgresDSN: cfg.Storage.PostgresDSN,
	}, core.NewDefaultRulesEngine())
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	rt := &runtime{cfg: cfg, logger: logger, store: store}
	rt.blobs, err = blob.Open(ctx, blob.Config{
		Driver: cfg.Blob.Driver,
		FSRoot: cfg.Blob.FSRoot,
		S3: blob.S3Config{
			Bucket:          cfg.Blob.S3.Bucket,
			Region:          cfg.Blob.S3.Region,
			Endpoint:        cfg.Blob.S3.Endpoint,
			PathStyle:       cfg.Blob.S3.PathStyle,
			AccessKeyID:     cfg.Blob.S3.AccessKeyID,
			SecretAccessKey: cfg.Blob.S3.SecretAccessKey,
		},
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("open blob store: %w", err), rt.Close())
	}

	opts := []core.Option{core.WithLogger(logger)}
	if cfg.Metrics.Enabled {
		rt.registry = prometheus.NewRegistry()
		recorder, err := core.NewPrometheusMetricsRecorder(rt.registry)
		if err != nil {
			return nil, errors.Join(err, rt.Close())
		}
		opts = append(opts, core.WithMetricsRecorder(recorder))
	}
	rt.svc = core.NewService(store, opts...)
	logger.Debug("runtime ready",
		"storage", cfg.Storage.Driver,
		"blob", string(rt.blobs.Driver()),
		"metrics", cfg.Metrics.Enabled,
	)
	return rt, nil
}

// Close releases the storage backend.
func (rt *runtime) Close() error {
	if closer, ok := rt.store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
