// Package server wires the claim services together: it opens the database,
// applies migrations, selects the blob backend and builds the services.
// The App owns the database handle and must be closed on shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/claimkeeper/internal/logging"
	"github.com/dmitrijs2005/claimkeeper/internal/server/blobstore"
	"github.com/dmitrijs2005/claimkeeper/internal/server/config"
	"github.com/dmitrijs2005/claimkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/claimkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/claimkeeper/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	registry *prometheus.Registry

	Claims *services.ClaimService
	Query  *services.QueryService
}

// seams for tests
var (
	sqlOpen              = sql.Open
	newRepositoryManager = repomanager.NewPostgresRepositoryManager
	logOutput            io.Writer = os.Stderr
)

// NewApp builds an App from cfg. On error everything opened so far is
// released again.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	logger := logging.NewJSONLogger(logOutput, cfg.LogLevel)

	db, err := sqlOpen("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetConnMaxLifetime(cfg.DBConnMaxLifetime)

	app, err := build(ctx, cfg, logger, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

func build(ctx context.Context, cfg *config.Config, logger logging.Logger, db *sql.DB) (*App, error) {
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}

	rm := newRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, err
	}

	blobs, err := newBlobStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("blob store: %w", err)
	}

	registry := prometheus.NewRegistry()
	met := metrics.New(registry)

	cs, err := services.NewClaimService(db, rm, blobs, met, logger, cfg)
	if err != nil {
		return nil, err
	}
	qs := services.NewQueryService(db, rm, blobs, logger)

	if cfg.SeedSampleData {
		if _, err := cs.SeedSamples(ctx); err != nil {
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	logger.Info(ctx, "app initialized", "blob_backend", cfg.BlobBackend)

	return &App{
		config:   cfg,
		logger:   logger,
		db:       db,
		registry: registry,
		Claims:   cs,
		Query:    qs,
	}, nil
}

func newBlobStore(ctx context.Context, cfg *config.Config) (blobstore.Store, error) {
	switch cfg.BlobBackend {
	case config.BlobBackendS3:
		client, err := blobstore.NewS3Client(ctx, cfg.S3Region, cfg.S3RootUser, cfg.S3RootPassword, cfg.S3BaseEndpoint)
		if err != nil {
			return nil, err
		}
		return blobstore.NewS3Store(client, cfg.S3Bucket, cfg.PublicBaseURL, cfg.MaxAttachmentSize), nil
	default:
		return blobstore.NewFileStore(cfg.UploadDir, cfg.PublicBaseURL, cfg.MaxAttachmentSize)
	}
}

// Registry holds the service metrics, for an HTTP collaborator to expose.
func (app *App) Registry() *prometheus.Registry {
	return app.registry
}

func (app *App) Logger() logging.Logger {
	return app.logger
}

// Close releases the database pool.
func (app *App) Close() error {
	return app.db.Close()
}
