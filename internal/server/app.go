// Package server wires the CMS together: database and migrations,
// permission bootstrap, upload storage, event publishing, and the HTTP
// server, with graceful shutdown on SIGINT/SIGTERM.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/dmitrijs2005/storefront/internal/server/config"
	"github.com/dmitrijs2005/storefront/internal/server/events"
	"github.com/dmitrijs2005/storefront/internal/server/gqlapi"
	"github.com/dmitrijs2005/storefront/internal/server/httpapi"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/storefront/internal/server/services"
	"github.com/dmitrijs2005/storefront/internal/server/storage"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config    *config.Config
	logger    logging.Logger
	db        *sql.DB
	publisher events.Publisher
	server    *httpapi.Server
}

// openDB is a seam for tests.
var openDB = repomanager.Open

// newProvider picks the upload storage named by the config. The second
// return value is the directory to serve as /uploads/, if any.
func newProvider(ctx context.Context, c *config.Config) (storage.Provider, string, error) {
	switch c.UploadProvider {
	case config.ProviderLocal, "":
		local, err := storage.NewLocal(c.PublicDir)
		if err != nil {
			return nil, "", err
		}
		return local, local.Dir(), nil
	case config.ProviderS3:
		s3, err := storage.NewS3(ctx, storage.S3Config{
			AccessKey:    c.S3AccessKey,
			SecretKey:    c.S3SecretKey,
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
			PresignTTL:   c.S3PresignTTL,
		})
		if err != nil {
			return nil, "", err
		}
		return s3, "", nil
	default:
		return nil, "", fmt.Errorf("unknown upload provider %q", c.UploadProvider)
	}
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(c.LogBackend, c.LogLevel)
	if err != nil {
		return nil, err
	}

	db, err := openDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app := &App{config: c, logger: logger, db: db}
	if err := app.init(ctx); err != nil {
		app.close(ctx)
		return nil, err
	}
	return app, nil
}

func (app *App) init(ctx context.Context) error {
	c := app.config

	rm, err := repomanager.NewPostgresRepositoryManager(app.db)
	if err != nil {
		return err
	}
	if err := rm.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	perms := services.NewPermissionService(app.db, rm, app.logger)
	if _, _, err := perms.Bootstrap(ctx, services.DefaultPolicy()); err != nil {
		return fmt.Errorf("permissions bootstrap: %w", err)
	}

	provider, uploadsDir, err := newProvider(ctx, c)
	if err != nil {
		return fmt.Errorf("upload provider: %w", err)
	}

	app.publisher, err = events.NewPublisher(ctx, events.RabbitMQConfig{
		URL:      c.AMQPURL,
		Exchange: c.AMQPExchange,
		Queue:    c.AMQPQueue,
	}, app.logger)
	if err != nil {
		return err
	}

	users := services.NewUserService(app.db, rm, app.publisher, app.logger, c)
	content := services.NewContentService(rm, app.publisher, app.logger, c)
	uploads := services.NewUploadService(app.db, rm, provider, app.publisher, app.logger, c.UploadSizeLimit)

	schema, err := gqlapi.NewSchema(users, content, perms, app.logger)
	if err != nil {
		return fmt.Errorf("graphql schema: %w", err)
	}

	app.server = httpapi.NewServer(c.HTTPAddr, app.logger, httpapi.Deps{
		Users:       users,
		Uploads:     uploads,
		Permissions: perms,
		GraphQL:     schema,
		UploadsDir:  uploadsDir,
		UploadLimit: c.UploadSizeLimit,
	})
	return nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) close(ctx context.Context) {
	if app.publisher != nil {
		if err := app.publisher.Close(); err != nil {
			app.logger.Warn(ctx, "closing publisher", "error", err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Warn(ctx, "closing database", "error", err)
		}
	}
	if s, ok := app.logger.(interface{ Sync() error }); ok {
		_ = s.Sync()
	}
}

// Run serves until a signal arrives or ctx is cancelled.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.server.Run(gctx)
	})

	err := g.Wait()
	app.close(context.Background())
	if err != nil && !errors.Is(err, context.Canceled) {
		app.logger.Error(ctx, "server stopped", "error", err)
		return err
	}
	app.logger.Info(ctx, "App stopped")
	return nil
}
