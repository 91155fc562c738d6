package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/dmitrijs2005/storefront/internal/server/config"
	"github.com/dmitrijs2005/storefront/internal/server/events"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/storefront/internal/server/services"
	"github.com/spf13/cobra"
)

// env is what every subcommand needs: config, logger and an open pool.
type env struct {
	cfg    *config.Config
	logger logging.Logger
	db     *sql.DB
	rm     repomanager.RepositoryManager
}

type options struct {
	configFile string
	dsn        string
	logLevel   string
	timeout    time.Duration
	policy     string
}

// openEnv is a seam for tests.
var openEnv = func(ctx context.Context, o *options) (*env, error) {
	cfg := config.LoadEnvConfig()
	if o.dsn != "" {
		cfg.DatabaseDSN = o.dsn
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}

	logger, err := logging.New(cfg.LogBackend, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	db, err := repomanager.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	rm, err := repomanager.NewPostgresRepositoryManager(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &env{cfg: cfg, logger: logger, db: db, rm: rm}, nil
}

// withEnv opens the environment for the duration of fn.
func withEnv(o *options, fn func(ctx context.Context, e *env) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
		defer cancel()

		e, err := openEnv(ctx, o)
		if err != nil {
			return err
		}
		defer func() { _ = e.db.Close() }()
		return fn(ctx, e)
	}
}

func newRootCmd() *cobra.Command {
	o := &options{}

	root := &cobra.Command{
		Use:           "admin",
		Short:         "Storefront CMS maintenance",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&o.configFile, "config", "c", "", "JSON config file")
	root.PersistentFlags().StringVar(&o.dsn, "dsn", "", "database DSN (overrides config)")
	root.PersistentFlags().StringVar(&o.logLevel, "log-level", "", "log level (overrides config)")
	root.PersistentFlags().DurationVar(&o.timeout, "timeout", 2*time.Minute, "operation timeout")

	root.AddCommand(newMigrateCmd(o), newSetPermissionsCmd(o), newSeedCmd(o))
	return root
}

func newMigrateCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: withEnv(o, func(ctx context.Context, e *env) error {
			if err := e.rm.RunMigrations(ctx, e.db); err != nil {
				return err
			}
			e.logger.Info(ctx, "migrations applied")
			return nil
		}),
	}
}

func newSetPermissionsCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-permissions",
		Short: "Grant role permissions from a YAML policy",
		Long: `Grant role permissions from a YAML policy.

Without --policy the built-in policy is used: public and authenticated
roles may read articles, categories, authors and products; authenticated
users may also read and update their own profile.`,
		Args: cobra.NoArgs,
		RunE: withEnv(o, func(ctx context.Context, e *env) error {
			policy, err := services.LoadPolicy(o.policy)
			if err != nil {
				return err
			}
			perms := services.NewPermissionService(e.db, e.rm, e.logger)
			created, existing, err := perms.Bootstrap(ctx, policy)
			if err != nil {
				return err
			}
			fmt.Printf("permissions: %d granted, %d already present\n", created, existing)
			return nil
		}),
	}
	cmd.Flags().StringVar(&o.policy, "policy", "", "policy YAML file")
	return cmd
}

func newSeedCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert demo categories, authors, articles and products",
		Args:  cobra.NoArgs,
		RunE: withEnv(o, func(ctx context.Context, e *env) error {
			content := services.NewContentService(e.rm, events.NewNopPublisher(e.logger), e.logger, e.cfg)
			sum, err := content.SeedDemoContent(ctx, time.Now())
			if err != nil {
				return err
			}
			fmt.Printf("seeded %d categories, %d authors, %d articles, %d products\n",
				sum.Categories, sum.Authors, sum.Articles, sum.Products)
			return nil
		}),
	}
}
