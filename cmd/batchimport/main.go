// Command batchimport runs catalog batch imports from JSON or YAML files and
// inspects the batch history, against the same database as the server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/animelib/catalog/internal/config"
	"github.com/animelib/catalog/internal/core"
	_ "github.com/animelib/catalog/internal/core/entities" // Register all kinds
	"github.com/animelib/catalog/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "batchimport",
	Short: "Import catalog records in bulk and inspect past batches",
	Long: `batchimport feeds a file of candidate records through the catalog
import engine, the same one behind POST /api/batch-import/{kind}.

Configuration comes from the environment (DATABASE_URL, IMPORT_*, LOG_*),
with a .env file in the working directory loaded first when present.

Examples:
  batchimport run --kind title --file titles.yaml
  batchimport run --kind studio --file studios.json --on-conflict update
  batchimport run --kind genre --file genres.json --preview
  batchimport batches --kind title --limit 10
  batchimport errors 6f1c2b1e-3a57-4d8e-9a43-2f6f0f0f1a2b`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(batchesCmd)
	rootCmd.AddCommand(errorsCmd)
}

func main() {
	// An interrupt stops waiting for an import slot; a started batch still
	// runs to the end.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// env is what every subcommand needs: the loaded config, an open pool and
// the import service on top of it.
type env struct {
	cfg     *config.Config
	pool    *pgxpool.Pool
	service *core.Service
}

func (e *env) Close() {
	e.pool.Close()
}

// openEnv loads configuration, sets up logging on stderr and connects.
func openEnv(ctx context.Context) (*env, error) {
	// A missing .env file is normal; the environment may already be complete.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.SetupWriter(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "parse database URL")
	}
	poolConfig.MaxConns = 2
	poolConfig.MinConns = 0

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, errors.Wrap(err, "connect to database")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "ping database")
	}

	service, err := core.NewService(pool, core.ServiceConfig{
		MaxRecords:        cfg.Import.MaxRecords,
		MaxConcurrent:     1,
		MaxWaitTime:       cfg.Import.MaxWaitTime,
		DefaultBatchSize:  cfg.Import.DefaultBatchSize,
		SinkRetryAttempts: cfg.Import.SinkRetryAttempts,
		SinkRetryDelay:    cfg.Import.SinkRetryDelay,
		WriteTimeout:      cfg.Import.SinkTimeout,
	})
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &env{cfg: cfg, pool: pool, service: service}, nil
}
