package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/zappai-go/zappai/config"
	"github.com/zappai-go/zappai/store"
)

var (
	dbDSN    string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "zappai",
	Short: "Agronomic forecasting CLI",
	Long:  `Ingests climate and crop-yield data, trains the climate generator and crop-yield regressor, and runs the planting-window optimizer.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		configureLogging(logLevel)
	},
}

// Execute runs the root command, exiting the process with status 1 on
// failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cfg := config.Load()

	rootCmd.PersistentFlags().StringVar(&dbDSN, "db-dsn", cfg.DatabaseDSN, "postgres connection string")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
}

func configureLogging(level string) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
}

// openStore opens the configured database and wraps it as a *store.Store,
// bootstrapping the schema via AutoMigrate. The connection attempt is retried
// with backoff since a freshly started database is the one external
// dependency every subcommand needs before it can do anything else.
func openStore() (*store.Store, error) {
	cfg := config.Load()

	var db *gorm.DB
	err := store.RetryDownload(context.Background(), cfg.DownloadMaxRetries, time.Second, func(ctx context.Context) error {
		opened, err := gorm.Open(postgres.Open(dbDSN), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)})
		if err != nil {
			return err
		}
		db = opened
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := store.New(db)
	if err := s.AutoMigrate(); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return s, nil
}
