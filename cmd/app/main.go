package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dispatch/cmd"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

var (
	envFile string

	config cmd.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "dispatch",
	Short:         "Delivery order dispatch service",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		var err error
		if config, err = cmd.LoadConfig(envFile); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		if logger, err = cmd.NewLogger(config.LogLevel, config.LogFormat); err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API and run the background jobs",
	Args:  cobra.NoArgs,
	RunE: func(c *cobra.Command, _ []string) error {
		return serve(c.Context())
	},
}

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down]",
	Short:     "Apply or roll back the database schema",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"up", "down"},
	RunE: func(_ *cobra.Command, args []string) error {
		db, err := cmd.OpenDatabase(config)
		if err != nil {
			return err
		}
		if err = cmd.Migrate(db, args[0]); err != nil {
			return err
		}
		logger.Info("migrations applied", zap.String("direction", args[0]))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file seeding the environment")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(ctx context.Context) error {
	var db *gorm.DB
	if config.Store == cmd.StorePostgres {
		var err error
		if db, err = cmd.OpenDatabase(config); err != nil {
			return err
		}
		if err = cmd.Migrate(db, "up"); err != nil {
			return err
		}
	}

	app, err := cmd.NewCompositionRoot(config, db, logger)
	if err != nil {
		return err
	}
	e, err := app.Router()
	if err != nil {
		return err
	}

	jobManager := app.JobManager()
	if err = jobManager.StartAll(); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := fmt.Sprintf("0.0.0.0:%s", config.HTTPPort)
		logger.Info("http server listening", zap.String("addr", addr), zap.String("store", config.Store))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return app.RunRelay(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		jobManager.StopAll()
		// ends open event streams so Shutdown does not wait for them
		app.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
