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

	"github.com/cuemby/maintwatch/pkg/action"
	"github.com/cuemby/maintwatch/pkg/log"
	"github.com/cuemby/maintwatch/pkg/metadata"
	"github.com/cuemby/maintwatch/pkg/metrics"
	"github.com/cuemby/maintwatch/pkg/orchestrator"
	"github.com/cuemby/maintwatch/pkg/storage"
	"github.com/cuemby/maintwatch/pkg/tracker"
	"github.com/cuemby/maintwatch/pkg/types"
	"github.com/cuemby/maintwatch/pkg/watcher"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree around its own viper instance
func newRootCmd() *cobra.Command {
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:   "maintwatch",
		Short: "Drain the local database node around host maintenance",
		Long: `maintwatch watches the compute metadata server for host maintenance
events. When maintenance starts it quiesces the local database node and
reclusters; when maintenance ends it undoes the quiesce and reclusters again.

The agent runs until the metadata server returns an unrecoverable error or
it receives SIGINT/SIGTERM.`,
		Version:      Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return readConfigFile(v)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(v)
		},
	}
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"maintwatch version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	bindFlags(rootCmd.PersistentFlags(), v)

	rootCmd.AddCommand(newStateCmd(v))
	rootCmd.AddCommand(newConfigCmd(v))
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

func runWatch(v *viper.Viper) error {
	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}

	level, _ := log.ParseLevel(cfg.LogLevel)
	log.Init(log.Config{Level: level, JSONOutput: cfg.LogJSON})
	log.WithRunID(uuid.NewString())
	metrics.SetVersion(Version)

	client := metadata.NewClient(metadata.Config{
		BaseURL:    cfg.MetadataURL,
		Headers:    cfg.Headers,
		TimeoutSec: cfg.TimeoutSec,
	})

	logger := log.WithComponent("main")
	logger.Info().
		Str("version", Version).
		Str("endpoint", client.Endpoint()).
		Int("timeout_sec", cfg.TimeoutSec).
		Bool("persist", cfg.Persist).
		Str("state_path", cfg.StatePath).
		Msg("Starting maintwatch")

	var store storage.Store = storage.NewMemoryStore(types.None)
	if cfg.Persist {
		store, err = storage.Open(cfg.StateBackend, cfg.StatePath)
		if err != nil {
			return fmt.Errorf("failed to open state store: %w", err)
		}
	}
	defer store.Close()

	orch := orchestrator.New(
		action.NewExecRunner(cfg.ActionTimeout),
		orchestrator.Config{AsinfoPath: cfg.AsinfoPath, Options: cfg.Options},
		log.WithComponent("orchestrator"),
	)
	w := watcher.New(
		client,
		tracker.New(store, cfg.Persist, log.WithComponent("tracker")),
		orch,
		watcher.Config{RetryDelay: cfg.RetryDelay},
		log.WithComponent("watcher"),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           metrics.NewMux(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Str("addr", cfg.MetricsAddr).Msg("Metrics server failed")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		logger.Info().Str("addr", cfg.MetricsAddr).Msg("Metrics server listening")
	}

	err = w.Run(ctx)
	if ctx.Err() != nil {
		logger.Info().Msg("Shutdown complete")
		return nil
	}
	return err
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "maintwatch\n")
			fmt.Fprintf(out, "  Version:    %s\n", Version)
			fmt.Fprintf(out, "  Commit:     %s\n", Commit)
			fmt.Fprintf(out, "  Build Time: %s\n", BuildTime)
		},
	}
}
