package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/goran-ethernal/ArcadeIndexor/internal/common"
	"github.com/goran-ethernal/ArcadeIndexor/internal/config"
	"github.com/goran-ethernal/ArcadeIndexor/internal/logger"
	"github.com/goran-ethernal/ArcadeIndexor/internal/metrics"
	"github.com/goran-ethernal/ArcadeIndexor/pkg/api"
	pkgconfig "github.com/goran-ethernal/ArcadeIndexor/pkg/config"
	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	version = "1.0.0"
	banner  = `
╔═══════════════════════════════════════════╗
║         ArcadeIndexor v%s              ║
║   Aptos Arcade Game Event Indexer         ║
╚═══════════════════════════════════════════╝
`
)

var (
	configPath string
	envFiles   []string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "indexer",
	Short: "ArcadeIndexor - Aptos arcade game event indexer",
	Long: `ArcadeIndexor polls the game contract's transactions on an Aptos node,
applies the game lifecycle events to a SQLite read model and serves lobby,
player and leaderboard queries over HTTP.`,
	Version:           version,
	PersistentPreRunE: loadEnv,
	RunE:              runIndexer,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scheduled indexer with the read API (default command)",
	RunE:  runIndexer,
}

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single indexing cycle and print its result",
	Long: `Run exactly one indexing cycle against the configured node and database,
print {"success", "processed", "lastVersion"} as JSON and exit.`,
	RunE: runOnce,
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of the configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		r := &jsonschema.Reflector{RequiredFromJSONSchemaTags: true}
		schema := r.Reflect(&pkgconfig.Config{})

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(schema)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to configuration file")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env"}, "env files loaded before the configuration")
	rootCmd.AddCommand(runCmd, onceCmd, schemaCmd)
}

func loadEnv(cmd *cobra.Command, args []string) error {
	return config.LoadDotEnv(envFiles...)
}

func runIndexer(cmd *cobra.Command, args []string) error {
	fmt.Printf(banner, version)

	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.NewComponentLoggerFromConfig(common.ComponentScheduler, loggingConfig(cfg))

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.maintenance.Start(ctx); err != nil {
		return fmt.Errorf("failed to start database maintenance: %w", err)
	}
	defer func() {
		if err := a.maintenance.Stop(); err != nil {
			log.Warnf("Failed to stop database maintenance: %v", err)
		}
	}()

	if cfg.Metrics != nil && cfg.Metrics.Enabled {
		metricsServer := metrics.NewServer(cfg.Metrics, log)
		if err := metricsServer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		defer func() {
			if err := metricsServer.Stop(context.WithoutCancel(ctx)); err != nil {
				log.Warnf("Failed to stop metrics server: %v", err)
			}
		}()
		log.Infof("Metrics server started on %s%s", metricsServer.Addr(), cfg.Metrics.Path)
	}

	sched, err := a.newScheduler(cfg, log)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	if err := sched.Start(gctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	g.Go(func() error {
		<-gctx.Done()
		sched.Stop()
		return nil
	})

	if cfg.API != nil && cfg.API.Enabled {
		apiServer := api.NewServer(cfg.API, a.reads, a.state, sched,
			logger.NewComponentLoggerFromConfig(common.ComponentAPI, loggingConfig(cfg)))
		g.Go(func() error {
			return apiServer.Start(gctx)
		})
	}

	log.Infof("ArcadeIndexor started: contract %s, schedule %q", cfg.Chain.ContractAddress, cfg.Scheduler.Cron)

	if err := g.Wait(); err != nil {
		return err
	}

	log.Info("ArcadeIndexor stopped successfully")
	return nil
}

func runOnce(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	sched, err := a.newScheduler(cfg, logger.NewComponentLoggerFromConfig(common.ComponentScheduler, loggingConfig(cfg)))
	if err != nil {
		return err
	}

	result, err := sched.Trigger(ctx)
	enc := json.NewEncoder(cmd.OutOrStdout())
	if err != nil {
		_ = enc.Encode(map[string]any{"success": false, "error": err.Error()})
		return err
	}

	return enc.Encode(api.RunResponse{
		Success:     true,
		Processed:   result.Processed,
		LastVersion: result.LastVersion,
	})
}

// loggingConfig avoids handing the logger a typed nil.
func loggingConfig(cfg *pkgconfig.Config) logger.Config {
	if cfg.Logging == nil {
		return nil
	}
	return cfg.Logging
}
