// Package cli wires the scheduler into a cobra command tree: run (start
// a worker pool, submit a demo job chain, serve metrics when enabled), bench (stress
// the pool with a wide fan-out/join to report work-stealing behavior),
// and status (a quick self-check that a pool can be created and drained).
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/blacksail-games/falconjobs/internal/builder"
	"github.com/blacksail-games/falconjobs/internal/config"
	"github.com/blacksail-games/falconjobs/internal/jobmanager"
	"github.com/blacksail-games/falconjobs/internal/metrics"
	"github.com/blacksail-games/falconjobs/internal/profiler"
)

var (
	configFile string
	log        = slog.Default()
)

// BuildCLI constructs the root command.
func BuildCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "falconjobs",
		Short:   "falconjobs: an in-process work-stealing job scheduler",
		Version: "1.0.0",
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (defaults to one worker per CPU)")

	rootCmd.AddCommand(buildRunCommand())
	rootCmd.AddCommand(buildBenchCommand())
	rootCmd.AddCommand(buildStatusCommand())

	return rootCmd
}

func loadConfig() (config.Config, error) {
	if configFile == "" {
		return config.Default(runtime.NumCPU()), nil
	}
	return config.Load(configFile)
}

func buildRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start a worker pool and run a demo job chain; with metrics enabled, serve them until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSystem()
		},
	}
	return cmd
}

func runSystem() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	sink, metricsCollector := buildSink(cfg)

	mgr, err := jobmanager.Create(cfg.ManagerDescriptor(), sink)
	if err != nil {
		return fmt.Errorf("create manager: %w", err)
	}

	log.Info("pool started", "workers", mgr.WorkerCount())

	if cfg.Metrics.Enabled {
		go func() {
			log.Info("metrics server listening", "port", cfg.Metrics.Port)
			if err := metrics.StartServer(cfg.Metrics.Port); err != nil {
				log.Error("metrics server stopped", "error", err)
			}
		}()
	}

	chain := runDemoChain(mgr, cfg)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	if cfg.Metrics.Enabled {
		log.Info("waiting for shutdown signal")
		<-sigCh
	}

	if metricsCollector != nil {
		metricsCollector.SetActiveWorkers(mgr.ActiveWorkers())
	}

	log.Info("shutting down pool")
	mgr.Shutdown(true)
	log.Info("demo chain finished", "failed", chain.Failed())

	return nil
}

// runDemoChain builds and submits the fixture chain used throughout this
// CLI's commands: two linked setup jobs, a group of parallel jobs that
// all gate on the second, and one final job gated on the whole group,
// the same shape walked through in the builder package's doc comment.
// It does not wait for the chain to finish; the caller drains it via
// Manager.Shutdown(true) or an explicit assist call.
func runDemoChain(mgr *jobmanager.Manager, cfg config.Config) *builder.Builder {
	b := builder.New(mgr, cfg.Builder.MaxNodes)

	b.Do(func() { log.Debug("running first setup job") }, 'a').
		Then().
		Do(func() { log.Debug("running second setup job") }, 'b').
		Then().
		Together('t')

	for i := 0; i < 8; i++ {
		i := i
		b.Do(func() { log.Debug("running parallel job", "index", i) }, 'p')
	}

	b.Close().
		Then().
		Do(func() { log.Debug("running final job") }, 'Z')

	b.Go()

	return b
}

func buildBenchCommand() *cobra.Command {
	var fanOut int

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Submit a wide fan-out/join chain and report stealing statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(fanOut)
		},
	}

	cmd.Flags().IntVar(&fanOut, "fan-out", 1000, "number of parallel jobs in the bench chain's middle group")

	return cmd
}

func runBench(fanOut int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	collector := profiler.NewCollector(len(cfg.Workers))
	mgr, err := jobmanager.Create(cfg.ManagerDescriptor(), collector)
	if err != nil {
		return fmt.Errorf("create manager: %w", err)
	}
	defer mgr.Shutdown(false)

	b := builder.New(mgr, fanOut+16)

	var ran atomic.Int64

	b.Do(func() {}, 'a').Then().Together('t')
	for i := 0; i < fanOut; i++ {
		b.Do(func() { ran.Add(1) }, 'p')
	}
	b.Close().Then().Do(func() {}, 'Z')

	start := time.Now()
	b.Go()
	mgr.AssistUntilDone()
	elapsed := time.Since(start)

	stats := collector.Snapshot()

	fmt.Printf("workers:        %d\n", mgr.WorkerCount())
	fmt.Printf("jobs requested: %d\n", fanOut+3)
	fmt.Printf("jobs run:       %d\n", ran.Load()+3)
	fmt.Printf("jobs stolen:    %d\n", stats.JobsStolen)
	fmt.Printf("jobs assisted:  %d\n", stats.JobsAssisted)
	fmt.Printf("elapsed:        %s\n", elapsed)
	fmt.Printf("builder failed: %v\n", b.Failed())

	return nil
}

func buildStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Create a pool from the config, run a trivial job through it, and report the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showStatus()
		},
	}
	return cmd
}

func showStatus() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	mgr, err := jobmanager.Create(cfg.ManagerDescriptor(), nil)
	if err != nil {
		return fmt.Errorf("create manager: %w", err)
	}
	defer mgr.Shutdown(false)

	state, err := mgr.AddJob(func() {}, 0)
	if err != nil {
		return fmt.Errorf("submit probe job: %w", err)
	}
	state.SetReady()
	mgr.AssistUntilJobDone(state)

	fmt.Println("falconjobs status")
	fmt.Printf("config file:   %s\n", configOrigin())
	fmt.Println(mgr.Status())
	fmt.Println("probe job:     ok")

	return nil
}

func configOrigin() string {
	if configFile == "" {
		return "(default, one worker per CPU)"
	}
	return configFile
}

func buildSink(cfg config.Config) (profiler.Sink, *metrics.Collector) {
	var sinks []profiler.Sink

	if cfg.Profiler.LogEvents {
		sinks = append(sinks, profiler.NewLogSink(log))
	}

	var metricsCollector *metrics.Collector
	if cfg.Metrics.Enabled {
		metricsCollector = metrics.NewCollector()
		sinks = append(sinks, metricsCollector)
	}

	switch len(sinks) {
	case 0:
		return nil, nil
	case 1:
		return sinks[0], metricsCollector
	default:
		return profiler.NewMultiSink(sinks...), metricsCollector
	}
}
