// Package config loads the YAML file describing a scheduler's worker
// pool and ancillary settings, mirroring the CLI's config-file pattern:
// read the file and unmarshal it with gopkg.in/yaml.v3. Load applies no
// defaults; the only fallback is ManagerDescriptor substituting the
// default assist poll interval when it is left zero.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/blacksail-games/falconjobs/pkg/types"
)

// WorkerConfig is one worker's YAML-configurable shape.
type WorkerConfig struct {
	Name         string `yaml:"name"`
	Affinity     uint64 `yaml:"affinity"`
	WorkStealing bool   `yaml:"work_stealing"`
}

// Config is the complete system configuration structure, loaded from a
// YAML file or built programmatically with Default.
type Config struct {
	Workers []WorkerConfig `yaml:"workers"`

	Builder struct {
		MaxNodes int `yaml:"max_nodes"`
	} `yaml:"builder"`

	Assist struct {
		PollInterval time.Duration `yaml:"poll_interval"`
	} `yaml:"assist"`

	Metrics struct {
		Enabled bool `yaml:"enabled"`
		Port    int  `yaml:"port"`
	} `yaml:"metrics"`

	Profiler struct {
		LogEvents bool   `yaml:"log_events"`
		GRPCAddr  string `yaml:"grpc_addr"`
	} `yaml:"profiler"`
}

// defaultPollInterval is how long the assist path sleeps between scans
// when no stealable job is currently available, matching the ~100 µs
// figure the source material uses for its own assist loop.
const defaultPollInterval = 100 * time.Microsecond

// Default returns a Config with numCPU workers (callers pass the number
// of logical CPUs), work-stealing on, and a builder pool sized for a few
// thousand nodes.
func Default(numCPU int) Config {
	var cfg Config
	for i := 0; i < numCPU; i++ {
		cfg.Workers = append(cfg.Workers, WorkerConfig{
			Name:         fmt.Sprintf("worker-%d", i),
			Affinity:     ^uint64(0),
			WorkStealing: true,
		})
	}
	cfg.Builder.MaxNodes = 4096
	cfg.Assist.PollInterval = defaultPollInterval
	cfg.Metrics.Port = 9090
	return cfg
}

// Load reads and parses a YAML config file from path.
func Load(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config yaml: %w", err)
	}

	return cfg, nil
}

// ManagerDescriptor converts the loaded worker configs into the domain
// type jobmanager.Create expects. A config file that leaves
// assist.poll_interval unset (or zero) falls back to defaultPollInterval
// rather than producing a busy-spinning assist loop.
func (c Config) ManagerDescriptor() types.ManagerDescriptor {
	desc := types.ManagerDescriptor{
		Workers:            make([]types.WorkerDescriptor, len(c.Workers)),
		AssistPollInterval: c.Assist.PollInterval,
	}
	if desc.AssistPollInterval <= 0 {
		desc.AssistPollInterval = defaultPollInterval
	}
	for i, w := range c.Workers {
		desc.Workers[i] = types.WorkerDescriptor{
			Name:         w.Name,
			Affinity:     w.Affinity,
			WorkStealing: w.WorkStealing,
		}
	}
	return desc
}
