// Package config loads the YAML configuration of the worker and
// controller binaries. Values missing from a file keep their defaults,
// and a few values can be overridden from the environment so that one
// file can be shared by many processes.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/grandpahao/oh-my-q-learning/controller"
	"github.com/grandpahao/oh-my-q-learning/environment"
	"github.com/grandpahao/oh-my-q-learning/environment/envconfig"
	"github.com/grandpahao/oh-my-q-learning/environment/scripted"
	"github.com/grandpahao/oh-my-q-learning/expreplay"
	"gopkg.in/yaml.v3"
)

// Emulator configures the emulator a worker owns. The scripted
// emulator is the only one built in: a real emulator binding is
// supplied by the process embedding the worker.
type Emulator struct {
	Actions      []string `yaml:"actions"`
	Lives        int      `yaml:"lives"`
	ScriptLength int      `yaml:"script_length"`
	PReward      float64  `yaml:"p_reward"`
	PLifeLost    float64  `yaml:"p_life_lost"`
	Seed         uint64   `yaml:"seed"`
}

// Create returns the configured scripted emulator and its capabilities
func (e Emulator) Create() (*scripted.Emulator, environment.Capabilities,
	error) {
	caps, err := environment.NewCapabilities(e.Actions...)
	if err != nil {
		return nil, environment.Capabilities{}, fmt.Errorf("create: %w", err)
	}
	emu, err := scripted.Random(e.Seed, e.ScriptLength, e.Lives,
		caps.ActionCount(), e.PReward, e.PLifeLost)
	if err != nil {
		return nil, environment.Capabilities{}, fmt.Errorf("create: %w", err)
	}
	return emu, caps, nil
}

// Worker configures a worker process
type Worker struct {
	// Controller is the websocket URL of the controller
	Controller string `yaml:"controller"`

	// Identity is the worker's identity. A random one is generated if
	// it is empty.
	Identity string `yaml:"identity"`

	Pipeline envconfig.Config `yaml:"pipeline"`
	Emulator Emulator         `yaml:"emulator"`
	Debug    bool             `yaml:"debug"`
}

// DefaultWorker returns the default worker configuration
func DefaultWorker() Worker {
	return Worker{
		Controller: "ws://localhost:9100/workers",
		Pipeline:   envconfig.Default(),
		Emulator: Emulator{
			Actions:      []string{environment.Noop, environment.Fire, "RIGHT", "LEFT"},
			Lives:        5,
			ScriptLength: 1 << 20,
			PReward:      0.01,
			PLifeLost:    0.001,
		},
	}
}

// ApplyEnv overrides the configuration from environment variables:
// OHMYQ_CONTROLLER, OHMYQ_IDENTITY and OHMYQ_SEED. The seed seeds both
// the emulator and the random no-ops.
func (w *Worker) ApplyEnv() {
	w.Controller = getenv("OHMYQ_CONTROLLER", w.Controller)
	w.Identity = getenv("OHMYQ_IDENTITY", w.Identity)
	w.Emulator.Seed = getenvUint64("OHMYQ_SEED", w.Emulator.Seed)
	w.Pipeline.Seed = getenvUint64("OHMYQ_SEED", w.Pipeline.Seed)
}

// Validate returns an error describing why the configuration is
// invalid
func (w Worker) Validate() error {
	if w.Controller == "" {
		return fmt.Errorf("validate: controller URL is empty")
	}
	if len(w.Emulator.Actions) == 0 {
		return fmt.Errorf("validate: emulator has no actions")
	}
	return nil
}

// Exploration configures ε-greedy exploration
type Exploration struct {
	Initial    float64 `yaml:"initial"`
	Final      float64 `yaml:"final"`
	DecaySteps int     `yaml:"decay_steps"`
	Seed       uint64  `yaml:"seed"`
}

// Controller configures a controller process
type Controller struct {
	// Listen is the address the controller serves workers on, at
	// /workers, and metrics on, at /metrics
	Listen  string `yaml:"listen"`
	Workers int    `yaml:"workers"`

	// AcceptTimeout bounds the wait for all workers to connect
	AcceptTimeout string `yaml:"accept_timeout"`

	Memory      expreplay.Config    `yaml:"memory"`
	Exploration Exploration         `yaml:"exploration"`
	Schedule    controller.Schedule `yaml:"schedule"`

	// SummaryPath is the zstd compressed JSONL file summaries are
	// written to, in addition to the metrics endpoint. No file is
	// written if it is empty.
	SummaryPath string `yaml:"summary_path"`
	Debug       bool   `yaml:"debug"`
}

// DefaultController returns the default controller configuration
func DefaultController() Controller {
	return Controller{
		Listen:        ":9100",
		Workers:       8,
		AcceptTimeout: "5m",
		Memory:        expreplay.Config{Capacity: 100000, MinCapacity: 1},
		Exploration:   Exploration{Initial: 1.0, Final: 0.1, DecaySteps: 500000},
		Schedule:      controller.DefaultSchedule(),
	}
}

// ApplyEnv overrides the configuration from environment variables:
// OHMYQ_LISTEN and OHMYQ_WORKERS
func (c *Controller) ApplyEnv() {
	c.Listen = getenv("OHMYQ_LISTEN", c.Listen)
	c.Workers = getenvInt("OHMYQ_WORKERS", c.Workers)
}

// Validate returns an error describing why the configuration is
// invalid
func (c Controller) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("validate: workers must be >= 1")
	}
	if c.Memory.Capacity < c.Schedule.BatchSize {
		return fmt.Errorf("validate: memory capacity %v is smaller than "+
			"batch size %v", c.Memory.Capacity, c.Schedule.BatchSize)
	}
	if err := c.Schedule.Validate(); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	return nil
}

// LoadWorker loads a worker configuration from a YAML file
func LoadWorker(path string) (Worker, error) {
	w := DefaultWorker()
	if err := load(path, &w); err != nil {
		return Worker{}, fmt.Errorf("loadWorker: %w", err)
	}
	return w, nil
}

// LoadController loads a controller configuration from a YAML file
func LoadController(path string) (Controller, error) {
	c := DefaultController()
	if err := load(path, &c); err != nil {
		return Controller{}, fmt.Errorf("loadController: %w", err)
	}
	return c, nil
}

func load(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%v: %w", path, err)
	}
	return nil
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvUint64(key string, fallback uint64) uint64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
