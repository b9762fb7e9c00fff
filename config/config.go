package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/they4kman/sweepd/game"
)

var ErrInvalidConfig = errors.New("invalid configuration")

const envPrefix = "SWEEPD_"

type Config struct {
	Width           int     `yaml:"width"`
	Height          int     `yaml:"height"`
	MineProbability float64 `yaml:"mineProbability"`
	InitialFlags    int     `yaml:"initialFlags"`

	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"staticDir"`
	Seed      int64  `yaml:"seed"`
	// Path to a board snapshot every new board is loaded from
	Snapshot string `yaml:"snapshot"`
	Debug    bool   `yaml:"debug"`

	LogLevel  string `yaml:"logLevel"`
	LogFormat string `yaml:"logFormat"`
}

func Default() Config {
	return Config{
		Width:           game.DefaultWidth,
		Height:          game.DefaultHeight,
		MineProbability: game.DefaultMineProbability,
		InitialFlags:    game.DefaultInitialFlags,
		Addr:            ":3000",
		LogLevel:        "info",
		LogFormat:       "text",
	}
}

// Load layers the optional YAML file at path, then .env and the process
// environment, over the defaults. Command-line flags are applied by the
// caller afterwards.
func Load(path string) (Config, error) {
	config := Default()

	if path != "" {
		if err := config.loadFile(path); err != nil {
			return config, err
		}
	}

	// A missing .env is fine; values already in the environment win
	_ = godotenv.Load()

	if err := config.loadEnv(os.LookupEnv); err != nil {
		return config, err
	}

	return config, nil
}

func (config *Config) loadFile(path string) error {
	in, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "reading config %s", path)
	}
	if err := yaml.UnmarshalStrict(in, config); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "parsing %s: %v", path, err)
	}
	return nil
}

type lookupFunc func(key string) (string, bool)

func (config *Config) loadEnv(lookup lookupFunc) error {
	var err error
	set := func(key string, parse func(string) error) {
		value, ok := lookup(envPrefix + key)
		if !ok || err != nil {
			return
		}
		if parseErr := parse(strings.TrimSpace(value)); parseErr != nil {
			err = errors.Wrapf(ErrInvalidConfig, "%s%s=%q: %v", envPrefix, key, value, parseErr)
		}
	}

	set("WIDTH", intParser(&config.Width))
	set("HEIGHT", intParser(&config.Height))
	set("MINE_PROBABILITY", func(value string) (err error) {
		config.MineProbability, err = strconv.ParseFloat(value, 64)
		return
	})
	set("INITIAL_FLAGS", intParser(&config.InitialFlags))
	set("ADDR", stringParser(&config.Addr))
	set("STATIC_DIR", stringParser(&config.StaticDir))
	set("SEED", func(value string) (err error) {
		config.Seed, err = strconv.ParseInt(value, 10, 64)
		return
	})
	set("SNAPSHOT", stringParser(&config.Snapshot))
	set("DEBUG", func(value string) (err error) {
		config.Debug, err = strconv.ParseBool(value)
		return
	})
	set("LOG_LEVEL", stringParser(&config.LogLevel))
	set("LOG_FORMAT", stringParser(&config.LogFormat))

	return err
}

func intParser(dst *int) func(string) error {
	return func(value string) (err error) {
		*dst, err = strconv.Atoi(value)
		return
	}
}

func stringParser(dst *string) func(string) error {
	return func(value string) error {
		*dst = value
		return nil
	}
}

func (config Config) Validate() error {
	switch {
	case config.Width <= 0 || config.Height <= 0:
		return errors.Wrapf(ErrInvalidConfig, "board must be at least 1x1, got %dx%d", config.Width, config.Height)
	case config.MineProbability < 0 || config.MineProbability >= 1:
		return errors.Wrapf(ErrInvalidConfig, "mineProbability must be in [0, 1), got %v", config.MineProbability)
	case config.InitialFlags < 0:
		return errors.Wrapf(ErrInvalidConfig, "initialFlags must not be negative, got %d", config.InitialFlags)
	case config.LogFormat != "text" && config.LogFormat != "json":
		return errors.Wrapf(ErrInvalidConfig, "logFormat must be text or json, got %q", config.LogFormat)
	}
	return nil
}

// GameConfig converts the configuration for game.NewGame, loading the
// snapshot file if one is configured
func (config Config) GameConfig() (game.GameConfig, error) {
	gameConfig := game.NewGameConfig()
	gameConfig.Width = config.Width
	gameConfig.Height = config.Height
	gameConfig.MineProbability = config.MineProbability
	gameConfig.InitialFlags = config.InitialFlags
	gameConfig.Seed = config.Seed

	if config.Snapshot != "" {
		in, err := os.ReadFile(config.Snapshot)
		if err != nil {
			return gameConfig, errors.Wrapf(err, "reading snapshot %s", config.Snapshot)
		}
		snapshot, err := game.LoadSnapshot(string(in))
		if err != nil {
			return gameConfig, errors.Wrapf(err, "loading snapshot %s", config.Snapshot)
		}
		gameConfig.Snapshot = snapshot
	}

	return gameConfig, nil
}
