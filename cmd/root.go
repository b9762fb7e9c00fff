package cmd

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/they4kman/sweepd/config"
	"github.com/they4kman/sweepd/game"
)

var configPath string

// Values bound to flags; only flags given on the command line override the
// config file and environment
var flagConfig = config.Default()

var rootCmd = &cobra.Command{
	Use:   "sweepd",
	Short: "Serve a Minesweeper board to the browser client",
	Long: `sweepd holds the authoritative Minesweeper board for the 3D browser
client and resolves tile reveals.

Serve the game on :3000
	sweepd serve

Let the computer play a board and print the result
	sweepd autoplay --director constraint
`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// flagOverrides copies each changed flag from flagConfig into the loaded config
var flagOverrides = map[string]func(*config.Config){
	"width":            func(c *config.Config) { c.Width = flagConfig.Width },
	"height":           func(c *config.Config) { c.Height = flagConfig.Height },
	"mine-probability": func(c *config.Config) { c.MineProbability = flagConfig.MineProbability },
	"flags":            func(c *config.Config) { c.InitialFlags = flagConfig.InitialFlags },
	"seed":             func(c *config.Config) { c.Seed = flagConfig.Seed },
	"snapshot":         func(c *config.Config) { c.Snapshot = flagConfig.Snapshot },
	"log-level":        func(c *config.Config) { c.LogLevel = flagConfig.LogLevel },
	"log-format":       func(c *config.Config) { c.LogFormat = flagConfig.LogFormat },
	"addr":             func(c *config.Config) { c.Addr = flagConfig.Addr },
	"static-dir":       func(c *config.Config) { c.StaticDir = flagConfig.StaticDir },
	"debug":            func(c *config.Config) { c.Debug = flagConfig.Debug },
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}

	for name, override := range flagOverrides {
		if flag := cmd.Flags().Lookup(name); flag != nil && flag.Changed {
			override(&cfg)
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	if err := setupLogging(cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func setupLogging(cfg config.Config) error {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return errors.Wrap(config.ErrInvalidConfig, err.Error())
	}
	logrus.SetLevel(level)

	if cfg.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}

func newGame(cfg config.Config) (*game.Game, error) {
	gameConfig, err := cfg.GameConfig()
	if err != nil {
		return nil, err
	}
	return game.NewGame(gameConfig)
}

func init() {
	// Define our root -help without a shorthand, as we'll use -h for --height
	// Ref: https://github.com/spf13/cobra/issues/291
	rootCmd.PersistentFlags().Bool("help", false, "Help for this command")

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "YAML config file")
	flags.IntVarP(&flagConfig.Width, "width", "w", game.DefaultWidth, "Width of game board, in cells")
	flags.IntVarP(&flagConfig.Height, "height", "h", game.DefaultHeight, "Height of game board, in cells")
	flags.Float64VarP(&flagConfig.MineProbability, "mine-probability", "p", game.DefaultMineProbability, "Chance of each cell holding a mine, in [0, 1)")
	flags.IntVarP(&flagConfig.InitialFlags, "flags", "f", game.DefaultInitialFlags, "Flags available to the player")
	flags.Int64Var(&flagConfig.Seed, "seed", 0, "Random seed for mine placement (0 picks one from the clock)")
	flags.StringVar(&flagConfig.Snapshot, "snapshot", "", "Load every board from this YAML snapshot")
	flags.StringVar(&flagConfig.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flags.StringVar(&flagConfig.LogFormat, "log-format", "text", "Log format (text or json)")
}
