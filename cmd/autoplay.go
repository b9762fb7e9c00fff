package cmd

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/they4kman/sweepd/director/constraint"
	"github.com/they4kman/sweepd/director/random"
	"github.com/they4kman/sweepd/game"
)

type directorKind int

const (
	randomDirector directorKind = iota
	constraintDirector
)

var (
	useDirector directorKind
	maxSteps    = 0
)

var directorKinds = map[string]directorKind{
	"random":     randomDirector,
	"constraint": constraintDirector,
}

type directorValue directorKind

func newDirectorValue(val directorKind, p *directorKind) *directorValue {
	*p = val
	return (*directorValue)(p)
}

func (dirVal *directorValue) String() string {
	for name, kind := range directorKinds {
		if kind == directorKind(*dirVal) {
			return name
		}
	}
	return fmt.Sprint(*dirVal)
}

func (dirVal *directorValue) Set(value string) error {
	if kind, isValid := directorKinds[value]; isValid {
		*dirVal = directorValue(kind)
		return nil
	}
	return fmt.Errorf("invalid director %q", value)
}

func (dirVal *directorValue) Type() string {
	return "director"
}

func newDirector(kind directorKind, r *rand.Rand) game.Director {
	if kind == randomDirector {
		return random.New(r)
	}
	return constraint.New(r)
}

var autoplayCmd = &cobra.Command{
	Use:   "autoplay",
	Short: "Let the computer play a board",
	Long: `Let the computer play a board until it reveals a mine or runs out of
moves, then print the board as a YAML snapshot.

	sweepd autoplay --director random --seed 42
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		g, err := newGame(cfg)
		if err != nil {
			return err
		}

		seed := cfg.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		director := newDirector(useDirector, rand.New(rand.NewSource(seed)))

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		result, err := game.Autoplay(ctx, g, director, maxSteps)
		if err != nil {
			return err
		}

		logrus.WithFields(logrus.Fields{
			"director": (*directorValue)(&useDirector).String(),
			"steps":    result.Steps,
			"revealed": result.Revealed,
			"hit_mine": result.HitMine,
		}).Info("Autoplay finished")

		fmt.Fprint(cmd.OutOrStdout(), g.Snapshot().Serialize())
		return nil
	},
}

func init() {
	flags := autoplayCmd.Flags()
	flags.VarP(newDirectorValue(constraintDirector, &useDirector), "director", "d", `Director playing the board.
random: clicks hidden cells in a shuffled order
constraint: deduces safe cells and mines from revealed numbers, guessing when stuck`)
	flags.IntVar(&maxSteps, "max-steps", maxSteps, "Stop after this many moves (0 for no limit)")

	rootCmd.AddCommand(autoplayCmd)
}
