package game

import "github.com/pkg/errors"

const (
	DefaultWidth           = 10
	DefaultHeight          = 10
	DefaultMineProbability = 0.2
	DefaultInitialFlags    = 10
)

// Snapshot characters, one per cell
const (
	charMineHidden   = 'O'
	charMineRevealed = '*'
	charSafeHidden   = '#'
	charSafeRevealed = '.'
)

var (
	ErrOutOfBounds     = errors.New("coordinate out of bounds")
	ErrInvalidConfig   = errors.New("invalid board configuration")
	ErrInvalidSnapshot = errors.New("invalid board snapshot")
)
