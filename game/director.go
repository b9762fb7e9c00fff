package game

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/they4kman/sweepd/util/collections"
)

type Director interface {
	/**
	 * Initialize the director with the player's view of a fresh board
	 */
	Init(*Mirror)

	/**
	 * Choose the next move, or report false when there is nothing left to do
	 */
	Act() (Move, bool)
}

type MoveType int

const (
	Click MoveType = iota
	ToggleFlag
)

type Move struct {
	Point
	Type MoveType
}

// Mirror is a player's view of the board: only tiles the game has reported,
// plus the player's own flags. It is never authoritative.
type Mirror struct {
	width, height int
	tiles         [][]*RevealedTile
	flags         collections.Set[Point]
	flagsLeft     int
}

func NewMirror(width, height, initialFlags int) *Mirror {
	tiles := make([][]*RevealedTile, height)
	for y := range tiles {
		tiles[y] = make([]*RevealedTile, width)
	}

	return &Mirror{
		width:     width,
		height:    height,
		tiles:     tiles,
		flags:     make(collections.Set[Point]),
		flagsLeft: initialFlags,
	}
}

func (mirror *Mirror) Width() int {
	return mirror.width
}

func (mirror *Mirror) Height() int {
	return mirror.height
}

func (mirror *Mirror) FlagsLeft() int {
	return mirror.flagsLeft
}

func (mirror *Mirror) inBounds(pt Point) bool {
	return pt.X >= 0 && pt.Y >= 0 && pt.X < mirror.width && pt.Y < mirror.height
}

// Tile returns the revealed tile at pt, or nil if it is hidden
func (mirror *Mirror) Tile(pt Point) *RevealedTile {
	if !mirror.inBounds(pt) {
		return nil
	}
	return mirror.tiles[pt.Y][pt.X]
}

func (mirror *Mirror) IsRevealed(pt Point) bool {
	return mirror.Tile(pt) != nil
}

func (mirror *Mirror) IsFlagged(pt Point) bool {
	return mirror.flags.Contains(pt)
}

func (mirror *Mirror) Neighbors(pt Point) []Point {
	neighbors := make([]Point, 0, 8)
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			neighbor := Point{pt.X + dx, pt.Y + dy}
			if (dx != 0 || dy != 0) && mirror.inBounds(neighbor) {
				neighbors = append(neighbors, neighbor)
			}
		}
	}
	return neighbors
}

// Hidden returns every cell neither revealed nor flagged
func (mirror *Mirror) Hidden() []Point {
	hidden := make([]Point, 0)
	for y := 0; y < mirror.height; y++ {
		for x := 0; x < mirror.width; x++ {
			pt := Point{x, y}
			if !mirror.IsRevealed(pt) && !mirror.IsFlagged(pt) {
				hidden = append(hidden, pt)
			}
		}
	}
	return hidden
}

// Revealed returns every tile reported so far, in row-major order
func (mirror *Mirror) Revealed() []RevealedTile {
	revealed := make([]RevealedTile, 0)
	for _, row := range mirror.tiles {
		for _, tile := range row {
			if tile != nil {
				revealed = append(revealed, *tile)
			}
		}
	}
	return revealed
}

// Apply records tiles reported by a reveal. A tile that becomes revealed
// loses its flag, and the flag returns to the budget.
func (mirror *Mirror) Apply(tiles []RevealedTile) {
	for i := range tiles {
		tile := tiles[i]
		pt := Point{tile.X, tile.Y}
		if !mirror.inBounds(pt) {
			continue
		}
		if mirror.flags.Contains(pt) {
			mirror.flags.Remove(pt)
			mirror.flagsLeft++
		}
		mirror.tiles[pt.Y][pt.X] = &tile
	}
}

// ToggleFlag flags or unflags a hidden cell, and reports whether anything
// changed. Placing a flag fails when the budget is exhausted.
func (mirror *Mirror) ToggleFlag(pt Point) bool {
	if !mirror.inBounds(pt) || mirror.IsRevealed(pt) {
		return false
	}

	if mirror.flags.Contains(pt) {
		mirror.flags.Remove(pt)
		mirror.flagsLeft++
		return true
	}

	if mirror.flagsLeft <= 0 {
		return false
	}
	mirror.flags.Add(pt)
	mirror.flagsLeft--
	return true
}

type AutoplayResult struct {
	Steps    int
	Revealed int
	HitMine  bool
}

// Autoplay lets director play game's current board until it reveals a mine,
// runs out of moves, takes maxSteps moves (when positive), or ctx is done.
// Autoplay never declares a win.
func Autoplay(ctx context.Context, game *Game, director Director, maxSteps int) (AutoplayResult, error) {
	info := game.Info()
	mirror := NewMirror(info.Width, info.Height, game.Config().InitialFlags)

	// Pick up anything revealed before the director took over
	game.View(func(board *Board) {
		revealed := make([]RevealedTile, 0, board.NumRevealed())
		board.Cells(func(cell *Cell) {
			if cell.isRevealed {
				revealed = append(revealed, cell.tile())
			}
		})
		mirror.Apply(revealed)
	})

	director.Init(mirror)

	log := logrus.WithFields(logrus.Fields{
		"component": "autoplay",
		"game_id":   info.GameID,
	})

	var result AutoplayResult
	for maxSteps <= 0 || result.Steps < maxSteps {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		move, ok := director.Act()
		if !ok {
			log.WithField("steps", result.Steps).Info("Director has no moves left")
			break
		}
		result.Steps++

		switch move.Type {
		case ToggleFlag:
			if !mirror.ToggleFlag(move.Point) {
				log.WithField("cell", move.Point).Debug("Ignored flag toggle")
			}
		default:
			reveal, err := game.Reveal(move.X, move.Y)
			if err != nil {
				return result, err
			}
			mirror.Apply(reveal.RevealedTiles)
			result.Revealed += len(reveal.RevealedTiles)

			log.WithFields(logrus.Fields{
				"cell":     move.Point,
				"revealed": len(reveal.RevealedTiles),
			}).Debug("Director clicked")

			if reveal.GameOver {
				result.HitMine = true
				log.WithField("cell", move.Point).Info("Director hit a mine")
				return result, nil
			}
		}
	}

	return result, nil
}
