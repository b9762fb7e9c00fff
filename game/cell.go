package game

import "fmt"

type Point struct {
	X, Y int
}

func (pt Point) String() string {
	return fmt.Sprintf("(%d, %d)", pt.X, pt.Y)
}

type Cell struct {
	x, y     int
	numMines int

	isMine, isRevealed bool
}

// RevealedTile is reported to clients once per cell, the first time it is
// revealed.
type RevealedTile struct {
	X             int  `json:"x"`
	Y             int  `json:"y"`
	IsMine        bool `json:"isMine"`
	AdjacentMines int  `json:"adjacentMines"`
}

func (cell *Cell) String() string {
	return fmt.Sprintf("Cell(%v, %v)", cell.x, cell.y)
}

func (cell *Cell) X() int {
	return cell.x
}

func (cell *Cell) Y() int {
	return cell.y
}

func (cell *Cell) Point() Point {
	return Point{cell.x, cell.y}
}

func (cell *Cell) IsMine() bool {
	return cell.isMine
}

func (cell *Cell) IsRevealed() bool {
	return cell.isRevealed
}

// NumMines returns the number of mines in the cell's Moore neighbourhood
func (cell *Cell) NumMines() int {
	return cell.numMines
}

func (cell *Cell) tile() RevealedTile {
	return RevealedTile{
		X:             cell.x,
		Y:             cell.y,
		IsMine:        cell.isMine,
		AdjacentMines: cell.numMines,
	}
}

func (cell *Cell) serialize() rune {
	switch {
	case cell.isMine && cell.isRevealed:
		return charMineRevealed
	case cell.isMine:
		return charMineHidden
	case cell.isRevealed:
		return charSafeRevealed
	default:
		return charSafeHidden
	}
}

func (cell *Cell) deserialize(c rune, fresh bool) bool {
	switch c {
	case charMineHidden, charMineRevealed:
		cell.isMine = true
		cell.isRevealed = c == charMineRevealed && !fresh
	case charSafeHidden, charSafeRevealed:
		cell.isMine = false
		cell.isRevealed = c == charSafeRevealed && !fresh
	default:
		return false
	}

	return true
}
