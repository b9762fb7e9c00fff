package game

import "github.com/pkg/errors"

// RandomSource supplies the uniform draws used to lay mines. *rand.Rand
// satisfies it.
type RandomSource interface {
	Float64() float64
}

// Board is not safe for concurrent use; Game serialises access to it.
type Board struct {
	width, height int // in number of cells
	numMines      int
	numRevealed   int
	cells         [][]Cell
}

func (board *Board) Width() int {
	return board.width
}

func (board *Board) Height() int {
	return board.height
}

func (board *Board) NumCells() int {
	return board.width * board.height
}

func (board *Board) NumMines() int {
	return board.numMines
}

func (board *Board) NumRevealed() int {
	return board.numRevealed
}

func (board *Board) inBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < board.width && y < board.height
}

// CellAt returns nil when (x, y) lies outside the board
func (board *Board) CellAt(x, y int) *Cell {
	if board.inBounds(x, y) {
		return &board.cells[y][x]
	}
	return nil
}

func (board *Board) checkedCellAt(x, y int) (*Cell, error) {
	cell := board.CellAt(x, y)
	if cell == nil {
		return nil, errors.Wrapf(ErrOutOfBounds, "(%d, %d) on %dx%d board", x, y, board.width, board.height)
	}
	return cell, nil
}

// Cells calls visit for every cell in row-major order
func (board *Board) Cells(visit func(*Cell)) {
	for y := range board.cells {
		for x := range board.cells[y] {
			visit(&board.cells[y][x])
		}
	}
}

func (board *Board) neighbors(cell *Cell) []*Cell {
	neighbors := make([]*Cell, 0, 8)
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			if neighbor := board.CellAt(cell.x+dx, cell.y+dy); neighbor != nil {
				neighbors = append(neighbors, neighbor)
			}
		}
	}
	return neighbors
}

// IsMine reports whether (x, y) holds a mine, regardless of revealed status
func (board *Board) IsMine(x, y int) (bool, error) {
	cell, err := board.checkedCellAt(x, y)
	if err != nil {
		return false, err
	}
	return cell.isMine, nil
}

func (board *Board) IsRevealed(x, y int) (bool, error) {
	cell, err := board.checkedCellAt(x, y)
	if err != nil {
		return false, err
	}
	return cell.isRevealed, nil
}

// CountAdjacentMines returns the number of mines among the in-bounds Moore
// neighbours of (x, y). It never mutates the board.
func (board *Board) CountAdjacentMines(x, y int) (int, error) {
	cell, err := board.checkedCellAt(x, y)
	if err != nil {
		return 0, err
	}
	return cell.numMines, nil
}

// Reveal reveals (x, y) and flood-fills outward through cells with no
// adjacent mines. The returned tiles are in breadth-first discovery order.
// Revealing a cell that is already revealed returns an empty slice.
func (board *Board) Reveal(x, y int) ([]RevealedTile, error) {
	origin, err := board.checkedCellAt(x, y)
	if err != nil {
		return nil, err
	}

	revealed := make([]RevealedTile, 0)
	flood(
		origin,
		func(cell *Cell) bool {
			cell.isRevealed = true
			board.numRevealed++
			revealed = append(revealed, cell.tile())

			// Mines end the game and never spread, whatever their count
			return !cell.isMine && cell.numMines == 0
		},
		board.neighbors,
	)

	return revealed, nil
}

func validateDimensions(width, height int) error {
	if width <= 0 || height <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "dimensions must be positive, got %dx%d", width, height)
	}
	return nil
}

func createBoard(width, height int) *Board {
	board := Board{
		width:  width,
		height: height,
		cells:  make([][]Cell, height),
	}

	for y := 0; y < height; y++ {
		row := make([]Cell, width)
		board.cells[y] = row

		for x := 0; x < width; x++ {
			row[x].x, row[x].y = x, y
		}
	}

	return &board
}

// fillMines recounts numMines for every cell from the current mine layout
func (board *Board) fillMines() {
	board.numMines = 0
	board.numRevealed = 0
	board.Cells(func(cell *Cell) {
		cell.numMines = 0
	})

	board.Cells(func(cell *Cell) {
		if cell.isRevealed {
			board.numRevealed++
		}
		if !cell.isMine {
			return
		}
		board.numMines++
		for _, neighbor := range board.neighbors(cell) {
			neighbor.numMines++
		}
	})
}

// NewBoard lays each cell independently as a mine with probability
// mineProbability, drawn from source. The total number of mines is not fixed.
func NewBoard(width, height int, mineProbability float64, source RandomSource) (*Board, error) {
	if err := validateDimensions(width, height); err != nil {
		return nil, err
	}
	if mineProbability < 0 || mineProbability >= 1 {
		return nil, errors.Wrapf(ErrInvalidConfig, "mine probability must be in [0, 1), got %v", mineProbability)
	}
	if source == nil {
		return nil, errors.Wrap(ErrInvalidConfig, "random source is required")
	}

	board := createBoard(width, height)
	board.Cells(func(cell *Cell) {
		cell.isMine = source.Float64() < mineProbability
	})
	board.fillMines()

	return board, nil
}

// NewBoardWithMines builds a board with mines at exactly the given points
func NewBoardWithMines(width, height int, mines []Point) (*Board, error) {
	if err := validateDimensions(width, height); err != nil {
		return nil, err
	}

	board := createBoard(width, height)
	for _, pt := range mines {
		cell, err := board.checkedCellAt(pt.X, pt.Y)
		if err != nil {
			return nil, err
		}
		cell.isMine = true
	}
	board.fillMines()

	return board, nil
}
