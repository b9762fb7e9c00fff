package game

import (
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

type BoardSnapshot struct {
	Seed            int64  `yaml:"seed"`
	SerializedBoard string `yaml:"board"`
}

func (snapshot *BoardSnapshot) Serialize() string {
	out, err := yaml.Marshal(snapshot)
	if err != nil {
		panic(err)
	}

	return string(out)
}

// CreateBoard rebuilds the board laid out in the snapshot. When fresh is set
// every cell starts unrevealed.
func (snapshot *BoardSnapshot) CreateBoard(fresh bool) (*Board, error) {
	rows := strings.Split(strings.TrimRight(snapshot.SerializedBoard, "\n"), "\n")

	height := len(rows)
	width := len(rows[0])
	if width == 0 {
		return nil, errors.Wrap(ErrInvalidSnapshot, "board is empty")
	}

	board := createBoard(width, height)
	for y, row := range rows {
		if len(row) != width {
			return nil, errors.Wrapf(ErrInvalidSnapshot, "row %d has %d cells, expected %d", y, len(row), width)
		}

		for x, c := range row {
			if !board.CellAt(x, y).deserialize(c, fresh) {
				return nil, errors.Wrapf(ErrInvalidSnapshot, "unknown cell %q at (%d, %d)", c, x, y)
			}
		}
	}
	board.fillMines()

	return board, nil
}

// Snapshot records the board's mine layout and reveal state
func (board *Board) Snapshot(seed int64) *BoardSnapshot {
	var rows strings.Builder
	for y, row := range board.cells {
		if y > 0 {
			rows.WriteByte('\n')
		}
		for x := range row {
			rows.WriteRune(row[x].serialize())
		}
	}

	return &BoardSnapshot{
		Seed:            seed,
		SerializedBoard: rows.String(),
	}
}

func LoadSnapshot(in string) (*BoardSnapshot, error) {
	var snapshot BoardSnapshot
	if err := yaml.Unmarshal([]byte(in), &snapshot); err != nil {
		return nil, errors.Wrap(ErrInvalidSnapshot, err.Error())
	}
	return &snapshot, nil
}
