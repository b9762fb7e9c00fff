// Package render draws a board as a player sees it, in the palette of the
// browser client.
package render

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"strconv"

	"github.com/pkg/errors"
	"golang.org/x/image/colornames"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/they4kman/sweepd/game"
)

const MinCellSize = 16

var (
	gridColor     = colornames.Gainsboro
	hiddenColor   = colornames.Lightgray
	revealedColor = colornames.Lime
	mineColor     = colornames.Red
	labelColor    = colornames.Black
)

func tileColor(cell *game.Cell) color.RGBA {
	switch {
	case !cell.IsRevealed():
		return hiddenColor
	case cell.IsMine():
		return mineColor
	default:
		return revealedColor
	}
}

// Image draws the board with cellSize pixels per cell. Hidden cells are never
// distinguished from one another, so the image discloses no mines.
func Image(board *game.Board, cellSize int) (*image.RGBA, error) {
	if cellSize < MinCellSize {
		return nil, errors.Errorf("cell size must be at least %d, got %d", MinCellSize, cellSize)
	}

	img := image.NewRGBA(image.Rect(0, 0, board.Width()*cellSize, board.Height()*cellSize))
	draw.Draw(img, img.Bounds(), image.NewUniform(gridColor), image.Point{}, draw.Src)

	face := basicfont.Face7x13
	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(labelColor),
		Face: face,
	}

	board.Cells(func(cell *game.Cell) {
		left, top := cell.X()*cellSize, cell.Y()*cellSize
		tile := image.Rect(left+1, top+1, left+cellSize-1, top+cellSize-1)
		draw.Draw(img, tile, image.NewUniform(tileColor(cell)), image.Point{}, draw.Src)

		if !cell.IsRevealed() || cell.IsMine() || cell.NumMines() == 0 {
			return
		}

		label := strconv.Itoa(cell.NumMines())
		baseline := top + (cellSize+face.Ascent-face.Descent)/2
		drawer.Dot = fixed.Point26_6{
			X: fixed.I(left+cellSize/2) - drawer.MeasureString(label)/2,
			Y: fixed.I(baseline),
		}
		drawer.DrawString(label)
	})

	return img, nil
}

// Board encodes Image as a PNG
func Board(w io.Writer, board *game.Board, cellSize int) error {
	img, err := Image(board, cellSize)
	if err != nil {
		return err
	}
	return errors.Wrap(png.Encode(w, img), "encoding board")
}
