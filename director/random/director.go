package random

import (
	"math/rand"

	"github.com/they4kman/sweepd/game"
)

// Director clicks hidden cells in a random order fixed at Init
type Director struct {
	rand   *rand.Rand
	mirror *game.Mirror
	order  []game.Point
}

func New(rand *rand.Rand) *Director {
	return &Director{rand: rand}
}

func (director *Director) Init(mirror *game.Mirror) {
	director.mirror = mirror
	director.order = make([]game.Point, 0, mirror.Width()*mirror.Height())
	for y := 0; y < mirror.Height(); y++ {
		for x := 0; x < mirror.Width(); x++ {
			director.order = append(director.order, game.Point{X: x, Y: y})
		}
	}

	director.rand.Shuffle(len(director.order), func(i, j int) {
		director.order[i], director.order[j] = director.order[j], director.order[i]
	})
}

func (director *Director) Act() (game.Move, bool) {
	for len(director.order) > 0 {
		pt := director.order[0]
		if !director.mirror.IsRevealed(pt) && !director.mirror.IsFlagged(pt) {
			return game.Move{Point: pt, Type: game.Click}, true
		}
		director.order = director.order[1:]
	}
	return game.Move{}, false
}
