package constraint

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/they4kman/sweepd/director/random"
	"github.com/they4kman/sweepd/game"
	"github.com/they4kman/sweepd/util/collections"
)

const simplifyPasses = 4

// Director plays deliberate moves derived from revealed counts. When no
// observation is conclusive it clicks the cell least likely to hold a mine,
// and falls back to a random click when nothing is known at all.
type Director struct {
	rand     *rand.Rand
	mirror   *game.Mirror
	fallback *random.Director
	log      *logrus.Entry
}

func New(rand *rand.Rand) *Director {
	return &Director{
		rand:     rand,
		fallback: random.New(rand),
		log:      logrus.WithField("component", "director"),
	}
}

// Observation states that exactly numMines of cells hold mines
type Observation struct {
	origin   game.Point
	numMines int
	cells    collections.Set[game.Point]
}

func (observation Observation) String() string {
	cells := make([]string, 0, len(observation.cells))
	for cell := range observation.cells {
		cells = append(cells, cell.String())
	}
	sort.Strings(cells)

	return fmt.Sprintf("Obs[%8s, %d ε %s]", observation.origin, observation.numMines, strings.Join(cells, ", "))
}

func (observation Observation) MineProbability() float64 {
	return float64(observation.numMines) / float64(observation.cells.Len())
}

func (observation Observation) sameCells(other Observation) bool {
	return observation.cells.Len() == other.cells.Len() &&
		observation.cells.Intersection(other.cells).Len() == observation.cells.Len()
}

func (director *Director) Init(mirror *game.Mirror) {
	director.mirror = mirror
	director.fallback.Init(mirror)
}

func (director *Director) Act() (game.Move, bool) {
	observations := director.simplify(director.observations())

	actors := []func([]Observation) (game.Move, bool){
		director.actDeliberate,
		director.actLowestProbability,
	}
	for _, actor := range actors {
		if move, ok := actor(observations); ok {
			return move, true
		}
	}

	return director.fallback.Act()
}

func (director *Director) actDeliberate(observations []Observation) (game.Move, bool) {
	for _, observation := range observations {
		if observation.numMines == 0 {
			return game.Move{Point: first(observation.cells), Type: game.Click}, true
		}
	}

	if director.mirror.FlagsLeft() > 0 {
		for _, observation := range observations {
			if observation.numMines == observation.cells.Len() {
				return game.Move{Point: first(observation.cells), Type: game.ToggleFlag}, true
			}
		}
	}

	return game.Move{}, false
}

// actLowestProbability clicks a cell with the lowest chance of holding a mine.
// A cell's chance is the highest any observation covering it gives.
func (director *Director) actLowestProbability(observations []Observation) (game.Move, bool) {
	risk := make(map[game.Point]float64)
	for _, observation := range observations {
		probability := observation.MineProbability()
		for cell := range observation.cells {
			if past, ok := risk[cell]; !ok || probability > past {
				risk[cell] = probability
			}
		}
	}

	lowest := math.Inf(1)
	for _, probability := range risk {
		if probability < lowest {
			lowest = probability
		}
	}
	if lowest >= 1 {
		return game.Move{}, false
	}

	candidates := make([]game.Point, 0)
	for cell, probability := range risk {
		if probability == lowest {
			candidates = append(candidates, cell)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return less(candidates[i], candidates[j])
	})

	chosen := candidates[director.rand.Intn(len(candidates))]
	director.log.WithFields(logrus.Fields{
		"cell":        chosen,
		"probability": lowest,
		"candidates":  len(candidates),
	}).Debug("Guessing lowest probability cell")

	return game.Move{Point: chosen, Type: game.Click}, true
}

// observations derives one observation per revealed number with hidden
// neighbors, with flagged neighbors already subtracted
func (director *Director) observations() []Observation {
	observations := make([]Observation, 0)

	for _, tile := range director.mirror.Revealed() {
		if tile.IsMine || tile.AdjacentMines == 0 {
			continue
		}

		origin := game.Point{X: tile.X, Y: tile.Y}
		unrevealed := collections.NewSet[game.Point]()
		flagged := collections.NewSet[game.Point]()
		for _, neighbor := range director.mirror.Neighbors(origin) {
			if director.mirror.IsRevealed(neighbor) {
				continue
			}
			unrevealed.Add(neighbor)
			if director.mirror.IsFlagged(neighbor) {
				flagged.Add(neighbor)
			}
		}

		cells := unrevealed.Difference(flagged)
		if cells.Len() == 0 {
			continue
		}

		observations = append(observations, Observation{
			origin:   origin,
			numMines: tile.AdjacentMines - flagged.Len(),
			cells:    cells,
		})
	}

	return observations
}

// simplify adds observations derived from overlapping pairs until nothing new
// turns up
func (director *Director) simplify(observations []Observation) []Observation {
	for pass := 0; pass < simplifyPasses; pass++ {
		numObservations := len(observations)
		for i := 0; i < numObservations; i++ {
			for j := 0; j < numObservations; j++ {
				if i == j {
					continue
				}

				derived, ok := derive(observations[i], observations[j])
				if !ok || known(observations, derived) {
					continue
				}

				director.log.WithField("observation", derived.String()).Debug("Derived observation")
				observations = append(observations, derived)
			}
		}

		if len(observations) == numObservations {
			break
		}
	}

	return observations
}

// derive combines a with an overlapping b. If a's cells all lie within b, the
// rest of b holds the difference in mines. Otherwise the cells shared with a
// hold at most a.numMines of b's mines, so when b's remaining mines fill the
// rest of b exactly, every one of those cells is a mine.
func derive(a, b Observation) (Observation, bool) {
	shared := a.cells.Intersection(b.cells)
	rest := b.cells.Difference(a.cells)
	if shared.Len() == 0 || rest.Len() == 0 {
		return Observation{}, false
	}

	numMines := b.numMines - a.numMines
	if shared.Len() == a.cells.Len() {
		if numMines < 0 || numMines > rest.Len() {
			return Observation{}, false
		}
		return Observation{origin: b.origin, numMines: numMines, cells: rest}, true
	}

	if numMines == rest.Len() {
		return Observation{origin: b.origin, numMines: numMines, cells: rest}, true
	}
	return Observation{}, false
}

func known(observations []Observation, observation Observation) bool {
	for _, other := range observations {
		if other.sameCells(observation) {
			return true
		}
	}
	return false
}

func less(a, b game.Point) bool {
	return a.Y < b.Y || (a.Y == b.Y && a.X < b.X)
}

// first picks the lowest cell in row-major order, so moves are reproducible
func first(cells collections.Set[game.Point]) game.Point {
	var chosen game.Point
	found := false
	for cell := range cells {
		if !found || less(cell, chosen) {
			chosen = cell
			found = true
		}
	}
	return chosen
}
