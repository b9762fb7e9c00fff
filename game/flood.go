package game

import "github.com/gammazero/deque"

// Visitor is called once per cell reached by flood and must mark the cell
// revealed; it reports whether the flood continues through its neighbors.
type Visitor func(*Cell) bool
type NeighborGetter func(*Cell) []*Cell

// flood performs a breadth-first traversal from cell. A cell may be queued
// more than once by different neighbors; the revealed check at dequeue time
// makes every later copy a no-op, so each cell is visited at most once.
func flood(cell *Cell, visit Visitor, getNeighbors NeighborGetter) {
	var visitQueue deque.Deque
	visitQueue.PushBack(cell)

	for visitQueue.Len() > 0 {
		cell := visitQueue.PopFront().(*Cell)
		if cell.isRevealed {
			continue
		}

		if !visit(cell) {
			continue
		}

		for _, neighbor := range getNeighbors(cell) {
			if !neighbor.isRevealed {
				visitQueue.PushBack(neighbor)
			}
		}
	}
}
