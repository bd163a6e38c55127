package board

import (
	"math/rand"

	"github.com/codered/server/internal/events"
)

// Size is the board edge length.
const Size = 15

// Board holds the shared grid, the tile bag, and per-seat racks. Board is
// not safe for concurrent use; the owning session serializes access.
//
// Scoring here is a placeholder that grants one point per placed tile and
// performs no geometric or lexical verification.
type Board struct {
	grid  [Size][Size]string
	bag   []string
	racks map[string][]string
	rng   *rand.Rand
}

// New returns an empty board with a freshly shuffled bag.
func New(rng *rand.Rand) *Board {
	return &Board{
		bag:   newTileBag(rng),
		racks: make(map[string][]string),
		rng:   rng,
	}
}

// DrawRack tops up the seat's rack to RackSize from the bag.
func (b *Board) DrawRack(seatID string) {
	rack := b.racks[seatID]
	for len(rack) < RackSize && len(b.bag) > 0 {
		rack = append(rack, b.bag[len(b.bag)-1])
		b.bag = b.bag[:len(b.bag)-1]
	}
	b.racks[seatID] = rack
}

// Rack returns the seat's current rack.
func (b *Board) Rack(seatID string) []string {
	return b.racks[seatID]
}

// BagCount returns how many tiles remain undrawn.
func (b *Board) BagCount() int {
	return len(b.bag)
}

// Place writes the move's tiles onto the grid, removes matching letters from
// the seat's rack where present, refills the rack, and returns the placeholder
// score of one point per tile. Out-of-bounds tiles are skipped.
func (b *Board) Place(seatID string, tiles []events.PlacedTile) int {
	placed := 0
	for _, t := range tiles {
		if t.Row < 0 || t.Row >= Size || t.Col < 0 || t.Col >= Size {
			continue
		}
		b.grid[t.Row][t.Col] = t.Letter
		b.removeFromRack(seatID, t.Letter)
		placed++
	}
	b.DrawRack(seatID)
	return placed
}

func (b *Board) removeFromRack(seatID, letter string) {
	rack := b.racks[seatID]
	for i, l := range rack {
		if l == letter {
			b.racks[seatID] = append(rack[:i], rack[i+1:]...)
			return
		}
	}
}

// Grid returns a copy of the grid for snapshots.
func (b *Board) Grid() [][]string {
	grid := make([][]string, Size)
	for r := range b.grid {
		row := make([]string, Size)
		copy(row, b.grid[r][:])
		grid[r] = row
	}
	return grid
}
