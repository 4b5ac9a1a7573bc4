// Package ordering plans rank changes for a contiguous 1..N ordering.
//
// A move never leaves gaps or duplicates: the block of ranks between the old
// and new position shifts by one and the moved item takes the target rank.
// The repository turns a Move into two UPDATE statements; Ranks applies the
// same plan in memory.
package ordering

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownID is returned when an id is not part of the ordering.
var ErrUnknownID = errors.New("id not in ordering")

// Move is the plan for moving one item from Current to Target.
// When Delta is non-zero, every other item with a rank in [Lo, Hi] has its
// rank changed by Delta.
type Move struct {
	Current int
	Target  int
	Lo      int
	Hi      int
	Delta   int
}

// NoOp reports whether the move changes nothing.
func (m Move) NoOp() bool {
	return m.Current == m.Target
}

// Plan computes the shift window for moving an item from current to target.
// Target must already be clamped, see Clamp.
func Plan(current, target int) Move {
	m := Move{Current: current, Target: target}
	switch {
	case target < current:
		m.Lo, m.Hi, m.Delta = target, current-1, 1
	case target > current:
		m.Lo, m.Hi, m.Delta = current+1, target, -1
	}
	return m
}

// Clamp bounds target into [1, n]. With n < 1 it returns 1.
func Clamp(target, n int) int {
	if n < 1 || target < 1 {
		return 1
	}
	if target > n {
		return n
	}
	return target
}

// Ranks maps item id to its rank.
type Ranks map[int]int

// Len is the number of ranked items.
func (r Ranks) Len() int {
	return len(r)
}

// Append places id after the last item and returns its rank.
func (r Ranks) Append(id int) int {
	rank := len(r) + 1
	r[id] = rank
	return rank
}

// Move relocates id to target, clamped into range, shifting the items in
// between. It returns the plan that was applied.
func (r Ranks) Move(id, target int) (Move, error) {
	current, ok := r[id]
	if !ok {
		return Move{}, fmt.Errorf("%w: %d", ErrUnknownID, id)
	}

	m := Plan(current, Clamp(target, len(r)))
	if m.NoOp() {
		return m, nil
	}

	for other, rank := range r {
		if other != id && rank >= m.Lo && rank <= m.Hi {
			r[other] = rank + m.Delta
		}
	}
	r[id] = m.Target
	return m, nil
}

// Remove deletes id and closes the gap it leaves.
func (r Ranks) Remove(id int) error {
	removed, ok := r[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownID, id)
	}

	delete(r, id)
	for other, rank := range r {
		if rank > removed {
			r[other] = rank - 1
		}
	}
	return nil
}

// IDs returns item ids sorted by rank.
func (r Ranks) IDs() []int {
	ids := make([]int, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return r[ids[i]] < r[ids[j]] })
	return ids
}

// Validate checks that ranks form exactly 1..N.
func (r Ranks) Validate() error {
	seen := make([]bool, len(r)+1)
	for id, rank := range r {
		if rank < 1 || rank > len(r) {
			return fmt.Errorf("id %d has rank %d outside 1..%d", id, rank, len(r))
		}
		if seen[rank] {
			return fmt.Errorf("rank %d assigned twice", rank)
		}
		seen[rank] = true
	}
	return nil
}
