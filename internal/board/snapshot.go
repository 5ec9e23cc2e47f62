package board

// Snapshot is one atomic poll of all 64 sensor cells, indexed by sensor
// number. true means a piece is present. Snapshots are value types: a poll
// produces a brand-new snapshot, existing ones are never mutated.
type Snapshot [NumCells]bool

// Occupied reports whether the cell under p holds a piece.
func (s Snapshot) Occupied(p Position) bool {
	idx := ToIndex(p)
	if idx < 0 {
		return false
	}
	return s[idx]
}

// Set returns a copy of the snapshot with the cell under p set to v.
// Used by tests and the simulated sensor.
func (s Snapshot) Set(p Position, v bool) Snapshot {
	if idx := ToIndex(p); idx >= 0 {
		s[idx] = v
	}
	return s
}

// Count returns the number of occupied cells.
func (s Snapshot) Count() int {
	n := 0
	for _, v := range s {
		if v {
			n++
		}
	}
	return n
}

// Diff compares two snapshots and returns the squares where pieces appeared
// (added) and disappeared (removed), each sorted by sensor index so a given
// pair of snapshots always yields the same event order.
func Diff(prev, cur Snapshot) (added, removed []Position) {
	for i := 0; i < NumCells; i++ {
		if cur[i] == prev[i] {
			continue
		}
		p, ok := ToPosition(i)
		if !ok {
			continue
		}
		if cur[i] {
			added = append(added, p)
		} else {
			removed = append(removed, p)
		}
	}
	return added, removed
}
