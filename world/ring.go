package world

// Ring is a bounded tick-keyed history of snapshots. Insertion order is
// preserved so the oldest entry can be identified for eviction without a
// scan once maxSnapshots is exceeded.
type Ring struct {
	snapshots    map[int32]Snapshot
	order        []int32
	maxSnapshots int
}

// NewRing returns an empty ring that retains at most maxSnapshots entries.
func NewRing(maxSnapshots int) *Ring {
	return &Ring{
		snapshots:    make(map[int32]Snapshot),
		maxSnapshots: maxSnapshots,
	}
}

// Save stores snap, evicting the oldest entry first if the ring is full.
func (r *Ring) Save(snap Snapshot) {
	if _, exists := r.snapshots[snap.Tick]; !exists {
		r.order = append(r.order, snap.Tick)
	}
	r.snapshots[snap.Tick] = snap

	for len(r.order) > r.maxSnapshots {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.snapshots, oldest)
	}
}

// Get returns the snapshot at exactly tick, if any.
func (r *Ring) Get(tick int32) (Snapshot, bool) {
	s, ok := r.snapshots[tick]
	return s, ok
}

// NearestAtOrBefore returns the most recent snapshot at or before tick.
func (r *Ring) NearestAtOrBefore(tick int32) (Snapshot, bool) {
	best, found := Snapshot{}, false
	for t, s := range r.snapshots {
		if t <= tick && (!found || t > best.Tick) {
			best, found = s, true
		}
	}
	return best, found
}

// ClearAfter removes every snapshot strictly newer than tick (used after a
// rollback discards the resimulated future).
func (r *Ring) ClearAfter(tick int32) {
	kept := r.order[:0:0]
	for _, t := range r.order {
		if t > tick {
			delete(r.snapshots, t)
			continue
		}
		kept = append(kept, t)
	}
	r.order = kept
}

// ClearAll empties the ring.
func (r *Ring) ClearAll() {
	r.snapshots = make(map[int32]Snapshot)
	r.order = nil
}

// Len returns the number of snapshots currently retained.
func (r *Ring) Len() int { return len(r.order) }
