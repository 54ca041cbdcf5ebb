package scene

import (
	"fmt"

	"lukechampine.com/blake3"
)

// record is one linearized entity: its original identity, its parent at
// capture time and a deep copy of its component bag.
type record struct {
	id         EntityID
	parent     EntityID
	components []Component
}

// Snapshot is a deeply-owned, immutable capture of a graph's full state.
// Entities are recorded parent-first (pre-order across roots), and each
// record keeps its original (slot, generation) identity so restoring a
// snapshot reinstates the exact identities it was captured from.
type Snapshot struct {
	records []record
}

// EntityCount returns the number of entities in the snapshot.
func (s *Snapshot) EntityCount() int { return len(s.records) }

// Digest returns the blake3 hash of the snapshot's canonical serialized
// form. Two snapshots of value-equal graphs produce equal digests.
func (s *Snapshot) Digest() [32]byte {
	return blake3.Sum256(MarshalSnapshot(s))
}

// Capture linearizes the graph into a Snapshot. The graph is not modified.
func Capture(g *Graph) *Snapshot {
	snap := &Snapshot{records: make([]record, 0, g.Len())}
	g.Walk(func(id EntityID) bool {
		s := &g.slots[id.Slot]
		snap.records = append(snap.records, record{
			id:         id,
			parent:     s.parent,
			components: sortedComponents(s.components),
		})
		return true
	})
	return snap
}

// Restore rebuilds a fresh graph from the snapshot. Records are replayed in
// their captured order, so every parent exists before its children; a child
// referencing an unrecorded parent, a duplicate slot, or a zero identity
// fails with ErrCorruptSnapshot and no graph is returned.
func Restore(s *Snapshot) (*Graph, error) {
	g := NewGraph()
	for i, rec := range s.records {
		if err := g.placeAt(rec.id, rec.parent, -1); err != nil {
			return nil, fmt.Errorf("restore snapshot: record %d: %v: %w", i, err, ErrCorruptSnapshot)
		}
		for _, c := range rec.components {
			g.slots[rec.id.Slot].components[c.Kind()] = cloneComponent(c)
		}
	}
	g.reindexFree()
	return g, nil
}
