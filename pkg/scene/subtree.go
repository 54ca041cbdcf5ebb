package scene

import "fmt"

// Subtree is a deeply-owned capture of one entity and all its descendants,
// along with where the root sat (parent and sibling position). Identities
// are preserved, which lets an undo reinstate a destroyed subtree without
// invalidating later history entries that reference entities inside it.
type Subtree struct {
	parent  EntityID
	index   int
	records []record
}

// Root returns the identity of the subtree's root entity.
func (t *Subtree) Root() EntityID { return t.records[0].id }

// EntityCount returns the number of entities in the subtree.
func (t *Subtree) EntityCount() int { return len(t.records) }

// CaptureSubtree captures the subtree rooted at id without modifying the
// graph.
func CaptureSubtree(g *Graph, id EntityID) (*Subtree, error) {
	s, err := g.resolve(id)
	if err != nil {
		return nil, fmt.Errorf("capture subtree %s: %w", id, err)
	}
	idx, err := g.ChildIndex(id)
	if err != nil {
		return nil, err
	}
	t := &Subtree{parent: s.parent, index: idx}
	g.walkFrom(id, func(cur EntityID) bool {
		cs := &g.slots[cur.Slot]
		t.records = append(t.records, record{
			id:         cur,
			parent:     cs.parent,
			components: sortedComponents(cs.components),
		})
		return true
	})
	return t, nil
}

// RestoreSubtree reinstates a captured subtree under its recorded parent at
// its recorded sibling position, with the original identities. Fails if the
// parent no longer resolves or any recorded slot is occupied; on failure the
// partially placed records are rolled back.
func RestoreSubtree(g *Graph, t *Subtree) error {
	placed := make([]EntityID, 0, len(t.records))
	fail := func(i int, err error) error {
		for j := len(placed) - 1; j >= 0; j-- {
			g.Destroy(placed[j])
		}
		return fmt.Errorf("restore subtree: record %d: %w", i, err)
	}

	for i, rec := range t.records {
		index := -1
		if i == 0 {
			index = t.index
		}
		if err := g.placeAt(rec.id, rec.parent, index); err != nil {
			return fail(i, err)
		}
		placed = append(placed, rec.id)
		for _, c := range rec.components {
			g.slots[rec.id.Slot].components[c.Kind()] = cloneComponent(c)
		}
	}
	return nil
}
