package scene

import (
	"fmt"
	"sort"
)

// EntityID identifies an entity as (arena slot, generation). The zero value
// means "no entity" and is used for root-level parents. Generations start at
// 1 and increment each time a slot is reused, so a stale EntityID held across
// a destroy never resolves again.
type EntityID struct {
	Slot uint32
	Gen  uint32
}

// IsZero reports whether the id is the "no entity" sentinel.
func (id EntityID) IsZero() bool { return id.Gen == 0 }

func (id EntityID) String() string {
	if id.IsZero() {
		return "-"
	}
	return fmt.Sprintf("%d.%d", id.Slot, id.Gen)
}

type slot struct {
	gen uint32
	// maxGen is the highest generation ever minted for this slot. Restores
	// roll gen back to a recorded value; allocation always advances past
	// maxGen so an invalidated identity is never handed out twice.
	maxGen     uint32
	live       bool
	parent     EntityID // zero for roots
	children   []EntityID
	components map[Kind]Component
}

// Graph is a mutable rooted forest of entities held in a generational arena.
// Lookup by EntityID is O(1); all structural mutations are synchronous and
// either fully apply or fully reject.
type Graph struct {
	slots []slot
	free  []uint32 // reusable slot indices, LIFO
	roots []EntityID
	count int
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{}
}

// Len returns the number of live entities.
func (g *Graph) Len() int { return g.count }

// Roots returns the ordered root entities.
func (g *Graph) Roots() []EntityID {
	out := make([]EntityID, len(g.roots))
	copy(out, g.roots)
	return out
}

// Alive reports whether id resolves to a live entity.
func (g *Graph) Alive(id EntityID) bool {
	_, err := g.resolve(id)
	return err == nil
}

func (g *Graph) resolve(id EntityID) (*slot, error) {
	if id.IsZero() || int(id.Slot) >= len(g.slots) {
		return nil, ErrUnknownEntity
	}
	s := &g.slots[id.Slot]
	if !s.live || s.gen != id.Gen {
		return nil, ErrUnknownEntity
	}
	return s, nil
}

// Create allocates a new entity under parent, or as a new root when parent is
// the zero id. Freed slots are reused with a bumped generation. Returns
// ErrDanglingReference when parent does not resolve.
func (g *Graph) Create(parent EntityID) (EntityID, error) {
	if !parent.IsZero() {
		if _, err := g.resolve(parent); err != nil {
			return EntityID{}, fmt.Errorf("create under %s: %w", parent, ErrDanglingReference)
		}
	}

	var idx uint32
	if n := len(g.free); n > 0 {
		idx = g.free[n-1]
		g.free = g.free[:n-1]
	} else {
		g.slots = append(g.slots, slot{})
		idx = uint32(len(g.slots) - 1)
	}

	s := &g.slots[idx]
	s.gen = s.maxGen + 1
	s.maxGen = s.gen
	s.live = true
	s.parent = parent
	s.children = nil
	s.components = make(map[Kind]Component)

	id := EntityID{Slot: idx, Gen: s.gen}
	if parent.IsZero() {
		g.roots = append(g.roots, id)
	} else {
		p := &g.slots[parent.Slot]
		p.children = append(p.children, id)
	}
	g.count++
	return id, nil
}

// Destroy removes the subtree rooted at id. Destroying an entity that does
// not resolve is a no-op; the call is idempotent.
func (g *Graph) Destroy(id EntityID) {
	s, err := g.resolve(id)
	if err != nil {
		return
	}
	g.detach(id, s)
	g.freeSubtree(id)
}

// detach unlinks id from its parent's child list (or the root list).
func (g *Graph) detach(id EntityID, s *slot) {
	if s.parent.IsZero() {
		g.roots = removeID(g.roots, id)
		return
	}
	p := &g.slots[s.parent.Slot]
	p.children = removeID(p.children, id)
}

func (g *Graph) freeSubtree(id EntityID) {
	s := &g.slots[id.Slot]
	for _, c := range s.children {
		g.freeSubtree(c)
	}
	s.live = false
	s.parent = EntityID{}
	s.children = nil
	s.components = nil
	g.free = append(g.free, id.Slot)
	g.count--
}

// SetComponent stores c on the entity, replacing any component of the same
// kind. The value is deep-copied so the caller keeps no alias into the graph.
func (g *Graph) SetComponent(id EntityID, c Component) error {
	s, err := g.resolve(id)
	if err != nil {
		return fmt.Errorf("set %s on %s: %w", c.Kind(), id, err)
	}
	s.components[c.Kind()] = cloneComponent(c)
	return nil
}

// RemoveComponent deletes the component of the given kind. Removing a kind
// the entity does not carry is a no-op.
func (g *Graph) RemoveComponent(id EntityID, k Kind) error {
	s, err := g.resolve(id)
	if err != nil {
		return fmt.Errorf("remove %s from %s: %w", k, id, err)
	}
	delete(s.components, k)
	return nil
}

// Component returns the entity's component of the given kind, if present.
func (g *Graph) Component(id EntityID, k Kind) (Component, bool, error) {
	s, err := g.resolve(id)
	if err != nil {
		return nil, false, fmt.Errorf("component %s of %s: %w", k, id, err)
	}
	c, ok := s.components[k]
	if !ok {
		return nil, false, nil
	}
	return cloneComponent(c), true, nil
}

// Components returns the entity's full component bag, ordered by kind.
func (g *Graph) Components(id EntityID) ([]Component, error) {
	s, err := g.resolve(id)
	if err != nil {
		return nil, fmt.Errorf("components of %s: %w", id, err)
	}
	return sortedComponents(s.components), nil
}

func sortedComponents(m map[Kind]Component) []Component {
	out := make([]Component, 0, len(m))
	for _, c := range m {
		out = append(out, cloneComponent(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind() < out[j].Kind() })
	return out
}

// Parent returns the entity's parent, or the zero id for roots.
func (g *Graph) Parent(id EntityID) (EntityID, error) {
	s, err := g.resolve(id)
	if err != nil {
		return EntityID{}, fmt.Errorf("parent of %s: %w", id, err)
	}
	return s.parent, nil
}

// Children returns the ordered children of the entity.
func (g *Graph) Children(id EntityID) ([]EntityID, error) {
	s, err := g.resolve(id)
	if err != nil {
		return nil, fmt.Errorf("children of %s: %w", id, err)
	}
	out := make([]EntityID, len(s.children))
	copy(out, s.children)
	return out, nil
}

// ChildIndex returns the entity's position among its siblings (within its
// parent's child list, or the root list for roots).
func (g *Graph) ChildIndex(id EntityID) (int, error) {
	s, err := g.resolve(id)
	if err != nil {
		return 0, fmt.Errorf("child index of %s: %w", id, err)
	}
	siblings := g.roots
	if !s.parent.IsZero() {
		siblings = g.slots[s.parent.Slot].children
	}
	for i, c := range siblings {
		if c == id {
			return i, nil
		}
	}
	return 0, fmt.Errorf("child index of %s: not linked", id)
}

// Reparent moves the entity under newParent (appended as the last child), or
// to the end of the root list when newParent is zero. Rejects moves that
// would make the entity its own ancestor.
func (g *Graph) Reparent(id, newParent EntityID) error {
	return g.ReparentAt(id, newParent, -1)
}

// ReparentAt is Reparent with an explicit sibling position; index -1 appends.
// The graph is unchanged on any error.
func (g *Graph) ReparentAt(id, newParent EntityID, index int) error {
	s, err := g.resolve(id)
	if err != nil {
		return fmt.Errorf("reparent %s: %w", id, err)
	}
	if !newParent.IsZero() {
		if _, err := g.resolve(newParent); err != nil {
			return fmt.Errorf("reparent %s under %s: %w", id, newParent, ErrDanglingReference)
		}
		// Walk the ancestor chain of the new parent; hitting id means the
		// move would close a cycle.
		for cur := newParent; !cur.IsZero(); cur = g.slots[cur.Slot].parent {
			if cur == id {
				return fmt.Errorf("reparent %s under %s: %w", id, newParent, ErrCycleDetected)
			}
		}
	}

	g.detach(id, s)
	s.parent = newParent

	siblings := &g.roots
	if !newParent.IsZero() {
		siblings = &g.slots[newParent.Slot].children
	}
	if index < 0 || index > len(*siblings) {
		index = len(*siblings)
	}
	*siblings = append(*siblings, EntityID{})
	copy((*siblings)[index+1:], (*siblings)[index:])
	(*siblings)[index] = id
	return nil
}

// Walk visits every live entity parent-first (pre-order across roots in
// order). Returning false from fn stops the walk.
func (g *Graph) Walk(fn func(id EntityID) bool) {
	for _, r := range g.roots {
		if !g.walkFrom(r, fn) {
			return
		}
	}
}

func (g *Graph) walkFrom(id EntityID, fn func(id EntityID) bool) bool {
	if !fn(id) {
		return false
	}
	for _, c := range g.slots[id.Slot].children {
		if !g.walkFrom(c, fn) {
			return false
		}
	}
	return true
}

func removeID(ids []EntityID, id EntityID) []EntityID {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

// placeAt reinstates an entity at a specific slot and generation, used when
// restoring snapshots and undoing destroys. The slot must not be occupied.
func (g *Graph) placeAt(id EntityID, parent EntityID, index int) error {
	if id.IsZero() {
		return fmt.Errorf("place entity: zero id")
	}
	for int(id.Slot) >= len(g.slots) {
		g.slots = append(g.slots, slot{})
	}
	s := &g.slots[id.Slot]
	if s.live {
		return fmt.Errorf("place entity %s: slot occupied", id)
	}
	if !parent.IsZero() {
		if _, err := g.resolve(parent); err != nil {
			return fmt.Errorf("place entity %s under %s: %w", id, parent, err)
		}
	}

	// Drop the slot from the free list if it was there.
	for i, f := range g.free {
		if f == id.Slot {
			g.free = append(g.free[:i], g.free[i+1:]...)
			break
		}
	}

	s.gen = id.Gen
	if id.Gen > s.maxGen {
		s.maxGen = id.Gen
	}
	s.live = true
	s.parent = parent
	s.children = nil
	s.components = make(map[Kind]Component)

	siblings := &g.roots
	if !parent.IsZero() {
		siblings = &g.slots[parent.Slot].children
	}
	if index < 0 || index > len(*siblings) {
		index = len(*siblings)
	}
	*siblings = append(*siblings, EntityID{})
	copy((*siblings)[index+1:], (*siblings)[index:])
	(*siblings)[index] = id
	g.count++
	return nil
}

// reindexFree rebuilds the free list after a bulk restore so future creates
// reuse the gaps left by the recorded identities.
func (g *Graph) reindexFree() {
	g.free = g.free[:0]
	for i := len(g.slots) - 1; i >= 0; i-- {
		if !g.slots[i].live {
			g.free = append(g.free, uint32(i))
		}
	}
}
