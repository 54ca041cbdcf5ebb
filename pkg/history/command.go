// Package history provides the per-document undo/redo log. Edits are
// expressed as invertible commands: a pair of payloads describing the state
// before and after, applied by replaying one or the other.
package history

import (
	"fmt"

	"github.com/odvcencio/scened/pkg/scene"
)

// payloadKind tags the closed set of payload variants.
type payloadKind int

const (
	payloadComponent   payloadKind = iota // a component holds a given value
	payloadNoComponent                    // a component kind is absent
	payloadSubtree                        // a subtree exists at a given position
	payloadNoEntity                       // an entity is absent
	payloadParent                         // an entity sits under a given parent
)

// Payload describes one side of a command: the graph state to reinstate when
// it is applied. Payloads are built by the command constructors and replayed
// with a single dispatch switch.
type Payload struct {
	kind     payloadKind
	target   scene.EntityID
	comp     scene.Component
	compKind scene.Kind
	tree     *scene.Subtree
	parent   scene.EntityID
	index    int
}

// Command is one entry in the history log.
type Command struct {
	// MergeKey identifies the logical edit stream this command belongs to
	// (e.g. dragging one entity's transform). Commands with equal non-empty
	// merge keys coalesce inside an open gesture. Structural commands carry
	// an empty key and never merge.
	MergeKey string

	// Label is the human-readable description shown in a history panel.
	Label string

	// Target is the entity the command edits.
	Target scene.EntityID

	Inverse Payload // state before the edit
	Forward Payload // state after the edit
}

func applyPayload(g *scene.Graph, p Payload) error {
	switch p.kind {
	case payloadComponent:
		return g.SetComponent(p.target, p.comp)
	case payloadNoComponent:
		return g.RemoveComponent(p.target, p.compKind)
	case payloadSubtree:
		if g.Alive(p.tree.Root()) {
			return nil
		}
		return scene.RestoreSubtree(g, p.tree)
	case payloadNoEntity:
		g.Destroy(p.target)
		return nil
	case payloadParent:
		return g.ReparentAt(p.target, p.parent, p.index)
	}
	return fmt.Errorf("apply payload: unknown kind %d", int(p.kind))
}

func mergeKeyFor(id scene.EntityID, k scene.Kind) string {
	return fmt.Sprintf("%s/%s", k, id)
}

func setLabel(k scene.Kind) string {
	switch k {
	case scene.KindName:
		return "Rename"
	case scene.KindTransform:
		return "Transform"
	}
	return "Set " + k.String()
}

// SetComponent builds a command that stores c on the entity. The inverse
// reinstates the component value present right now (or its absence). The
// graph is not modified.
func SetComponent(g *scene.Graph, id scene.EntityID, c scene.Component) (Command, error) {
	prev, had, err := g.Component(id, c.Kind())
	if err != nil {
		return Command{}, err
	}
	cmd := Command{
		MergeKey: mergeKeyFor(id, c.Kind()),
		Label:    setLabel(c.Kind()),
		Target:   id,
		Forward:  Payload{kind: payloadComponent, target: id, comp: c},
	}
	if had {
		cmd.Inverse = Payload{kind: payloadComponent, target: id, comp: prev}
	} else {
		cmd.Inverse = Payload{kind: payloadNoComponent, target: id, compKind: c.Kind()}
	}
	return cmd, nil
}

// RemoveComponent builds a command that deletes the component of kind k.
func RemoveComponent(g *scene.Graph, id scene.EntityID, k scene.Kind) (Command, error) {
	prev, had, err := g.Component(id, k)
	if err != nil {
		return Command{}, err
	}
	cmd := Command{
		Label:   "Remove " + k.String(),
		Target:  id,
		Forward: Payload{kind: payloadNoComponent, target: id, compKind: k},
	}
	if had {
		cmd.Inverse = Payload{kind: payloadComponent, target: id, comp: prev}
	} else {
		cmd.Inverse = Payload{kind: payloadNoComponent, target: id, compKind: k}
	}
	return cmd, nil
}

// Reparent builds a command that moves the entity under newParent (appended
// as the last child; the zero id moves it to the root level). The inverse
// restores the current parent and sibling position. Cycle detection happens
// when the forward payload is applied.
func Reparent(g *scene.Graph, id, newParent scene.EntityID) (Command, error) {
	oldParent, err := g.Parent(id)
	if err != nil {
		return Command{}, err
	}
	oldIndex, err := g.ChildIndex(id)
	if err != nil {
		return Command{}, err
	}
	return Command{
		Label:   "Reparent",
		Target:  id,
		Forward: Payload{kind: payloadParent, target: id, parent: newParent, index: -1},
		Inverse: Payload{kind: payloadParent, target: id, parent: oldParent, index: oldIndex},
	}, nil
}

// Destroy builds a command that removes the subtree rooted at id. The
// inverse carries a full capture of the subtree, so undo reinstates the
// exact structure under the exact identities.
func Destroy(g *scene.Graph, id scene.EntityID) (Command, error) {
	tree, err := scene.CaptureSubtree(g, id)
	if err != nil {
		return Command{}, err
	}
	return Command{
		Label:   "Delete",
		Target:  id,
		Forward: Payload{kind: payloadNoEntity, target: id},
		Inverse: Payload{kind: payloadSubtree, tree: tree},
	}, nil
}

// Create allocates a new entity under parent and returns its id together
// with the already-applied command describing the creation. Unlike the other
// constructors it mutates the graph; record the command with Log.Record, not
// Log.Apply.
func Create(g *scene.Graph, parent scene.EntityID) (scene.EntityID, Command, error) {
	id, err := g.Create(parent)
	if err != nil {
		return scene.EntityID{}, Command{}, err
	}
	tree, err := scene.CaptureSubtree(g, id)
	if err != nil {
		return scene.EntityID{}, Command{}, err
	}
	return id, Command{
		Label:   "Create",
		Target:  id,
		Forward: Payload{kind: payloadSubtree, tree: tree},
		Inverse: Payload{kind: payloadNoEntity, target: id},
	}, nil
}
