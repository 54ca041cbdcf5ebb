package scene

import "fmt"

// Kind identifies one of the closed set of component kinds an entity can
// carry. Each entity holds at most one component per kind.
type Kind int

const (
	KindName Kind = iota
	KindTransform
	KindVisual
	KindNode
	KindText
	KindCustom
)

func (k Kind) String() string {
	switch k {
	case KindName:
		return "name"
	case KindTransform:
		return "transform"
	case KindVisual:
		return "visual"
	case KindNode:
		return "node"
	case KindText:
		return "text"
	case KindCustom:
		return "custom"
	}
	return fmt.Sprintf("unknown(%d)", int(k))
}

// Component is one typed value in an entity's component bag. The set of
// implementations is closed; consumers dispatch with a type switch.
type Component interface {
	Kind() Kind
	Equal(other Component) bool
}

// Name is the display name of an entity.
type Name struct {
	Value string
}

func (Name) Kind() Kind { return KindName }

func (n Name) Equal(other Component) bool {
	o, ok := other.(Name)
	return ok && o == n
}

// Transform is a 2D position, rotation (radians) and scale.
type Transform struct {
	X, Y     float64
	Rotation float64
	ScaleX   float64
	ScaleY   float64
}

func (Transform) Kind() Kind { return KindTransform }

func (t Transform) Equal(other Component) bool {
	o, ok := other.(Transform)
	return ok && o == t
}

// Visual describes how an entity is drawn: a texture reference, an RGBA tint
// and a visibility toggle.
type Visual struct {
	Texture string
	Tint    uint32
	Visible bool
}

func (Visual) Kind() Kind { return KindVisual }

func (v Visual) Equal(other Component) bool {
	o, ok := other.(Visual)
	return ok && o == v
}

// Node classifies an entity for spawning (player, npc, resource, ...).
type Node struct {
	Class string
}

func (Node) Kind() Kind { return KindNode }

func (n Node) Equal(other Component) bool {
	o, ok := other.(Node)
	return ok && o == n
}

// Text is a text label with a point size.
type Text struct {
	Content string
	Size    float64
}

func (Text) Kind() Kind { return KindText }

func (t Text) Equal(other Component) bool {
	o, ok := other.(Text)
	return ok && o == t
}

// Custom is an open bag of string properties for components the editor does
// not model natively.
type Custom struct {
	Props map[string]string
}

func (Custom) Kind() Kind { return KindCustom }

func (c Custom) Equal(other Component) bool {
	o, ok := other.(Custom)
	if !ok || len(o.Props) != len(c.Props) {
		return false
	}
	for k, v := range c.Props {
		if ov, found := o.Props[k]; !found || ov != v {
			return false
		}
	}
	return true
}

// cloneComponent deep-copies a component so snapshots and command payloads
// never alias live graph state. Only Custom carries reference types.
func cloneComponent(c Component) Component {
	switch v := c.(type) {
	case Custom:
		props := make(map[string]string, len(v.Props))
		for k, val := range v.Props {
			props[k] = val
		}
		return Custom{Props: props}
	default:
		return c
	}
}
