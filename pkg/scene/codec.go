package scene

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// snapshotMagic versions the serialized snapshot layout.
const snapshotMagic = "scened-snapshot 1"

// MarshalSnapshot serializes a snapshot to a deterministic text format:
//
//	scened-snapshot 1
//	entities N
//
//	entity <slot>.<gen> <parent|->
//	<component lines>
//
// Entity blocks appear in capture (pre-order) order and are separated by
// blank lines. Component lines are sorted by kind; string fields are quoted.
func MarshalSnapshot(s *Snapshot) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s\n", snapshotMagic)
	fmt.Fprintf(&buf, "entities %d\n", len(s.records))
	for _, rec := range s.records {
		buf.WriteByte('\n')
		fmt.Fprintf(&buf, "entity %s %s\n", rec.id, rec.parent)
		for _, c := range rec.components {
			buf.WriteString(encodeComponent(c))
			buf.WriteByte('\n')
		}
	}
	return buf.Bytes()
}

// UnmarshalSnapshot parses a serialized snapshot. Structural invariants
// beyond the text layout (parent ordering, slot collisions) are checked by
// Restore.
func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) < 2 || lines[0] != snapshotMagic {
		return nil, fmt.Errorf("unmarshal snapshot: bad magic: %w", ErrCorruptSnapshot)
	}
	countStr, ok := strings.CutPrefix(lines[1], "entities ")
	if !ok {
		return nil, fmt.Errorf("unmarshal snapshot: missing entity count: %w", ErrCorruptSnapshot)
	}
	count, err := strconv.Atoi(countStr)
	if err != nil || count < 0 {
		return nil, fmt.Errorf("unmarshal snapshot: bad entity count %q: %w", countStr, ErrCorruptSnapshot)
	}
	// Every entity block occupies at least one byte of input, so a count
	// beyond the input size is corrupt; checking here keeps the
	// pre-allocation below bounded by the data actually supplied.
	if count > len(data) {
		return nil, fmt.Errorf("unmarshal snapshot: entity count %d exceeds input size: %w", count, ErrCorruptSnapshot)
	}

	s := &Snapshot{records: make([]record, 0, count)}
	var cur *record
	for _, line := range lines[2:] {
		if line == "" {
			continue
		}
		if rest, ok := strings.CutPrefix(line, "entity "); ok {
			id, parent, err := parseEntityHeader(rest)
			if err != nil {
				return nil, err
			}
			s.records = append(s.records, record{id: id, parent: parent})
			cur = &s.records[len(s.records)-1]
			continue
		}
		if cur == nil {
			return nil, fmt.Errorf("unmarshal snapshot: component before entity: %w", ErrCorruptSnapshot)
		}
		c, err := decodeComponent(line)
		if err != nil {
			return nil, err
		}
		cur.components = append(cur.components, c)
	}
	if len(s.records) != count {
		return nil, fmt.Errorf("unmarshal snapshot: expected %d entities, found %d: %w",
			count, len(s.records), ErrCorruptSnapshot)
	}
	return s, nil
}

func parseEntityHeader(rest string) (EntityID, EntityID, error) {
	idStr, parentStr, ok := strings.Cut(rest, " ")
	if !ok {
		return EntityID{}, EntityID{}, fmt.Errorf("unmarshal snapshot: malformed entity header %q: %w", rest, ErrCorruptSnapshot)
	}
	id, err := parseEntityID(idStr)
	if err != nil || id.IsZero() {
		return EntityID{}, EntityID{}, fmt.Errorf("unmarshal snapshot: bad entity id %q: %w", idStr, ErrCorruptSnapshot)
	}
	parent, err := parseEntityID(parentStr)
	if err != nil {
		return EntityID{}, EntityID{}, fmt.Errorf("unmarshal snapshot: bad parent id %q: %w", parentStr, ErrCorruptSnapshot)
	}
	return id, parent, nil
}

func parseEntityID(s string) (EntityID, error) {
	if s == "-" {
		return EntityID{}, nil
	}
	slotStr, genStr, ok := strings.Cut(s, ".")
	if !ok {
		return EntityID{}, fmt.Errorf("bad id %q", s)
	}
	slot, err := strconv.ParseUint(slotStr, 10, 32)
	if err != nil {
		return EntityID{}, fmt.Errorf("bad id %q", s)
	}
	gen, err := strconv.ParseUint(genStr, 10, 32)
	if err != nil || gen == 0 {
		return EntityID{}, fmt.Errorf("bad id %q", s)
	}
	return EntityID{Slot: uint32(slot), Gen: uint32(gen)}, nil
}

func encodeComponent(c Component) string {
	switch v := c.(type) {
	case Name:
		return fmt.Sprintf("name %s", strconv.Quote(v.Value))
	case Transform:
		return fmt.Sprintf("transform %s %s %s %s %s",
			formatFloat(v.X), formatFloat(v.Y), formatFloat(v.Rotation),
			formatFloat(v.ScaleX), formatFloat(v.ScaleY))
	case Visual:
		return fmt.Sprintf("visual %s %08x %t", strconv.Quote(v.Texture), v.Tint, v.Visible)
	case Node:
		return fmt.Sprintf("node %s", strconv.Quote(v.Class))
	case Text:
		return fmt.Sprintf("text %s %s", strconv.Quote(v.Content), formatFloat(v.Size))
	case Custom:
		keys := make([]string, 0, len(v.Props))
		for k := range v.Props {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		b.WriteString("custom")
		for _, k := range keys {
			b.WriteByte(' ')
			b.WriteString(strconv.Quote(k))
			b.WriteByte(' ')
			b.WriteString(strconv.Quote(v.Props[k]))
		}
		return b.String()
	}
	return ""
}

func decodeComponent(line string) (Component, error) {
	key, rest, _ := strings.Cut(line, " ")
	fields, err := splitQuoted(rest)
	if err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %s component: %v: %w", key, err, ErrCorruptSnapshot)
	}
	bad := func() (Component, error) {
		return nil, fmt.Errorf("unmarshal snapshot: malformed %s component %q: %w", key, line, ErrCorruptSnapshot)
	}

	switch key {
	case "name":
		if len(fields) != 1 {
			return bad()
		}
		return Name{Value: fields[0]}, nil
	case "transform":
		if len(fields) != 5 {
			return bad()
		}
		var nums [5]float64
		for i, f := range fields {
			n, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return bad()
			}
			nums[i] = n
		}
		return Transform{X: nums[0], Y: nums[1], Rotation: nums[2], ScaleX: nums[3], ScaleY: nums[4]}, nil
	case "visual":
		if len(fields) != 3 {
			return bad()
		}
		tint, err := strconv.ParseUint(fields[1], 16, 32)
		if err != nil {
			return bad()
		}
		visible, err := strconv.ParseBool(fields[2])
		if err != nil {
			return bad()
		}
		return Visual{Texture: fields[0], Tint: uint32(tint), Visible: visible}, nil
	case "node":
		if len(fields) != 1 {
			return bad()
		}
		return Node{Class: fields[0]}, nil
	case "text":
		if len(fields) != 2 {
			return bad()
		}
		size, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return bad()
		}
		return Text{Content: fields[0], Size: size}, nil
	case "custom":
		if len(fields)%2 != 0 {
			return bad()
		}
		props := make(map[string]string, len(fields)/2)
		for i := 0; i < len(fields); i += 2 {
			props[fields[i]] = fields[i+1]
		}
		return Custom{Props: props}, nil
	}
	return nil, fmt.Errorf("unmarshal snapshot: unknown component kind %q: %w", key, ErrCorruptSnapshot)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// splitQuoted splits a component payload into fields. Quoted fields may
// contain spaces and are unquoted; unquoted fields are split on spaces.
func splitQuoted(s string) ([]string, error) {
	var out []string
	for {
		s = strings.TrimLeft(s, " ")
		if s == "" {
			return out, nil
		}
		if s[0] == '"' {
			q, err := strconv.QuotedPrefix(s)
			if err != nil {
				return nil, fmt.Errorf("bad quoted field in %q", s)
			}
			u, err := strconv.Unquote(q)
			if err != nil {
				return nil, fmt.Errorf("bad quoted field %q", q)
			}
			out = append(out, u)
			s = s[len(q):]
			continue
		}
		if i := strings.IndexByte(s, ' '); i >= 0 {
			out = append(out, s[:i])
			s = s[i:]
		} else {
			out = append(out, s)
			return out, nil
		}
	}
}
