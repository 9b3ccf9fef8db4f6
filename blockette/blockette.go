// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

package blockette

import (
	"fmt"
	"slices"
	"weak"

	"github.com/google/uuid"

	"github.com/iris-edu-legacy/java-seed-sub000/schema"
)

// SlotKind tells how a field slot stores its values.
type SlotKind int

const (
	SlotScalar SlotKind = iota
	// SlotRepeating holds one value per repeat group.
	SlotRepeating
	// SlotList holds one []int64 per repeat group.
	SlotList
)

type slot struct {
	kind   SlotKind
	scalar any
	group  []any
}

func scalarSlot(v any) slot {
	return slot{kind: SlotScalar, scalar: v}
}

func newGroupSlot(f schema.Field) slot {
	if f.Tag == schema.TagList {
		return slot{kind: SlotList}
	}
	return slot{kind: SlotRepeating}
}

// Blockette is one decoded record: a fixed type and version plus a field
// collection indexed from 1. It is not safe for concurrent mutation.
type Blockette struct {
	codec   *Codec
	id      uuid.UUID
	typ     int
	def     *schema.Type
	version schema.Version

	numFields int
	slots     []slot
	// filled is the last field that holds data; below numFields when
	// the source ran out.
	filled     int
	incomplete bool
	consumed   int

	children []*Blockette
	parent   weak.Pointer[Blockette]
	payload  *Payload

	lookupID  int
	lookupMap []int

	diags []Diagnostic
}

func newBlockette(c *Codec, t *schema.Type, v schema.Version, numFields int) *Blockette {
	return &Blockette{
		codec:     c,
		id:        uuid.New(),
		typ:       t.Number,
		def:       t,
		version:   v,
		numFields: numFields,
		slots:     make([]slot, numFields+1),
		lookupMap: []int{0},
	}
}

// ID returns the instance identity.
func (b *Blockette) ID() uuid.UUID { return b.id }

// Type returns the blockette type number.
func (b *Blockette) Type() int { return b.typ }

// Version returns the SEED version the field layout follows.
func (b *Blockette) Version() schema.Version { return b.version }

// Name returns the descriptive name of the type.
func (b *Blockette) Name() string { return b.def.Name }

// Category returns the structural class of the type.
func (b *Blockette) Category() schema.Category { return b.def.Category }

// Schema returns the precomputed type schema.
func (b *Blockette) Schema() *schema.Type { return b.def }

// NumFields returns the field count of the blockette's version.
func (b *Blockette) NumFields() int { return b.numFields }

// Definition returns the raw schema text of the type.
func (b *Blockette) Definition() string {
	text, _ := b.codec.reg.Definition(b.typ)
	return text
}

// IsIncomplete reports whether the source held fewer fields than the
// schema declares.
func (b *Blockette) IsIncomplete() bool { return b.incomplete }

// Consumed returns the number of bytes read from binary input, 0 for
// blockettes built any other way.
func (b *Blockette) Consumed() int { return b.consumed }

// Diagnostics returns the recoverable conditions recorded so far.
func (b *Blockette) Diagnostics() []Diagnostic {
	return slices.Clone(b.diags)
}

func (b *Blockette) diagnose(sev Severity, n, idx int, format string, args ...any) {
	d := Diagnostic{Severity: sev, Field: n, Index: idx, Message: fmt.Sprintf(format, args...)}
	b.diags = append(b.diags, d)
	b.codec.logDiagnostic(b, d)
}

func (b *Blockette) field(n int) (schema.Field, error) {
	if n <= 0 || n > b.numFields {
		return schema.Field{}, fmt.Errorf("%w: blockette %d has no field %d in version %s", ErrFormat, b.typ, n, b.version)
	}
	return b.def.Fields[n], nil
}

// Field returns the schema of field n.
func (b *Blockette) Field(n int) (schema.Field, error) {
	return b.field(n)
}

// Value returns the value of a non-repeating field. Repeating fields return
// a copy of all group values as []any.
func (b *Blockette) Value(n int) (any, error) {
	if _, err := b.field(n); err != nil {
		return nil, err
	}
	s := b.slots[n]
	if s.kind == SlotScalar {
		return s.scalar, nil
	}
	return slices.Clone(s.group), nil
}

// ValueAt returns the value of a repeating field at repeat index i.
func (b *Blockette) ValueAt(n, i int) (any, error) {
	f, err := b.field(n)
	if err != nil {
		return nil, err
	}
	if !f.IsRepeating() {
		if i != 0 {
			return nil, fmt.Errorf("%w: blockette %d field %d does not repeat", ErrFormat, b.typ, n)
		}
		return b.slots[n].scalar, nil
	}
	g := b.slots[n].group
	if i < 0 || i >= len(g) {
		return nil, fmt.Errorf("%w: blockette %d field %d repeat %d", ErrNoSuchGroup, b.typ, n, i)
	}
	return g[i], nil
}

// List returns the list value of a list field at repeat index i.
func (b *Blockette) List(n, i int) ([]int64, error) {
	v, err := b.ValueAt(n, i)
	if err != nil {
		return nil, err
	}
	if b.slots[n].kind != SlotList {
		return nil, fmt.Errorf("%w: blockette %d field %d is not a list", ErrFormat, b.typ, n)
	}
	l, _ := v.([]int64)
	return slices.Clone(l), nil
}

// Int returns an integer field value, false when null or not integral.
func (b *Blockette) Int(n int) (int64, bool) {
	v, err := b.Value(n)
	if err != nil {
		return 0, false
	}
	i, ok := v.(int64)
	return i, ok
}

// String renders field n as text, the blank marker being "".
func (b *Blockette) String(n int) (string, error) {
	v, err := b.Value(n)
	if err != nil {
		return "", err
	}
	if b.slots[n].kind != SlotScalar {
		return "", fmt.Errorf("%w: blockette %d field %d repeats", ErrFormat, b.typ, n)
	}
	s, _, err := b.codec.render(b.def.Fields[n], v)
	return s, err
}

// StringAt renders field n at repeat index i as text.
func (b *Blockette) StringAt(n, i int) (string, error) {
	v, err := b.ValueAt(n, i)
	if err != nil {
		return "", err
	}
	s, _, err := b.codec.render(b.def.Fields[n], v)
	return s, err
}

// SetValue replaces the value of a non-repeating field. Strings are parsed
// the way text input is; other values are converted to the field's type.
// A group count field only accepts the number of groups it counts; use
// the group operations to change it.
func (b *Blockette) SetValue(n int, v any) error {
	f, err := b.field(n)
	if err != nil {
		return err
	}
	if f.IsRepeating() {
		return fmt.Errorf("%w: blockette %d field %d repeats, use SetValueAt", ErrFormat, b.typ, n)
	}
	if n == 1 {
		return fmt.Errorf("%w: the type of blockette %d is immutable", ErrFormat, b.typ)
	}
	val, err := b.codec.convert(b, n, -1, v)
	if err != nil {
		return err
	}
	if first, _, ok := b.countedSpan(n); ok {
		groups := len(b.slots[first].group)
		if !countMatches(val, groups) {
			if err := b.codec.inputError(b, n, -1, "count %v disagrees with %d stored groups, use the group operations", val, groups); err != nil {
				return err
			}
			val = int64(groups)
		}
	}
	b.slots[n] = scalarSlot(val)
	if n > b.filled {
		b.filled = n
	}
	return nil
}

// SetValueAt replaces the value of a repeating field at repeat index i.
// Setting a list also updates the count field before it.
func (b *Blockette) SetValueAt(n, i int, v any) error {
	f, err := b.field(n)
	if err != nil {
		return err
	}
	if !f.IsRepeating() {
		if i != 0 {
			return fmt.Errorf("%w: blockette %d field %d does not repeat", ErrFormat, b.typ, n)
		}
		return b.SetValue(n, v)
	}
	g := b.slots[n].group
	if i < 0 || i >= len(g) {
		return fmt.Errorf("%w: blockette %d field %d repeat %d", ErrNoSuchGroup, b.typ, n, i)
	}
	val, err := b.codec.convert(b, n, i, v)
	if err != nil {
		return err
	}
	switch {
	case f.Tag == schema.TagList && i < len(b.slots[n-1].group):
		// the preceding field counts the list entries
		b.slots[n-1].group[i] = int64(listLen(val))
	case b.isListCount(n) && i < len(b.slots[n+1].group):
		if l := listLen(b.slots[n+1].group[i]); !countMatches(val, l) {
			if err := b.codec.inputError(b, n, i, "count %v disagrees with a list of %d entries", val, l); err != nil {
				return err
			}
			val = int64(l)
		}
	}
	g[i] = val
	return nil
}

// Translate returns the descriptive text of a coded field value.
func (b *Blockette) Translate(n int) (string, bool) {
	s, err := b.String(n)
	if err != nil {
		return "", false
	}
	return b.codec.reg.Translate(b.typ, n, s)
}

// Payload returns the attached opaque payload, nil if none.
func (b *Blockette) Payload() *Payload { return b.payload }

// SetPayload attaches an opaque payload, replacing any previous one.
func (b *Blockette) SetPayload(p *Payload) { b.payload = p }

// DetachPayload removes and returns the payload.
func (b *Blockette) DetachPayload() *Payload {
	p := b.payload
	b.payload = nil
	return p
}

// Parent returns the owning blockette, nil when detached or collected.
func (b *Blockette) Parent() *Blockette {
	return b.parent.Value()
}

// Children returns the owned child blockettes in order.
func (b *Blockette) Children() []*Blockette {
	return slices.Clone(b.children)
}

// AddChild appends a child. A child has at most one parent.
func (b *Blockette) AddChild(child *Blockette) error {
	return b.InsertChild(len(b.children), child)
}

// InsertChild inserts a child before position i.
func (b *Blockette) InsertChild(i int, child *Blockette) error {
	if child == nil || child == b {
		return fmt.Errorf("%w: invalid child", ErrFormat)
	}
	if p := child.Parent(); p != nil {
		return fmt.Errorf("%w: blockette %s already has parent %s", ErrFormat, child.id, p.id)
	}
	if i < 0 || i > len(b.children) {
		return fmt.Errorf("%w: child position %d out of range", ErrFormat, i)
	}
	b.children = slices.Insert(b.children, i, child)
	child.parent = weak.Make(b)
	return nil
}

// RemoveChild detaches a child, reporting whether it was found.
func (b *Blockette) RemoveChild(child *Blockette) bool {
	i := slices.IndexFunc(b.children, func(c *Blockette) bool { return c.id == child.id })
	if i < 0 {
		return false
	}
	b.children = slices.Delete(b.children, i, i+1)
	child.parent = weak.Pointer[Blockette]{}
	return true
}

// Clone returns a deep copy of the fields, lookup data and payload with a
// new identity. Children and parent are not copied.
func (b *Blockette) Clone() *Blockette {
	c := *b
	c.id = uuid.New()
	c.slots = make([]slot, len(b.slots))
	for i, s := range b.slots {
		c.slots[i] = s
		c.slots[i].scalar = cloneValue(s.scalar)
		if s.group != nil {
			c.slots[i].group = make([]any, len(s.group))
			for j, v := range s.group {
				c.slots[i].group[j] = cloneValue(v)
			}
		}
	}
	c.children = nil
	c.parent = weak.Pointer[Blockette]{}
	c.payload = b.payload.Clone()
	c.lookupMap = slices.Clone(b.lookupMap)
	c.diags = slices.Clone(b.diags)
	return &c
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case []byte:
		return slices.Clone(x)
	case []int64:
		return slices.Clone(x)
	}
	return v
}
