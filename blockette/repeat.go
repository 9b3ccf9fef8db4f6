// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

package blockette

import (
	"fmt"
	"slices"

	"github.com/iris-edu-legacy/java-seed-sub000/schema"
)

// RepeatSpan returns the first and last field of the repeat group that
// contains field n.
func (b *Blockette) RepeatSpan(n int) (first, last int, err error) {
	f, err := b.field(n)
	if err != nil {
		return 0, 0, err
	}
	if !f.IsRepeating() {
		return 0, 0, fmt.Errorf("%w: blockette %d field %d does not repeat", ErrFormat, b.typ, n)
	}
	first, last = b.def.Span(n)
	if last > b.numFields {
		return 0, 0, fmt.Errorf("%w: blockette %d field %d group is cut by version %s", ErrFormat, b.typ, n, b.version)
	}
	return first, last, nil
}

// GroupCount returns the number of populated groups of the span containing
// field n.
func (b *Blockette) GroupCount(n int) (int, error) {
	first, _, err := b.RepeatSpan(n)
	if err != nil {
		return 0, err
	}
	return len(b.slots[first].group), nil
}

// AppendGroup adds a group at the end of the span containing field n.
// values holds one value per field of the span, in field order.
func (b *Blockette) AppendGroup(n int, values ...any) error {
	count, err := b.GroupCount(n)
	if err != nil {
		return err
	}
	return b.InsertGroup(n, count, values...)
}

// InsertGroup inserts a group before group index i of the span containing
// field n.
func (b *Blockette) InsertGroup(n, i int, values ...any) error {
	first, last, err := b.RepeatSpan(n)
	if err != nil {
		return err
	}
	if width := last - first + 1; len(values) != width {
		return fmt.Errorf("%w: blockette %d fields %d-%d take %d values, got %d", ErrInput, b.typ, first, last, width, len(values))
	}
	count := len(b.slots[first].group)
	if i < 0 || i > count {
		return fmt.Errorf("%w: blockette %d group %d", ErrNoSuchGroup, b.typ, i)
	}
	countField := b.def.Fields[first].RepeatPointer
	max, err := b.codec.reg.RepeatMax(b.typ, countField)
	if err != nil {
		return err
	}
	if count >= max {
		return fmt.Errorf("%w: blockette %d field %d already holds the maximum of %d groups", ErrInput, b.typ, countField, max)
	}

	converted := make([]any, len(values))
	for k := first; k <= last; k++ {
		v, err := b.codec.convert(b, k, i, values[k-first])
		if err != nil {
			return err
		}
		converted[k-first] = v
	}
	for k := first + 1; k <= last; k++ {
		if b.def.Fields[k].Tag != schema.TagList {
			continue
		}
		if l := listLen(converted[k-first]); !countMatches(converted[k-1-first], l) {
			if err := b.codec.inputError(b, k-1, i, "count %v disagrees with a list of %d entries", converted[k-1-first], l); err != nil {
				return err
			}
			converted[k-1-first] = int64(l)
		}
	}
	for k := first; k <= last; k++ {
		b.slots[k].group = slices.Insert(b.slots[k].group, i, converted[k-first])
	}
	b.syncCount(first, last)
	return nil
}

// DeleteGroup removes group index i of the span containing field n.
func (b *Blockette) DeleteGroup(n, i int) error {
	first, last, err := b.RepeatSpan(n)
	if err != nil {
		return err
	}
	if i < 0 || i >= len(b.slots[first].group) {
		return fmt.Errorf("%w: blockette %d group %d", ErrNoSuchGroup, b.typ, i)
	}
	for k := first; k <= last; k++ {
		b.slots[k].group = slices.Delete(b.slots[k].group, i, i+1)
	}
	b.syncCount(first, last)
	return nil
}

// PurgeGroups removes every group of the span containing field n.
func (b *Blockette) PurgeGroups(n int) error {
	first, last, err := b.RepeatSpan(n)
	if err != nil {
		return err
	}
	for k := first; k <= last; k++ {
		b.slots[k].group = nil
	}
	b.syncCount(first, last)
	return nil
}

// syncCount stores the group count in the count field.
func (b *Blockette) syncCount(first, last int) {
	countField := b.def.Fields[first].RepeatPointer
	b.slots[countField] = scalarSlot(int64(len(b.slots[first].group)))
	if last > b.filled {
		b.filled = last
	}
}

// countedSpan returns the repeat span whose group count field n holds.
func (b *Blockette) countedSpan(n int) (first, last int, ok bool) {
	for _, f := range b.def.Fields[n+1 : b.numFields+1] {
		if f.RepeatPointer == n {
			first, last = b.def.Span(f.Number)
			return first, min(last, b.numFields), true
		}
	}
	return 0, 0, false
}

// isListCount reports whether field n holds the entry count of the list
// field that follows it.
func (b *Blockette) isListCount(n int) bool {
	return n+1 <= b.numFields && b.def.Fields[n+1].Tag == schema.TagList
}

// countMatches reports whether a stored count equals n. A null count
// stands for zero.
func countMatches(v any, n int) bool {
	if v == nil {
		return n == 0
	}
	i, ok := v.(int64)
	return ok && i == int64(n)
}

func listLen(v any) int {
	l, _ := v.([]int64)
	return len(l)
}

// checkCounts verifies every group count and list count against the
// values actually stored. Strict codecs fail with ErrInput; lenient codecs
// record a warning and rewrite the count. Incomplete blockettes are left
// as decoded.
func (c *Codec) checkCounts(b *Blockette) error {
	if b.incomplete {
		return nil
	}
	for n := 2; n <= b.filled; n++ {
		f := b.def.Fields[n]
		if !f.IsRepeating() {
			first, _, ok := b.countedSpan(n)
			if !ok {
				continue
			}
			groups := len(b.slots[first].group)
			if v := b.slots[n].scalar; !countMatches(v, groups) {
				if err := c.inputError(b, n, -1, "count %v disagrees with %d stored groups", v, groups); err != nil {
					return err
				}
				b.slots[n] = scalarSlot(int64(groups))
			}
			continue
		}
		if f.Tag != schema.TagList {
			continue
		}
		counts := b.slots[n-1].group
		for g, v := range b.slots[n].group {
			if g >= len(counts) {
				break
			}
			if l := listLen(v); !countMatches(counts[g], l) {
				if err := c.inputError(b, n-1, g, "count %v disagrees with a list of %d entries", counts[g], l); err != nil {
					return err
				}
				counts[g] = int64(l)
			}
		}
	}
	return nil
}
