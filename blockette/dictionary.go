// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

package blockette

import (
	"errors"
	"fmt"
	"slices"
)

// ErrNoSuchLookup is returned for a lookup map index that holds no entry.
var ErrNoSuchLookup = errors.New("no such dictionary lookup")

// LookupID returns the id under which other blockettes refer to this one.
func (b *Blockette) LookupID() int { return b.lookupID }

// SetLookupID sets the id under which other blockettes refer to this one.
func (b *Blockette) SetLookupID(id int) { b.lookupID = id }

// LookupMapSize returns the number of entries in the lookup map, not
// counting the reserved index 0.
func (b *Blockette) LookupMapSize() int { return len(b.lookupMap) - 1 }

// DictionaryLookup returns the lookup id stored at 1-based index i.
func (b *Blockette) DictionaryLookup(i int) (int, error) {
	if i <= 0 || i >= len(b.lookupMap) {
		return 0, fmt.Errorf("%w: index %d of %d", ErrNoSuchLookup, i, b.LookupMapSize())
	}
	return b.lookupMap[i], nil
}

// SetDictionaryLookup stores id at 1-based index i, growing the map with
// zero entries as needed.
func (b *Blockette) SetDictionaryLookup(i, id int) error {
	if i <= 0 {
		return fmt.Errorf("%w: index %d is reserved", ErrNoSuchLookup, i)
	}
	if i >= len(b.lookupMap) {
		b.lookupMap = append(b.lookupMap, make([]int, i+1-len(b.lookupMap))...)
	}
	b.lookupMap[i] = id
	return nil
}

// AddDictionaryLookupIfNeeded returns the index of id in the lookup map,
// appending it first when it is not there yet.
func (b *Blockette) AddDictionaryLookupIfNeeded(id int) int {
	if i := slices.Index(b.lookupMap[1:], id); i >= 0 {
		return i + 1
	}
	b.lookupMap = append(b.lookupMap, id)
	return len(b.lookupMap) - 1
}

// ResolveField finds the dictionary blockette that field n at repeat index
// idx refers to. When the blockette carries a lookup map the field value is
// an index into it; otherwise the value is the lookup id itself. A null
// or zero reference resolves to nil.
func (b *Blockette) ResolveField(n, idx int, r Resolver) (*Blockette, error) {
	targets := b.codec.reg.DictionaryTargets(b.typ, n)
	if len(targets) == 0 {
		return nil, fmt.Errorf("%w: blockette %d field %d is not a dictionary reference", ErrFormat, b.typ, n)
	}
	v, err := b.ValueAt(n, max(idx, 0))
	if err != nil {
		return nil, err
	}
	code, ok := v.(int64)
	if !ok || code == 0 {
		return nil, nil
	}
	id := int(code)
	if b.LookupMapSize() > 0 {
		if id, err = b.DictionaryLookup(id); err != nil {
			return nil, err
		}
	}
	d, err := r.Lookup(id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, nil
	}
	if !slices.Contains(targets, d.typ) {
		return nil, fmt.Errorf("%w: blockette %d field %d refers to blockette %d, want one of %v", ErrInput, b.typ, n, d.typ, targets)
	}
	return d, nil
}
