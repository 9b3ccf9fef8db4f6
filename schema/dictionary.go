// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

package schema

import (
	"strconv"
	"strings"
)

// DictionaryRef names a field whose value is a dictionary lookup code.
type DictionaryRef struct {
	Field   int
	Targets []int
}

// DictionaryTargets returns the dictionary types that field n of src refers
// to, or nil when the field holds no dictionary reference.
func (r *Registry) DictionaryTargets(src, n int) []int {
	t := r.lookup(src)
	if t == nil || n <= 0 || n >= len(t.Fields) {
		return nil
	}
	return t.Fields[n].Dictionary
}

// DictionaryKey returns the field of a dictionary type that holds its
// lookup code, 0 when typ is not a dictionary.
func (r *Registry) DictionaryKey(typ int) int {
	t := r.lookup(typ)
	if t == nil {
		return 0
	}
	return t.Key
}

// IsDictionary reports whether typ is an abbreviation dictionary type.
func (r *Registry) IsDictionary(typ int) bool {
	t := r.lookup(typ)
	return t != nil && t.Category == CategoryAbbreviation && t.Key != 0
}

// References lists the dictionary reference fields of a type in field order.
func (r *Registry) References(typ int) []DictionaryRef {
	t := r.lookup(typ)
	if t == nil {
		return nil
	}
	var refs []DictionaryRef
	for _, f := range t.Fields[1:] {
		if len(f.Dictionary) > 0 {
			refs = append(refs, DictionaryRef{Field: f.Number, Targets: f.Dictionary})
		}
	}
	return refs
}

// Translate returns the descriptive text of a coded field value.
func (r *Registry) Translate(typ, n int, value string) (string, bool) {
	t := r.lookup(typ)
	if t == nil || n <= 0 || n >= len(t.Fields) {
		return "", false
	}
	values := t.Fields[n].Values
	if values == nil {
		return "", false
	}
	value = strings.TrimSpace(value)
	if text, ok := values[value]; ok {
		return text, true
	}
	// numeric codes may arrive zero padded
	if i, err := strconv.Atoi(value); err == nil {
		text, ok := values[strconv.Itoa(i)]
		return text, ok
	}
	return "", false
}
