// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/multierr"
)

// Definition is a blockette schema recomputed from raw definition text.
//
// The text has one header line
//
//	type<TAB>name<TAB>category<TAB>2.0=6,2.3=9
//
// followed by one line per field
//
//	number<TAB>name<TAB>tag<TAB>length<TAB>mask<TAB>repeat
type Definition struct {
	Number   int
	Name     string
	Category Category
	Counts   []VersionCount
	Fields   []Field
}

// renderDefinition writes the definition text from the source rows,
// independently of the built Type.
func renderDefinition(yt yamlType) string {
	var sb strings.Builder
	versions := make([]string, 0, len(yt.Versions))
	for v := range yt.Versions {
		versions = append(versions, v)
	}
	sort.Strings(versions)
	counts := make([]string, len(versions))
	for i, v := range versions {
		counts[i] = fmt.Sprintf("%s=%d", v, yt.Versions[v])
	}
	fmt.Fprintf(&sb, "%03d\t%s\t%s\t%s\n", yt.Type, yt.Name, yt.Category, strings.Join(counts, ","))
	for _, yf := range yt.Fields {
		fmt.Fprintf(&sb, "%d\t%s\t%s\t%s\t%s\t%d\n", yf.N, yf.Name, yf.Tag, yf.Len, yf.Mask, yf.Rep)
	}
	return sb.String()
}

// ParseDefinition parses raw definition text.
func ParseDefinition(text string) (*Definition, error) {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) < 2 {
		return nil, fmt.Errorf("%w: definition has no fields", ErrFormat)
	}

	head := strings.Split(lines[0], "\t")
	if len(head) != 4 {
		return nil, fmt.Errorf("%w: definition header %q", ErrFormat, lines[0])
	}
	typ, err := strconv.Atoi(strings.TrimSpace(head[0]))
	if err != nil {
		return nil, fmt.Errorf("%w: definition type %q", ErrFormat, head[0])
	}
	d := &Definition{Number: typ, Name: head[1], Category: Category(firstByte(head[2]))}
	if len(head[2]) != 1 || !d.Category.Valid() {
		return nil, fmt.Errorf("%w: definition category %q", ErrFormat, head[2])
	}
	for _, entry := range strings.Split(head[3], ",") {
		vs, cs, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("%w: version entry %q", ErrFormat, entry)
		}
		v, err := ParseVersion(vs)
		if err != nil {
			return nil, err
		}
		c, err := strconv.Atoi(cs)
		if err != nil {
			return nil, fmt.Errorf("%w: version entry %q", ErrFormat, entry)
		}
		d.Counts = append(d.Counts, VersionCount{Version: v, Count: c})
	}
	sort.Slice(d.Counts, func(i, j int) bool { return d.Counts[i].Version < d.Counts[j].Version })

	d.Fields = make([]Field, len(lines))
	for i, line := range lines[1:] {
		cols := strings.Split(line, "\t")
		if len(cols) != 6 {
			return nil, fmt.Errorf("%w: definition row %q", ErrFormat, line)
		}
		n, err := strconv.Atoi(cols[0])
		if err != nil || n != i+1 {
			return nil, fmt.Errorf("%w: definition row number %q", ErrFormat, cols[0])
		}
		tag := TypeTag(firstByte(cols[2]))
		if len(cols[2]) != 1 || !tag.Valid() {
			return nil, fmt.Errorf("%w: definition row tag %q", ErrFormat, cols[2])
		}
		min, max, err := parseLength(tag, cols[3])
		if err != nil {
			return nil, err
		}
		if err := checkMask(tag, max, cols[4]); err != nil {
			return nil, err
		}
		rep, err := strconv.Atoi(cols[5])
		if err != nil {
			return nil, fmt.Errorf("%w: definition row repeat %q", ErrFormat, cols[5])
		}
		d.Fields[n] = Field{
			Number:        n,
			Name:          cols[1],
			Tag:           tag,
			Length:        max,
			MinLength:     min,
			Mask:          cols[4],
			RepeatPointer: rep,
		}
	}
	return d, nil
}

// FieldCount resolves the field count of version v.
func (d *Definition) FieldCount(v Version) (int, error) {
	if len(d.Counts) == 0 {
		return 0, fmt.Errorf("%w: blockette %d has no version table", ErrFormat, d.Number)
	}
	return countFor(d.Number, d.Counts, v)
}

// Field returns field n.
func (d *Definition) Field(n int) (Field, error) {
	if n <= 0 || n >= len(d.Fields) {
		return Field{}, fmt.Errorf("%w: blockette %d has no field %d", ErrFormat, d.Number, n)
	}
	return d.Fields[n], nil
}

// DefinitionField recomputes field metadata from the raw definition text,
// bypassing the precomputed tables.
func (r *Registry) DefinitionField(typ, n int) (Field, error) {
	text, err := r.Definition(typ)
	if err != nil {
		return Field{}, err
	}
	d, err := ParseDefinition(text)
	if err != nil {
		return Field{}, err
	}
	return d.Field(n)
}

// DefinitionFieldCount recomputes a version's field count from the raw
// definition text.
func (r *Registry) DefinitionFieldCount(typ int, v Version) (int, error) {
	text, err := r.Definition(typ)
	if err != nil {
		return 0, err
	}
	d, err := ParseDefinition(text)
	if err != nil {
		return 0, err
	}
	return d.FieldCount(v)
}

// SelfCheck verifies that the precomputed tables agree with the raw
// definition text for every type, field and version.
func (r *Registry) SelfCheck() error {
	var errs error
	for _, typ := range r.numbers {
		t := r.types[typ]
		d, err := ParseDefinition(r.definitions[typ])
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("blockette %d: %w", typ, err))
			continue
		}
		if d.Number != typ || d.Name != t.Name || d.Category != t.Category {
			errs = multierr.Append(errs, fmt.Errorf("%w: blockette %d header mismatch", ErrFormat, typ))
		}
		if len(d.Fields) != len(t.Fields) {
			errs = multierr.Append(errs, fmt.Errorf("%w: blockette %d has %d fields in text, %d in table", ErrFormat, typ, len(d.Fields)-1, len(t.Fields)-1))
			continue
		}
		for n := 1; n < len(t.Fields); n++ {
			if !t.Fields[n].equal(d.Fields[n]) {
				errs = multierr.Append(errs, fmt.Errorf("%w: blockette %d field %d differs between text and table", ErrFormat, typ, n))
			}
		}
		prev := 0
		for v := t.Introduced(); v <= DefaultVersion; v++ {
			want, err := d.FieldCount(v)
			if err != nil {
				errs = multierr.Append(errs, err)
				break
			}
			got, err := t.FieldCount(v)
			if err != nil {
				errs = multierr.Append(errs, err)
				break
			}
			if got != want {
				errs = multierr.Append(errs, fmt.Errorf("%w: blockette %d version %s count %d, text says %d", ErrFormat, typ, v, got, want))
			}
			if got < prev {
				errs = multierr.Append(errs, fmt.Errorf("%w: blockette %d count decreases at version %s", ErrFormat, typ, v))
			}
			prev = got
		}
	}
	return errs
}
