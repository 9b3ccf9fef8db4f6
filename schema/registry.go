// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

package schema

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed blockettes.yaml
var blockettesYAML []byte

// NotApplicable is returned by StageField for types without a stage field.
const NotApplicable = 0

// maxType bounds the direct-index table.
const maxType = 9999

// VersionCount is one entry of a type's version to field count table.
type VersionCount struct {
	Version Version
	Count   int
}

// Type is the precomputed schema of one blockette type.
type Type struct {
	Number   int
	Name     string
	Category Category
	// Key is the field holding the dictionary lookup code of
	// abbreviation dictionary types, 0 otherwise.
	Key int
	// Stage is the response stage field, NotApplicable otherwise.
	Stage int
	// OpaqueLength and OpaqueOffset name the fields that bound a
	// trailing opaque payload, both 0 when there is none.
	OpaqueLength int
	OpaqueOffset int
	Counts       []VersionCount
	// Fields is indexed by field number; Fields[0] is reserved.
	Fields []Field

	spanFirst []int
	spanLast  []int
}

// Introduced returns the first version defining the type.
func (t *Type) Introduced() Version {
	return t.Counts[0].Version
}

// MaxFields returns the field count of the newest version.
func (t *Type) MaxFields() int {
	return t.Counts[len(t.Counts)-1].Count
}

// FieldCount resolves the field count for version v: the count of the
// highest table version not exceeding v.
func (t *Type) FieldCount(v Version) (int, error) {
	return countFor(t.Number, t.Counts, v)
}

func countFor(typ int, counts []VersionCount, v Version) (int, error) {
	count := -1
	for _, vc := range counts {
		if vc.Version > v {
			break
		}
		count = vc.Count
	}
	if count < 0 {
		return 0, fmt.Errorf("%w: blockette %d is not defined before version %s", ErrFormat, typ, counts[0].Version)
	}
	return count, nil
}

type yamlTable struct {
	Types []yamlType `yaml:"types"`
}

type yamlType struct {
	Type     int            `yaml:"type"`
	Name     string         `yaml:"name"`
	Category string         `yaml:"category"`
	Key      int            `yaml:"key,omitempty"`
	Stage    int            `yaml:"stage,omitempty"`
	Opaque   *yamlOpaque    `yaml:"opaque,omitempty"`
	Versions map[string]int `yaml:"versions"`
	Fields   []yamlField    `yaml:"fields"`
}

type yamlOpaque struct {
	Length int `yaml:"length"`
	Offset int `yaml:"offset"`
}

type yamlField struct {
	N      int               `yaml:"n"`
	Name   string            `yaml:"name"`
	Tag    string            `yaml:"tag"`
	Len    string            `yaml:"len"`
	Mask   string            `yaml:"mask"`
	Rep    int               `yaml:"rep,omitempty"`
	Dict   []int             `yaml:"dict,omitempty"`
	Values map[string]string `yaml:"values,omitempty"`
}

// Registry holds the schemas of all registered blockette types. It is
// read-only after Load and safe for concurrent readers.
type Registry struct {
	types       []*Type
	numbers     []int
	definitions []string
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the registry built from the embedded blockette table.
// It panics if the table fails to load or to pass its self check.
func Default() *Registry {
	defaultOnce.Do(func() {
		r, err := Load(blockettesYAML)
		if err != nil {
			panic(fmt.Sprintf("schema: load blockette table: %v", err))
		}
		if err := r.SelfCheck(); err != nil {
			panic(fmt.Sprintf("schema: self check: %v", err))
		}
		defaultRegistry = r
	})
	return defaultRegistry
}

// Load parses a YAML blockette table and precomputes its lookup tables.
func Load(data []byte) (*Registry, error) {
	var table yamlTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("%w: failed to parse blockette table: %v", ErrFormat, err)
	}
	if len(table.Types) == 0 {
		return nil, fmt.Errorf("%w: empty blockette table", ErrFormat)
	}

	r := &Registry{
		types:       make([]*Type, maxType+1),
		definitions: make([]string, maxType+1),
	}
	for _, yt := range table.Types {
		t, err := buildType(yt)
		if err != nil {
			return nil, err
		}
		if r.types[t.Number] != nil {
			return nil, fmt.Errorf("%w: blockette %d defined twice", ErrFormat, t.Number)
		}
		r.types[t.Number] = t
		r.definitions[t.Number] = renderDefinition(yt)
		r.numbers = append(r.numbers, t.Number)
	}
	sort.Ints(r.numbers)

	lists := 0
	for _, n := range r.numbers {
		t := r.types[n]
		for _, f := range t.Fields[1:] {
			if f.Tag == TagList {
				lists++
			}
			for _, d := range f.Dictionary {
				dt := r.lookup(d)
				if dt == nil || dt.Category != CategoryAbbreviation {
					return nil, fmt.Errorf("%w: blockette %d field %d refers to %d, which is not a dictionary", ErrFormat, n, f.Number, d)
				}
			}
		}
	}
	if lists > 1 {
		return nil, fmt.Errorf("%w: list fields are only allowed in one legacy type", ErrFormat)
	}
	return r, nil
}

func buildType(yt yamlType) (*Type, error) {
	if yt.Type <= 0 || yt.Type > maxType {
		return nil, fmt.Errorf("%w: blockette type %d out of range", ErrFormat, yt.Type)
	}
	t := &Type{
		Number:   yt.Type,
		Name:     yt.Name,
		Category: Category(firstByte(yt.Category)),
		Key:      yt.Key,
		Stage:    yt.Stage,
	}
	if len(yt.Category) != 1 || !t.Category.Valid() {
		return nil, fmt.Errorf("%w: blockette %d has bad category %q", ErrFormat, yt.Type, yt.Category)
	}
	if yt.Opaque != nil {
		t.OpaqueLength = yt.Opaque.Length
		t.OpaqueOffset = yt.Opaque.Offset
	}

	for vs, count := range yt.Versions {
		v, err := ParseVersion(vs)
		if err != nil {
			return nil, fmt.Errorf("blockette %d: %w", yt.Type, err)
		}
		t.Counts = append(t.Counts, VersionCount{Version: v, Count: count})
	}
	if len(t.Counts) == 0 {
		return nil, fmt.Errorf("%w: blockette %d has no version table", ErrFormat, yt.Type)
	}
	sort.Slice(t.Counts, func(i, j int) bool { return t.Counts[i].Version < t.Counts[j].Version })
	for i := 1; i < len(t.Counts); i++ {
		if t.Counts[i].Count < t.Counts[i-1].Count {
			return nil, fmt.Errorf("%w: blockette %d field count shrinks at version %s", ErrFormat, yt.Type, t.Counts[i].Version)
		}
	}

	t.Fields = make([]Field, len(yt.Fields)+1)
	for i, yf := range yt.Fields {
		if yf.N != i+1 {
			return nil, fmt.Errorf("%w: blockette %d fields are not contiguous at %d", ErrFormat, yt.Type, yf.N)
		}
		f, err := buildField(yf)
		if err != nil {
			return nil, fmt.Errorf("blockette %d field %d: %w", yt.Type, yf.N, err)
		}
		t.Fields[yf.N] = f
	}
	if t.MaxFields() != len(yt.Fields) {
		return nil, fmt.Errorf("%w: blockette %d declares %d fields but defines %d", ErrFormat, yt.Type, t.MaxFields(), len(yt.Fields))
	}
	if err := t.check(); err != nil {
		return nil, err
	}
	t.computeSpans()
	return t, nil
}

func buildField(yf yamlField) (Field, error) {
	tag := TypeTag(firstByte(yf.Tag))
	if len(yf.Tag) != 1 || !tag.Valid() {
		return Field{}, fmt.Errorf("%w: unknown type tag %q", ErrFormat, yf.Tag)
	}
	min, max, err := parseLength(tag, yf.Len)
	if err != nil {
		return Field{}, err
	}
	if err := checkMask(tag, max, yf.Mask); err != nil {
		return Field{}, err
	}
	return Field{
		Number:        yf.N,
		Name:          yf.Name,
		Tag:           tag,
		Length:        max,
		MinLength:     min,
		Mask:          yf.Mask,
		RepeatPointer: yf.Rep,
		Dictionary:    yf.Dict,
		Values:        yf.Values,
	}, nil
}

// check validates cross-field references of a type.
func (t *Type) check() error {
	n := len(t.Fields) - 1
	for _, f := range t.Fields[1:] {
		if f.RepeatPointer == 0 {
			if f.Tag == TagList {
				return fmt.Errorf("%w: blockette %d list field %d is not in a repeat group", ErrFormat, t.Number, f.Number)
			}
			continue
		}
		if f.RepeatPointer >= f.Number {
			return fmt.Errorf("%w: blockette %d field %d repeat pointer %d does not precede it", ErrFormat, t.Number, f.Number, f.RepeatPointer)
		}
		count := t.Fields[f.RepeatPointer]
		if count.IsRepeating() || !(count.Tag == TagDecimal || count.Tag == TagBinary && count.Kind() != KindBtime && count.Kind() != KindFloat) {
			return fmt.Errorf("%w: blockette %d field %d repeat count field %d is not a plain integer", ErrFormat, t.Number, f.Number, f.RepeatPointer)
		}
		if f.Tag == TagList {
			prev := t.Fields[f.Number-1]
			if prev.RepeatPointer != f.RepeatPointer || prev.Tag != TagDecimal {
				return fmt.Errorf("%w: blockette %d list field %d needs a counting field before it", ErrFormat, t.Number, f.Number)
			}
		}
	}
	for _, ref := range []int{t.Key, t.Stage, t.OpaqueLength, t.OpaqueOffset} {
		if ref < 0 || ref > n {
			return fmt.Errorf("%w: blockette %d refers to field %d of %d", ErrFormat, t.Number, ref, n)
		}
	}
	return nil
}

// computeSpans records, for every repeating field, the contiguous run of
// fields sharing its repeat pointer.
func (t *Type) computeSpans() {
	n := len(t.Fields)
	t.spanFirst = make([]int, n)
	t.spanLast = make([]int, n)
	for i := 1; i < n; {
		p := t.Fields[i].RepeatPointer
		if p == 0 {
			i++
			continue
		}
		j := i
		for j+1 < n && t.Fields[j+1].RepeatPointer == p {
			j++
		}
		for k := i; k <= j; k++ {
			t.spanFirst[k] = i
			t.spanLast[k] = j
		}
		i = j + 1
	}
}

// Span returns the first and last field of the repeat group containing
// field n, or (0, 0) when n is not repeating.
func (t *Type) Span(n int) (first, last int) {
	if n <= 0 || n >= len(t.Fields) {
		return 0, 0
	}
	return t.spanFirst[n], t.spanLast[n]
}

func firstByte(s string) byte {
	if s == "" {
		return 0
	}
	return s[0]
}

func (r *Registry) lookup(typ int) *Type {
	if typ <= 0 || typ > maxType {
		return nil
	}
	return r.types[typ]
}

// Type returns the precomputed schema of a blockette type.
func (r *Registry) Type(typ int) (*Type, error) {
	t := r.lookup(typ)
	if t == nil {
		return nil, fmt.Errorf("%w: unknown blockette type %d", ErrFormat, typ)
	}
	return t, nil
}

// IsRegistered reports whether typ has a schema.
func (r *Registry) IsRegistered(typ int) bool {
	return r.lookup(typ) != nil
}

// Types returns the registered type numbers in ascending order.
func (r *Registry) Types() []int {
	out := make([]int, len(r.numbers))
	copy(out, r.numbers)
	return out
}

// Definition returns the raw tab-separated definition text of a type.
func (r *Registry) Definition(typ int) (string, error) {
	if r.lookup(typ) == nil {
		return "", fmt.Errorf("%w: unknown blockette type %d", ErrFormat, typ)
	}
	return r.definitions[typ], nil
}

// Name returns the descriptive name of a type.
func (r *Registry) Name(typ int) (string, error) {
	t, err := r.Type(typ)
	if err != nil {
		return "", err
	}
	return t.Name, nil
}

// Category returns the structural class of a type.
func (r *Registry) Category(typ int) (Category, error) {
	t, err := r.Type(typ)
	if err != nil {
		return 0, err
	}
	return t.Category, nil
}

// IsDataRecord reports whether typ is a data record blockette, whose type
// tag is two binary bytes instead of three digits.
func (r *Registry) IsDataRecord(typ int) bool {
	t := r.lookup(typ)
	return t != nil && t.Category == CategoryDataRecord
}

// StageField returns the response stage field of a type, or NotApplicable.
func (r *Registry) StageField(typ int) (int, error) {
	t, err := r.Type(typ)
	if err != nil {
		return 0, err
	}
	return t.Stage, nil
}

// Introduced returns the first version that defines typ.
func (r *Registry) Introduced(typ int) (Version, error) {
	t, err := r.Type(typ)
	if err != nil {
		return 0, err
	}
	return t.Introduced(), nil
}

// FieldCount returns the number of fields of typ in version v.
func (r *Registry) FieldCount(typ int, v Version) (int, error) {
	t, err := r.Type(typ)
	if err != nil {
		return 0, err
	}
	return t.FieldCount(v)
}

// MaxFieldCount returns the number of fields of typ in the newest version.
func (r *Registry) MaxFieldCount(typ int) (int, error) {
	t, err := r.Type(typ)
	if err != nil {
		return 0, err
	}
	return t.MaxFields(), nil
}

// Field returns the metadata of field n of typ.
func (r *Registry) Field(typ, n int) (Field, error) {
	t, err := r.Type(typ)
	if err != nil {
		return Field{}, err
	}
	if n <= 0 || n >= len(t.Fields) {
		return Field{}, fmt.Errorf("%w: blockette %d has no field %d", ErrFormat, typ, n)
	}
	return t.Fields[n], nil
}

// RepeatSpan returns the first and last field of the repeat group that
// contains field n of typ.
func (r *Registry) RepeatSpan(typ, n int) (first, last int, err error) {
	f, err := r.Field(typ, n)
	if err != nil {
		return 0, 0, err
	}
	if !f.IsRepeating() {
		return 0, 0, fmt.Errorf("%w: blockette %d field %d does not repeat", ErrFormat, typ, n)
	}
	first, last = r.types[typ].Span(n)
	return first, last, nil
}

// RepeatMax returns the largest group count the count field can hold.
func (r *Registry) RepeatMax(typ, countField int) (int, error) {
	f, err := r.Field(typ, countField)
	if err != nil {
		return 0, err
	}
	switch f.Tag {
	case TagDecimal:
		max := 1
		for i := 0; i < f.Length && max < 1<<40; i++ {
			max *= 10
		}
		return max - 1, nil
	case TagBinary:
		bits := f.Kind().Size() * 8
		if f.Kind().Signed() {
			bits--
		}
		return 1<<bits - 1, nil
	}
	return 0, fmt.Errorf("%w: blockette %d field %d cannot count groups", ErrFormat, typ, countField)
}
