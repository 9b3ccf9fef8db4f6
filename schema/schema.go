// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

// Package schema provides the blockette schema registry for SEED volumes.
// Field layouts are declared in an embedded YAML table and precomputed into
// direct-index lookup tables at startup.
package schema

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrFormat reports a schema violation: unknown type, field number out of
	// range, unparsable mask or a malformed definition table.
	ErrFormat = errors.New("format error")
	// ErrInput reports a value that does not fit its field's constraints.
	ErrInput = errors.New("input error")
)

// TypeTag is the field type letter of a schema row.
type TypeTag byte

const (
	TagDecimal       TypeTag = 'D'
	TagExponential   TypeTag = 'E'
	TagFixedAlpha    TypeTag = 'A'
	TagVariableAlpha TypeTag = 'V'
	TagBinary        TypeTag = 'B'
	TagList          TypeTag = 'L'
)

func (t TypeTag) String() string {
	return string(rune(t))
}

// Valid reports whether t is one of the known tags.
func (t TypeTag) Valid() bool {
	switch t {
	case TagDecimal, TagExponential, TagFixedAlpha, TagVariableAlpha, TagBinary, TagList:
		return true
	}
	return false
}

// IsNumeric reports whether field text is converted through a numeric mask.
func (t TypeTag) IsNumeric() bool {
	return t == TagDecimal || t == TagExponential || t == TagList
}

// Category is the structural class of a blockette type.
type Category byte

const (
	CategoryVolumeIndex  Category = 'V'
	CategoryAbbreviation Category = 'A'
	CategoryStation      Category = 'S'
	CategoryTimeSpan     Category = 'T'
	CategoryDataRecord   Category = 'D'
)

func (c Category) String() string {
	switch c {
	case CategoryVolumeIndex:
		return "Volume Index"
	case CategoryAbbreviation:
		return "Abbreviation Dictionary"
	case CategoryStation:
		return "Station"
	case CategoryTimeSpan:
		return "Time Span"
	case CategoryDataRecord:
		return "Data Record"
	}
	return fmt.Sprintf("Category(%c)", byte(c))
}

// Valid reports whether c is one of the five categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryVolumeIndex, CategoryAbbreviation, CategoryStation, CategoryTimeSpan, CategoryDataRecord:
		return true
	}
	return false
}

// BinaryKind is the mask of a binary field.
type BinaryKind string

const (
	KindBtime BinaryKind = "BTIME"
	KindFloat BinaryKind = "FLOAT"
	KindByte  BinaryKind = "BYTE"
	KindUByte BinaryKind = "UBYTE"
	KindWord  BinaryKind = "WORD"
	KindUWord BinaryKind = "UWORD"
	KindLong  BinaryKind = "LONG"
	KindULong BinaryKind = "ULONG"
)

// Size returns the byte width of one element of the kind, 0 if unknown.
func (k BinaryKind) Size() int {
	switch k {
	case KindBtime:
		return 10
	case KindFloat, KindLong, KindULong:
		return 4
	case KindWord, KindUWord:
		return 2
	case KindByte, KindUByte:
		return 1
	}
	return 0
}

// Signed reports whether integer kinds carry a sign.
func (k BinaryKind) Signed() bool {
	return k == KindByte || k == KindWord || k == KindLong
}

// Version is a SEED format version in tenths: 2.4 is Version(24).
type Version int

const (
	Version20      Version = 20
	Version21      Version = 21
	Version22      Version = 22
	Version23      Version = 23
	Version24      Version = 24
	DefaultVersion         = Version24
)

// ParseVersion parses "2.4" style version text.
func ParseVersion(s string) (Version, error) {
	s = strings.TrimSpace(s)
	whole, frac, ok := strings.Cut(s, ".")
	if !ok {
		frac = "0"
	}
	w, err := strconv.Atoi(whole)
	if err != nil || w < 0 {
		return 0, fmt.Errorf("%w: bad version %q", ErrFormat, s)
	}
	if len(frac) != 1 || frac[0] < '0' || frac[0] > '9' {
		return 0, fmt.Errorf("%w: bad version %q", ErrFormat, s)
	}
	return Version(w*10 + int(frac[0]-'0')), nil
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", int(v)/10, int(v)%10)
}

// Field is the metadata of one numbered field of a blockette type.
type Field struct {
	Number int
	Name   string
	Tag    TypeTag
	// Length is the fixed byte width, or the maximum width for
	// variable alpha fields.
	Length    int
	MinLength int
	Mask      string
	// RepeatPointer is the field number holding the repeat count,
	// 0 when the field is not repeating.
	RepeatPointer int
	Dictionary    []int
	Values        map[string]string
}

// IsRepeating reports whether the field belongs to a repeat group.
func (f Field) IsRepeating() bool {
	return f.RepeatPointer != 0
}

// Kind returns the binary kind for binary fields.
func (f Field) Kind() BinaryKind {
	if f.Tag != TagBinary {
		return ""
	}
	return BinaryKind(f.Mask)
}

// Elements returns the number of inline array elements of a binary field.
func (f Field) Elements() int {
	size := f.Kind().Size()
	if size == 0 || f.Kind() == KindBtime {
		return 1
	}
	return f.Length / size
}

// LengthText renders the length column of a definition row.
func (f Field) LengthText() string {
	if f.Tag == TagVariableAlpha {
		return fmt.Sprintf("%d-%d", f.MinLength, f.Length)
	}
	return strconv.Itoa(f.Length)
}

func (f Field) equal(o Field) bool {
	return f.Number == o.Number && f.Name == o.Name && f.Tag == o.Tag &&
		f.Length == o.Length && f.MinLength == o.MinLength && f.Mask == o.Mask &&
		f.RepeatPointer == o.RepeatPointer
}

// parseLength parses "12" or "1-22" length text.
func parseLength(tag TypeTag, s string) (min, max int, err error) {
	s = strings.TrimSpace(s)
	if lo, hi, ok := strings.Cut(s, "-"); ok {
		if tag != TagVariableAlpha {
			return 0, 0, fmt.Errorf("%w: length range %q on %s field", ErrFormat, s, tag)
		}
		if min, err = strconv.Atoi(lo); err != nil {
			return 0, 0, fmt.Errorf("%w: length %q", ErrFormat, s)
		}
		if max, err = strconv.Atoi(hi); err != nil {
			return 0, 0, fmt.Errorf("%w: length %q", ErrFormat, s)
		}
		if min < 0 || max < min {
			return 0, 0, fmt.Errorf("%w: length %q", ErrFormat, s)
		}
		return min, max, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, 0, fmt.Errorf("%w: length %q", ErrFormat, s)
	}
	if tag == TagVariableAlpha {
		return 0, n, nil
	}
	return n, n, nil
}

// checkMask validates the mask column against the field tag.
func checkMask(tag TypeTag, length int, mask string) error {
	switch tag {
	case TagBinary:
		k := BinaryKind(mask)
		size := k.Size()
		if size == 0 {
			return fmt.Errorf("%w: unknown binary mask %q", ErrFormat, mask)
		}
		if length%size != 0 || (k == KindBtime && length != size) {
			return fmt.Errorf("%w: binary mask %s does not fit length %d", ErrFormat, mask, length)
		}
	case TagDecimal, TagExponential, TagList:
		if mask == "" || strings.Trim(mask, "#-+.E") != "" {
			return fmt.Errorf("%w: numeric mask %q", ErrFormat, mask)
		}
		if tag == TagExponential && !strings.Contains(mask, "E") {
			return fmt.Errorf("%w: exponential mask %q", ErrFormat, mask)
		}
	case TagFixedAlpha, TagVariableAlpha:
		if strings.Trim(mask, "ULNPS_T") != "" {
			return fmt.Errorf("%w: alpha mask %q", ErrFormat, mask)
		}
	default:
		return fmt.Errorf("%w: unknown type tag %q", ErrFormat, tag)
	}
	return nil
}
