// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

package blockette

import (
	"fmt"
	"slices"

	"github.com/iris-edu-legacy/java-seed-sub000/btime"
	"github.com/iris-edu-legacy/java-seed-sub000/schema"
)

// BinaryOptions describes the binary form of a record.
type BinaryOptions struct {
	// Endian is the word order of binary fields, big by default.
	Endian string
	// TimeEndian overrides the word order of time structures. Empty
	// follows Endian; EndianAuto picks the order per structure.
	TimeEndian string
	// DataRecord selects the 2-byte binary type tag of data record
	// blockettes instead of the 3-digit ASCII tag.
	DataRecord bool
	// Version bounds the field layout; 0 uses the codec version.
	Version schema.Version
}

func (o BinaryOptions) check() error {
	if !validEndian(o.Endian) {
		return fmt.Errorf("%w: unknown word order %q", ErrFormat, o.Endian)
	}
	if o.TimeEndian != EndianAuto && !validEndian(o.TimeEndian) {
		return fmt.Errorf("%w: unknown time word order %q", ErrFormat, o.TimeEndian)
	}
	return nil
}

func (o BinaryOptions) timeEndian() string {
	if o.TimeEndian == "" {
		return o.Endian
	}
	return o.TimeEndian
}

// lengthHintField is the field holding the byte length of metadata
// blockettes.
const lengthHintField = 2

type decoder struct {
	c    *Codec
	b    *Blockette
	ctx  *DecodeContext
	opts BinaryOptions
	// start is the offset of the type tag.
	start      int
	lengthHint int
}

// DecodeBinary decodes one blockette starting at buf[0]. It returns the
// blockette and the number of bytes consumed. Input that runs out before
// the last field is not an error: the blockette is marked incomplete and
// consumed covers only the fields that were read.
func (c *Codec) DecodeBinary(buf []byte, opts BinaryOptions) (*Blockette, int, error) {
	if err := opts.check(); err != nil {
		return nil, 0, err
	}
	ctx := NewDecodeContext(buf, opts.Endian)
	skipped, typ, err := readTypeTag(ctx, opts.DataRecord)
	if err != nil {
		return nil, 0, err
	}
	if typ == FixedHeaderType {
		return nil, 0, fmt.Errorf("%w: blockette %d is the fixed data header, use FromFixedHeader", ErrFormat, typ)
	}
	b, err := c.newBlockette(typ, c.resolveVersion(opts.Version))
	if err != nil {
		return nil, 0, err
	}
	if isData := b.def.Category == schema.CategoryDataRecord; isData != opts.DataRecord {
		return nil, 0, fmt.Errorf("%w: blockette %d read with the wrong type tag width", ErrFormat, typ)
	}
	if skipped > 0 {
		b.diagnose(SeverityWarning, 1, -1, "type tag realigned by %d byte", skipped)
	}
	b.slots[1] = scalarSlot(int64(typ))
	b.filled = 1

	d := &decoder{c: c, b: b, ctx: ctx, opts: opts, start: skipped}
	if err := d.run(); err != nil {
		return nil, 0, err
	}
	b.consumed = d.finish()
	return b, b.consumed, nil
}

// readTypeTag reads the type tag. An ASCII tag that is not space padded
// digits is retried one byte later.
func readTypeTag(ctx *DecodeContext, dataRecord bool) (skipped, typ int, err error) {
	if dataRecord {
		tag, err := ctx.Read(2)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: no room for a type tag: %v", ErrFormat, err)
		}
		return 0, int(decodeUint(tag, ctx.Endian)), nil
	}
	for skip := 0; skip <= 1; skip++ {
		tag, err := ctx.Peek(3, skip)
		if err != nil {
			break
		}
		if n, ok := parseTypeTag(tag); ok {
			ctx.Offset += skip + len(tag)
			return skip, n, nil
		}
	}
	return 0, 0, fmt.Errorf("%w: no blockette type tag at offset %d", ErrFormat, ctx.Offset)
}

func parseTypeTag(tag []byte) (int, bool) {
	i := 0
	for i < len(tag) && tag[i] == ' ' {
		i++
	}
	if i == len(tag) {
		return 0, false
	}
	n := 0
	for ; i < len(tag); i++ {
		if tag[i] < '0' || tag[i] > '9' {
			return 0, false
		}
		n = n*10 + int(tag[i]-'0')
	}
	return n, true
}

func (d *decoder) run() error {
	b := d.b
	t := b.def
	for n := 2; n <= b.numFields; {
		f := t.Fields[n]
		if !f.IsRepeating() {
			v, ok, err := d.read(n, -1)
			if err != nil || !ok {
				return err
			}
			b.slots[n] = scalarSlot(v)
			b.filled = n
			if n == d.hintField() {
				if i, ok := v.(int64); ok && i > 0 {
					d.lengthHint = int(i)
				}
			}
			n++
			continue
		}

		first, last := t.Span(n)
		last = min(last, b.numFields)
		groups := d.groupCount(f.RepeatPointer)
		for k := first; k <= last; k++ {
			b.slots[k] = newGroupSlot(t.Fields[k])
			b.slots[k].group = make([]any, 0, groups)
		}
		for g := 0; g < groups; g++ {
			for k := first; k <= last; k++ {
				v, ok, err := d.read(k, g)
				if err != nil {
					return err
				}
				if !ok {
					// drop the partial group
					for j := first; j < k; j++ {
						b.slots[j].group = b.slots[j].group[:g]
					}
					return nil
				}
				b.slots[k].group = append(b.slots[k].group, v)
			}
		}
		b.filled = last
		n = last + 1
	}
	return nil
}

// hintField is the field whose value bounds the blockette's byte length.
func (d *decoder) hintField() int {
	if d.b.def.Category != schema.CategoryDataRecord {
		return lengthHintField
	}
	return d.b.def.OpaqueLength
}

func (d *decoder) groupCount(countField int) int {
	v := d.b.slots[countField].scalar
	i, ok := v.(int64)
	if !ok || i < 0 {
		return 0
	}
	return int(i)
}

func (d *decoder) incomplete(n, idx int, format string, args ...any) (any, bool, error) {
	d.b.incomplete = true
	d.b.diagnose(SeverityInfo, n, idx, format, args...)
	return nil, false, nil
}

// read decodes field n at repeat index idx. ok is false when the input
// ran out; the offset is then left at the start of the field.
func (d *decoder) read(n, idx int) (v any, ok bool, err error) {
	f := d.b.def.Fields[n]
	if d.ctx.Remaining() == 0 {
		return d.incomplete(n, idx, "input ends at offset %d", d.ctx.Offset)
	}
	start := d.ctx.Offset

	switch f.Tag {
	case schema.TagDecimal, schema.TagExponential, schema.TagFixedAlpha:
		raw, err := d.ctx.Read(f.Length)
		if err != nil {
			return d.incomplete(n, idx, "%v", err)
		}
		v, err := d.c.parseToken(d.b, n, idx, string(raw), true)
		return v, err == nil, err

	case schema.TagVariableAlpha:
		return d.variable(f, idx)

	case schema.TagBinary:
		raw, err := d.ctx.Read(f.Length)
		if err != nil {
			return d.incomplete(n, idx, "%v", err)
		}
		return d.binary(f, idx, raw), true, nil

	case schema.TagList:
		count := 0
		if prev, ok := d.b.slots[n-1].group[idx].(int64); ok && prev > 0 {
			count = int(prev)
		}
		var list []int64
		for i := 0; i < count; i++ {
			raw, err := d.ctx.Read(f.Length)
			if err != nil {
				d.ctx.Offset = start
				return d.incomplete(n, idx, "list entry %d: %v", i, err)
			}
			e, err := d.c.parseToken(d.b, n, idx, string(raw), true)
			if err != nil {
				return nil, false, err
			}
			if l, ok := e.([]int64); ok && len(l) == 1 {
				list = append(list, l[0])
			} else {
				list = append(list, 0)
			}
		}
		return list, true, nil
	}
	return nil, false, fmt.Errorf("%w: field %d has tag %s", ErrFormat, n, f.Tag)
}

// variable reads a '~' terminated field. When no terminator is found
// within the field maximum, the blockette length read earlier is used to
// look further before the field is given up as incomplete.
func (d *decoder) variable(f schema.Field, idx int) (any, bool, error) {
	window := f.Length + 1
	i := d.ctx.IndexTerminator(window)
	if i < 0 && d.lengthHint > 0 {
		far := d.start + d.lengthHint - d.ctx.Offset
		if far > window {
			if i = d.ctx.IndexTerminator(far); i >= 0 {
				d.b.diagnose(SeverityWarning, f.Number, idx, "terminator found %d bytes in, past the field maximum of %d", i, f.Length)
			}
		}
	}
	if i < 0 {
		return d.incomplete(f.Number, idx, "no terminator after offset %d", d.ctx.Offset)
	}
	raw, _ := d.ctx.Read(i + 1)
	v, err := d.c.parseToken(d.b, f.Number, idx, string(raw[:i]), true)
	return v, err == nil, err
}

func (d *decoder) binary(f schema.Field, idx int, raw []byte) any {
	endian := d.ctx.Endian
	switch k := f.Kind(); k {
	case schema.KindBtime:
		var bt btime.Btime
		if te := d.opts.timeEndian(); te == EndianAuto {
			bt, _ = btime.DecodeAuto(raw)
			if bt.Swapped {
				d.b.diagnose(SeverityInfo, f.Number, idx, "time structure is little endian")
			}
		} else {
			bt, _ = btime.Decode(raw, byteOrder(te))
		}
		d.c.checkTime(d.b, f.Number, idx, bt)
		return bt

	case schema.KindFloat:
		return decodeFloat32(raw, endian)

	default:
		size := k.Size()
		if f.Elements() == 1 {
			if k.Signed() {
				return decodeSint(raw, endian)
			}
			return int64(decodeUint(raw, endian))
		}
		if size == 1 {
			return slices.Clone(raw)
		}
		vals := make([]int64, 0, f.Elements())
		for i := 0; i+size <= len(raw); i += size {
			if k.Signed() {
				vals = append(vals, decodeSint(raw[i:i+size], endian))
			} else {
				vals = append(vals, int64(decodeUint(raw[i:i+size], endian)))
			}
		}
		return vals
	}
}

// finish settles the consumed byte count and the opaque payload.
func (d *decoder) finish() int {
	b := d.b
	consumed := d.ctx.Offset
	if b.incomplete {
		return consumed
	}
	t := b.def

	if t.OpaqueLength != 0 {
		total := d.lengthHint
		off, _ := b.Int(t.OpaqueOffset)
		begin, end := d.start+int(off), d.start+total
		switch {
		case total == 0 || int(off) == 0:
			// no payload
		case begin < consumed || begin > end:
			b.diagnose(SeverityWarning, t.OpaqueOffset, -1, "opaque data offset %d overlaps the header fields", off)
		case end > len(d.ctx.Data):
			b.incomplete = true
			b.diagnose(SeverityInfo, t.OpaqueLength, -1, "opaque data needs %d bytes, %d available", end-begin, len(d.ctx.Data)-begin)
		default:
			b.payload = &Payload{Data: slices.Clone(d.ctx.Data[begin:end])}
			consumed = end
		}
		return consumed
	}

	if t.Category == schema.CategoryDataRecord || d.lengthHint == 0 {
		return consumed
	}
	declared := d.start + d.lengthHint
	switch {
	case declared > consumed && declared <= len(d.ctx.Data):
		b.diagnose(SeverityInfo, lengthHintField, -1, "skipped %d bytes up to the declared length %d", declared-consumed, d.lengthHint)
		consumed = declared
	case declared != consumed:
		b.diagnose(SeverityWarning, lengthHintField, -1, "declared length %d, parsed %d", d.lengthHint, consumed-d.start)
	}
	return consumed
}
