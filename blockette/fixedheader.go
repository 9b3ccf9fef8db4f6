// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

package blockette

import (
	"fmt"

	"github.com/iris-edu-legacy/java-seed-sub000/schema"
)

// FixedHeaderType is the pseudo-type number of the fixed section of a data
// record header. It has no type tag of its own and is read with
// FromFixedHeader.
const FixedHeaderType = 999

// FixedHeaderSize is the byte length of the fixed data header.
const FixedHeaderSize = 48

// fixedHeaderLayout lists the header fields in byte order. Byte 7 is
// reserved and sits between the quality indicator and the station code.
var fixedHeaderLayout = []struct {
	field  int
	offset int
}{
	{3, 0},
	{2, 6},
	{4, 8},
	{5, 13},
	{6, 15},
	{7, 18},
	{8, 20},
	{9, 30},
	{10, 32},
	{11, 34},
	{12, 36},
	{13, 37},
	{14, 38},
	{15, 39},
	{16, 40},
	{17, 44},
	{18, 46},
}

const fixedHeaderReserved = 7

// FromFixedHeader decodes the 48-byte fixed section of a data record
// header.
func (c *Codec) FromFixedHeader(buf []byte, opts BinaryOptions) (*Blockette, error) {
	if err := opts.check(); err != nil {
		return nil, err
	}
	if len(buf) < FixedHeaderSize {
		return nil, fmt.Errorf("%w: fixed data header needs %d bytes, got %d", ErrFormat, FixedHeaderSize, len(buf))
	}
	b, err := c.newBlockette(FixedHeaderType, c.resolveVersion(opts.Version))
	if err != nil {
		return nil, err
	}
	b.slots[1] = scalarSlot(int64(FixedHeaderType))
	d := &decoder{c: c, b: b, ctx: NewDecodeContext(buf, opts.Endian), opts: opts}

	for _, l := range fixedHeaderLayout {
		f := b.def.Fields[l.field]
		raw := buf[l.offset : l.offset+f.Length]
		var v any
		if f.Tag == schema.TagBinary {
			v = d.binary(f, -1, raw)
		} else {
			v, err = c.parseToken(b, l.field, -1, string(raw), true)
			if err != nil {
				return nil, err
			}
		}
		b.slots[l.field] = scalarSlot(v)
	}
	b.filled = b.numFields
	b.consumed = FixedHeaderSize
	return b, nil
}

// FixedHeader encodes a fixed data header blockette into its 48 bytes.
func (c *Codec) FixedHeader(b *Blockette, opts BinaryOptions) ([]byte, error) {
	if err := opts.check(); err != nil {
		return nil, err
	}
	if b.typ != FixedHeaderType {
		return nil, fmt.Errorf("%w: blockette %d is not a fixed data header", ErrFormat, b.typ)
	}
	out := make([]byte, FixedHeaderSize)
	out[fixedHeaderReserved] = ' '
	for _, l := range fixedHeaderLayout {
		if l.field > b.filled {
			continue
		}
		ctx := NewEncodeContext(opts.Endian)
		if err := c.encodeValue(ctx, b, b.def.Fields[l.field], b.slots[l.field].scalar, opts); err != nil {
			return nil, err
		}
		copy(out[l.offset:], ctx.Buffer)
	}
	return out, nil
}

// FromFixedHeader decodes a fixed data header with the default codec.
func FromFixedHeader(buf []byte, opts BinaryOptions) (*Blockette, error) {
	return DefaultCodec().FromFixedHeader(buf, opts)
}
