// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

package blockette

import (
	"fmt"
	"math"

	"github.com/iris-edu-legacy/java-seed-sub000/btime"
	"github.com/iris-edu-legacy/java-seed-sub000/schema"
)

const maxASCIITag = 999

// EncodeBinary serializes a blockette into its record form. The length
// field of metadata blockettes and the length and offset fields of opaque
// data blockettes are recomputed; all other values are written as stored.
func (c *Codec) EncodeBinary(b *Blockette, opts BinaryOptions) ([]byte, error) {
	if err := opts.check(); err != nil {
		return nil, err
	}
	if b.typ == FixedHeaderType {
		return c.FixedHeader(b, opts)
	}
	if err := c.checkCounts(b); err != nil {
		return nil, err
	}
	t := b.def
	isData := t.Category == schema.CategoryDataRecord
	ctx := NewEncodeContext(opts.Endian)
	offsets := make([]int, b.numFields+1)

	if isData {
		ctx.Write(encodeUint(uint64(b.typ), 2, ctx.Endian))
	} else {
		if b.typ > maxASCIITag {
			return nil, fmt.Errorf("%w: blockette %d does not fit a 3 digit tag", ErrFormat, b.typ)
		}
		ctx.WriteString(fmt.Sprintf("%03d", b.typ))
	}

	for n := 2; n <= b.filled; {
		f := t.Fields[n]
		if !f.IsRepeating() {
			offsets[n] = ctx.Len()
			if err := c.encodeValue(ctx, b, f, b.slots[n].scalar, opts); err != nil {
				return nil, err
			}
			n++
			continue
		}
		first, last := t.Span(n)
		last = min(last, b.filled)
		groups := len(b.slots[first].group)
		for k := first + 1; k <= last; k++ {
			if len(b.slots[k].group) != groups {
				return nil, fmt.Errorf("%w: blockette %d field %d has %d groups, field %d has %d", ErrFormat, b.typ, k, len(b.slots[k].group), first, groups)
			}
		}
		for g := 0; g < groups; g++ {
			for k := first; k <= last; k++ {
				if err := c.encodeValue(ctx, b, t.Fields[k], b.slots[k].group[g], opts); err != nil {
					return nil, err
				}
			}
		}
		n = last + 1
	}

	out := ctx.Buffer
	switch {
	case t.OpaqueLength != 0:
		header := len(out)
		var payload []byte
		if b.payload != nil {
			payload = b.payload.Data
		}
		total := header + len(payload)
		if total > math.MaxUint16 {
			return nil, fmt.Errorf("%w: blockette %d is %d bytes long", ErrInput, b.typ, total)
		}
		if b.filled >= t.OpaqueLength {
			copy(out[offsets[t.OpaqueLength]:], encodeUint(uint64(total), 2, ctx.Endian))
		}
		if b.filled >= t.OpaqueOffset {
			copy(out[offsets[t.OpaqueOffset]:], encodeUint(uint64(header), 2, ctx.Endian))
		}
		out = append(out, payload...)
	case !isData && b.filled >= lengthHintField:
		if len(out) > 9999 {
			return nil, fmt.Errorf("%w: blockette %d is %d bytes long", ErrInput, b.typ, len(out))
		}
		copy(out[offsets[lengthHintField]:], fmt.Sprintf("%04d", len(out)))
	}
	return out, nil
}

func (c *Codec) encodeValue(ctx *EncodeContext, b *Blockette, f schema.Field, v any, opts BinaryOptions) error {
	switch f.Tag {
	case schema.TagBinary:
		return encodeBinaryValue(ctx, b, f, v, opts)
	case schema.TagList:
		list, _ := v.([]int64)
		for _, e := range list {
			s, err := c.nf.Format(f.Mask, f.Length, e)
			if err != nil {
				return fmt.Errorf("%w: blockette %d field %d: %v", ErrInput, b.typ, f.Number, err)
			}
			ctx.WriteString(s)
		}
		return nil
	}
	s, err := c.encodeText(f, v)
	if err != nil {
		return fmt.Errorf("blockette %d: %w", b.typ, err)
	}
	ctx.WriteString(s)
	return nil
}

func encodeBinaryValue(ctx *EncodeContext, b *Blockette, f schema.Field, v any, opts BinaryOptions) error {
	if v == nil {
		ctx.Write(make([]byte, f.Length))
		return nil
	}
	k := f.Kind()
	switch x := v.(type) {
	case btime.Btime:
		if k != schema.KindBtime {
			break
		}
		te := opts.timeEndian()
		if te == EndianAuto {
			te = ctx.Endian
			if x.Swapped {
				te = EndianLittle
			}
		}
		ctx.Write(x.Encode(byteOrder(te)))
		return nil
	case float64:
		if k != schema.KindFloat {
			break
		}
		ctx.Write(encodeFloat32(float32(x), ctx.Endian))
		return nil
	case int64:
		if f.Elements() != 1 || k == schema.KindFloat || k == schema.KindBtime {
			break
		}
		if k.Signed() {
			ctx.Write(encodeSint(x, k.Size(), ctx.Endian))
		} else {
			ctx.Write(encodeUint(uint64(x), k.Size(), ctx.Endian))
		}
		return nil
	case []byte:
		if k.Size() != 1 {
			break
		}
		buf := make([]byte, f.Length)
		copy(buf, x)
		ctx.Write(buf)
		return nil
	case []int64:
		size := k.Size()
		for i := 0; i < f.Elements(); i++ {
			var e int64
			if i < len(x) {
				e = x[i]
			}
			if k.Signed() {
				ctx.Write(encodeSint(e, size, ctx.Endian))
			} else {
				ctx.Write(encodeUint(uint64(e), size, ctx.Endian))
			}
		}
		return nil
	}
	return fmt.Errorf("%w: blockette %d field %d holds %T, not %s", ErrFormat, b.typ, f.Number, v, k)
}
