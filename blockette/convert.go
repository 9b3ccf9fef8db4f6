// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

package blockette

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/iris-edu-legacy/java-seed-sub000/btime"
	"github.com/iris-edu-legacy/java-seed-sub000/numfmt"
	"github.com/iris-edu-legacy/java-seed-sub000/schema"
)

const (
	terminator = '~'
	listSep    = ","
)

// isIntegerField reports whether values of a D field are int64.
func (c *Codec) isIntegerField(f schema.Field) bool {
	if f.Tag == schema.TagList {
		return true
	}
	if f.Tag != schema.TagDecimal {
		return false
	}
	m, err := c.nf.Mask(f.Mask)
	return err == nil && m.Kind == numfmt.Integer
}

// render converts a value to its text token. null is true for nil values.
func (c *Codec) render(f schema.Field, v any) (text string, null bool, err error) {
	switch x := v.(type) {
	case nil:
		return "", true, nil
	case string:
		return x, false, nil
	case int64:
		return strconv.FormatInt(x, 10), false, nil
	case float64:
		if f.Tag == schema.TagBinary {
			return strconv.FormatFloat(x, 'g', -1, 32), false, nil
		}
		s, err := c.nf.Format(f.Mask, f.Length, x)
		if err != nil {
			return "", false, fmt.Errorf("%w: field %d: %v", ErrInput, f.Number, err)
		}
		return strings.TrimSpace(s), false, nil
	case btime.Btime:
		return x.String(), false, nil
	case []byte:
		parts := make([]string, len(x))
		for i, e := range x {
			if f.Kind().Signed() {
				parts[i] = strconv.Itoa(int(int8(e)))
			} else {
				parts[i] = strconv.Itoa(int(e))
			}
		}
		return strings.Join(parts, listSep), false, nil
	case []int64:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = strconv.FormatInt(e, 10)
		}
		return strings.Join(parts, listSep), false, nil
	}
	return "", false, fmt.Errorf("%w: field %d holds unsupported %T", ErrFormat, f.Number, v)
}

// parseToken converts a text token to the field's value type. fromBinary
// is set for fixed-width text read from binary records, where oversize
// values are kept rather than truncated.
func (c *Codec) parseToken(b *Blockette, n, idx int, token string, fromBinary bool) (any, error) {
	f := b.def.Fields[n]
	switch f.Tag {
	case schema.TagDecimal, schema.TagExponential:
		s := strings.TrimSpace(token)
		if s == "" {
			return nil, nil
		}
		v, err := c.nf.Parse(f.Mask, s)
		if err != nil {
			return c.numericDefault(b, f, idx, "%q is not a number for mask %s", token, f.Mask)
		}
		return c.checkNumeric(b, f, idx, v)

	case schema.TagFixedAlpha:
		return c.checkAlpha(b, f, idx, strings.TrimRight(token, " "), fromBinary)

	case schema.TagVariableAlpha:
		return c.checkAlpha(b, f, idx, token, fromBinary)

	case schema.TagList:
		s := strings.TrimSpace(token)
		if s == "" {
			return nil, nil
		}
		var list []int64
		for _, part := range strings.Split(s, listSep) {
			v, err := c.nf.Parse(f.Mask, part)
			if err != nil {
				if err := c.inputError(b, f.Number, idx, "bad list entry %q", part); err != nil {
					return nil, err
				}
				return nil, nil
			}
			list = append(list, v.(int64))
		}
		return list, nil

	case schema.TagBinary:
		return c.parseBinaryToken(b, f, idx, strings.TrimSpace(token))
	}
	return nil, fmt.Errorf("%w: field %d has tag %s", ErrFormat, f.Number, f.Tag)
}

func (c *Codec) parseBinaryToken(b *Blockette, f schema.Field, idx int, s string) (any, error) {
	if s == "" {
		return nil, nil
	}
	switch k := f.Kind(); k {
	case schema.KindBtime:
		bt, err := btime.Parse(s)
		if err != nil {
			if err := c.inputError(b, f.Number, idx, "%v", err); err != nil {
				return nil, err
			}
			return btime.Btime{}, nil
		}
		c.checkTime(b, f.Number, idx, bt)
		return bt, nil

	case schema.KindFloat:
		v, err := strconv.ParseFloat(s, 32)
		if err != nil {
			if err := c.inputError(b, f.Number, idx, "%q is not a float", s); err != nil {
				return nil, err
			}
			return float64(0), nil
		}
		return v, nil

	default:
		parts := strings.Split(s, listSep)
		if f.Elements() == 1 && len(parts) == 1 {
			v, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				if err := c.inputError(b, f.Number, idx, "%q is not an integer", s); err != nil {
					return nil, err
				}
				return int64(0), nil
			}
			return c.checkKindRange(b, f, idx, v)
		}
		vals := make([]int64, 0, f.Elements())
		for _, p := range parts {
			v, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
			if err != nil {
				if err := c.inputError(b, f.Number, idx, "%q is not an integer", p); err != nil {
					return nil, err
				}
				v = 0
			}
			vals = append(vals, v)
		}
		return c.checkArray(b, f, idx, vals)
	}
}

// convert coerces a caller-supplied value to the field's value type.
func (c *Codec) convert(b *Blockette, n, idx int, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if s, ok := v.(string); ok {
		return c.parseToken(b, n, idx, s, false)
	}
	f := b.def.Fields[n]
	switch f.Tag {
	case schema.TagDecimal, schema.TagExponential:
		var num any
		if c.isIntegerField(f) {
			i, ok := toInt64(v)
			if !ok {
				return c.typeMismatch(b, f, idx, v)
			}
			num = i
		} else {
			x, ok := toFloat64(v)
			if !ok {
				return c.typeMismatch(b, f, idx, v)
			}
			num = x
		}
		return c.checkNumeric(b, f, idx, num)

	case schema.TagFixedAlpha, schema.TagVariableAlpha:
		return c.parseToken(b, n, idx, fmt.Sprint(v), false)

	case schema.TagList:
		var list []int64
		switch x := v.(type) {
		case []int64:
			list = append(list, x...)
		case []int:
			for _, e := range x {
				list = append(list, int64(e))
			}
		default:
			return c.typeMismatch(b, f, idx, v)
		}
		return list, nil

	case schema.TagBinary:
		switch k := f.Kind(); k {
		case schema.KindBtime:
			var bt btime.Btime
			switch x := v.(type) {
			case btime.Btime:
				bt = x
			case time.Time:
				bt = btime.FromTime(x)
			default:
				return c.typeMismatch(b, f, idx, v)
			}
			c.checkTime(b, n, idx, bt)
			return bt, nil
		case schema.KindFloat:
			x, ok := toFloat64(v)
			if !ok {
				return c.typeMismatch(b, f, idx, v)
			}
			return float64(float32(x)), nil
		default:
			if f.Elements() == 1 {
				i, ok := toInt64(v)
				if !ok {
					return c.typeMismatch(b, f, idx, v)
				}
				return c.checkKindRange(b, f, idx, i)
			}
			var vals []int64
			switch x := v.(type) {
			case []byte:
				for _, e := range x {
					if k.Signed() {
						vals = append(vals, int64(int8(e)))
					} else {
						vals = append(vals, int64(e))
					}
				}
			case []int64:
				vals = append(vals, x...)
			case []int:
				for _, e := range x {
					vals = append(vals, int64(e))
				}
			default:
				return c.typeMismatch(b, f, idx, v)
			}
			return c.checkArray(b, f, idx, vals)
		}
	}
	return nil, fmt.Errorf("%w: field %d has tag %s", ErrFormat, n, f.Tag)
}

func (c *Codec) typeMismatch(b *Blockette, f schema.Field, idx int, v any) (any, error) {
	if err := c.inputError(b, f.Number, idx, "cannot store %T in a %s field", v, f.Tag); err != nil {
		return nil, err
	}
	return nil, nil
}

// numericDefault reports a bad numeric value and substitutes zero.
func (c *Codec) numericDefault(b *Blockette, f schema.Field, idx int, format string, args ...any) (any, error) {
	if err := c.inputError(b, f.Number, idx, format, args...); err != nil {
		return nil, err
	}
	if c.isIntegerField(f) {
		return int64(0), nil
	}
	return float64(0), nil
}

// checkNumeric verifies that a number fits the field's mask and width.
func (c *Codec) checkNumeric(b *Blockette, f schema.Field, idx int, v any) (any, error) {
	if _, err := c.nf.Format(f.Mask, f.Length, v); err != nil {
		return c.numericDefault(b, f, idx, "%v does not fit mask %s: %v", v, f.Mask, err)
	}
	return v, nil
}

func kindRange(k schema.BinaryKind) (min, max int64) {
	switch k {
	case schema.KindByte:
		return math.MinInt8, math.MaxInt8
	case schema.KindUByte:
		return 0, math.MaxUint8
	case schema.KindWord:
		return math.MinInt16, math.MaxInt16
	case schema.KindUWord:
		return 0, math.MaxUint16
	case schema.KindLong:
		return math.MinInt32, math.MaxInt32
	case schema.KindULong:
		return 0, math.MaxUint32
	}
	return 0, 0
}

func (c *Codec) checkKindRange(b *Blockette, f schema.Field, idx int, v int64) (any, error) {
	min, max := kindRange(f.Kind())
	if v < min || v > max {
		if err := c.inputError(b, f.Number, idx, "%d is outside the %s range", v, f.Kind()); err != nil {
			return nil, err
		}
		return int64(0), nil
	}
	return v, nil
}

// checkArray validates an inline array and stores byte kinds as []byte.
func (c *Codec) checkArray(b *Blockette, f schema.Field, idx int, vals []int64) (any, error) {
	n := f.Elements()
	if len(vals) > n {
		if err := c.inputError(b, f.Number, idx, "%d elements for a %d element array", len(vals), n); err != nil {
			return nil, err
		}
		vals = vals[:n]
	}
	for len(vals) < n {
		vals = append(vals, 0)
	}
	min, max := kindRange(f.Kind())
	for i, v := range vals {
		if v < min || v > max {
			if err := c.inputError(b, f.Number, idx, "element %d value %d is outside the %s range", i, v, f.Kind()); err != nil {
				return nil, err
			}
			vals[i] = 0
		}
	}
	if f.Kind().Size() != 1 {
		return vals, nil
	}
	out := make([]byte, n)
	for i, v := range vals {
		out[i] = byte(v)
	}
	return out, nil
}

func (c *Codec) checkTime(b *Blockette, n, idx int, bt btime.Btime) {
	if err := bt.Validate(); err != nil {
		b.diagnose(SeverityWarning, n, idx, "time %s: %v", bt, err)
	}
}

// checkAlpha validates length and character classes of alpha values.
func (c *Codec) checkAlpha(b *Blockette, f schema.Field, idx int, s string, fromBinary bool) (any, error) {
	if f.Tag == schema.TagVariableAlpha && strings.IndexByte(s, terminator) >= 0 {
		if err := c.inputError(b, f.Number, idx, "value contains the field terminator"); err != nil {
			return nil, err
		}
		s = strings.ReplaceAll(s, string(terminator), "")
	}
	if len(s) > f.Length {
		if fromBinary {
			b.diagnose(SeverityWarning, f.Number, idx, "value is %d bytes, longer than %d", len(s), f.Length)
		} else {
			if err := c.inputError(b, f.Number, idx, "value %q is longer than %d", s, f.Length); err != nil {
				return nil, err
			}
			s = s[:f.Length]
		}
	}
	if f.Tag == schema.TagVariableAlpha && len(s) < f.MinLength {
		if err := c.inputError(b, f.Number, idx, "value %q is shorter than %d", s, f.MinLength); err != nil {
			return nil, err
		}
	}
	if f.Mask == "T" {
		if s != "" {
			bt, err := btime.Parse(s)
			if err != nil {
				if err := c.inputError(b, f.Number, idx, "%q is not a time", s); err != nil {
					return nil, err
				}
			} else {
				c.checkTime(b, f.Number, idx, bt)
			}
		}
		return s, nil
	}
	if i := badClass(f.Mask, s); i >= 0 {
		if err := c.inputError(b, f.Number, idx, "character %q at %d not allowed by mask %s", s[i], i, f.Mask); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// badClass returns the index of the first character of s outside the
// classes of mask, or -1.
func badClass(mask, s string) int {
	for i := 0; i < len(s); i++ {
		if !inClass(mask, s[i]) {
			return i
		}
	}
	return -1
}

func inClass(mask string, ch byte) bool {
	for j := 0; j < len(mask); j++ {
		switch mask[j] {
		case 'U':
			if ch >= 'A' && ch <= 'Z' {
				return true
			}
		case 'L':
			if ch >= 'a' && ch <= 'z' {
				return true
			}
		case 'N':
			if ch >= '0' && ch <= '9' {
				return true
			}
		case 'P':
			if ch > ' ' && ch < 0x7f && ch != terminator && !isAlnum(ch) {
				return true
			}
		case 'S':
			if ch == ' ' {
				return true
			}
		case '_':
			if ch == '_' {
				return true
			}
		}
	}
	return false
}

func isAlnum(ch byte) bool {
	return ch >= 'A' && ch <= 'Z' || ch >= 'a' && ch <= 'z' || ch >= '0' && ch <= '9'
}

// encodeText renders D, E, A and V values in their record form.
func (c *Codec) encodeText(f schema.Field, v any) (string, error) {
	switch f.Tag {
	case schema.TagDecimal, schema.TagExponential:
		if v == nil {
			return strings.Repeat(" ", f.Length), nil
		}
		s, err := c.nf.Format(f.Mask, f.Length, v)
		if err != nil {
			return "", fmt.Errorf("%w: field %d: %v", ErrInput, f.Number, err)
		}
		return s, nil
	case schema.TagFixedAlpha:
		s, _ := v.(string)
		if len(s) > f.Length {
			s = s[:f.Length]
		}
		return s + strings.Repeat(" ", f.Length-len(s)), nil
	case schema.TagVariableAlpha:
		s, _ := v.(string)
		return s + string(terminator), nil
	}
	return "", fmt.Errorf("%w: field %d is not a text field", ErrFormat, f.Number)
}

func toInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		if x > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	case float64:
		if x != math.Trunc(x) {
			return 0, false
		}
		return int64(x), true
	}
	return 0, false
}

func toFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	}
	if i, ok := toInt64(v); ok {
		return float64(i), true
	}
	return 0, false
}
