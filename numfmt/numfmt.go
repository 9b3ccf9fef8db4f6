// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

// Package numfmt renders numbers into the fixed-width decimal and
// exponential text forms used by SEED control headers, and parses them back.
package numfmt

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

var (
	// ErrMask reports an unparsable mask pattern.
	ErrMask = errors.New("bad numeric mask")
	// ErrOverflow reports a value that does not fit the field width.
	ErrOverflow = errors.New("numeric overflow")
	// ErrSyntax reports text that is not a number.
	ErrSyntax = errors.New("numeric syntax")
)

const (
	DefaultMaskCacheSize  = 256
	DefaultValueCacheSize = 4096
)

type valueKey struct {
	mask  string
	width int
	i     int64
	f     uint64
}

// Formatter converts between numbers and mask-formatted text. Compiled masks
// are cached by mask text; rendered values are optionally cached as well.
// A Formatter is safe for concurrent use.
type Formatter struct {
	masks  *lru.Cache[string, *Mask]
	values *lru.Cache[valueKey, string]
}

// New creates a formatter. A valueCacheSize of 0 disables the value cache.
func New(maskCacheSize, valueCacheSize int) (*Formatter, error) {
	if maskCacheSize <= 0 {
		maskCacheSize = DefaultMaskCacheSize
	}
	masks, err := lru.New[string, *Mask](maskCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create mask cache: %w", err)
	}
	f := &Formatter{masks: masks}
	if valueCacheSize > 0 {
		f.values, err = lru.New[valueKey, string](valueCacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create value cache: %w", err)
		}
	}
	return f, nil
}

var (
	defaultOnce      sync.Once
	defaultFormatter *Formatter
)

// Default returns a shared formatter with both caches enabled.
func Default() *Formatter {
	defaultOnce.Do(func() {
		f, err := New(DefaultMaskCacheSize, DefaultValueCacheSize)
		if err != nil {
			panic(err)
		}
		defaultFormatter = f
	})
	return defaultFormatter
}

// Mask returns the compiled form of a mask, from cache when possible.
func (f *Formatter) Mask(text string) (*Mask, error) {
	if m, ok := f.masks.Get(text); ok {
		return m, nil
	}
	m, err := Compile(text)
	if err != nil {
		return nil, err
	}
	f.masks.Add(text, m)
	return m, nil
}

// Format renders value through mask into exactly width characters. A width
// of 0 or less uses the mask's natural width. Integer masks render zero
// padded; exponential masks always carry a signed exponent. When a signed
// rendering is one character too wide its leading '+' is dropped.
func (f *Formatter) Format(mask string, width int, value any) (string, error) {
	m, err := f.Mask(mask)
	if err != nil {
		return "", err
	}
	if width <= 0 {
		width = m.Width()
	}

	key := valueKey{mask: mask, width: width}
	if m.Kind == Integer {
		i, err := toInt(value)
		if err != nil {
			return "", err
		}
		key.i = i
	} else {
		v, err := toFloat(value)
		if err != nil {
			return "", err
		}
		key.f = math.Float64bits(v)
	}
	if f.values != nil {
		if s, ok := f.values.Get(key); ok {
			return s, nil
		}
	}

	var s string
	switch m.Kind {
	case Integer:
		s, err = formatInt(m, width, key.i)
	case Float:
		s, err = formatFloat(m, width, math.Float64frombits(key.f))
	default:
		s, err = formatExp(m, width, math.Float64frombits(key.f))
	}
	if err != nil {
		return "", err
	}
	if f.values != nil {
		f.values.Add(key, s)
	}
	return s, nil
}

// Parse converts mask-formatted text back into a number: int64 for integer
// masks, float64 otherwise.
func (f *Formatter) Parse(mask, text string) (any, error) {
	m, err := f.Mask(mask)
	if err != nil {
		return nil, err
	}
	s := strings.TrimSpace(text)
	if s == "" {
		return nil, fmt.Errorf("%w: empty text for mask %q", ErrSyntax, mask)
	}
	if m.Kind == Integer {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v != math.Trunc(v) || math.Abs(v) > math.MaxInt64 {
			return nil, fmt.Errorf("%w: %q is not an integer", ErrSyntax, text)
		}
		return int64(v), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a number", ErrSyntax, text)
	}
	return v, nil
}

func formatInt(m *Mask, width int, v int64) (string, error) {
	digits := strconv.FormatUint(absInt(v), 10)
	return fit(m, width, v < 0, digits, '0')
}

func formatFloat(m *Mask, width int, v float64) (string, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "", fmt.Errorf("%w: %v", ErrOverflow, v)
	}
	digits := strconv.FormatFloat(math.Abs(v), 'f', m.FracDigits, 64)
	return fit(m, width, math.Signbit(v) && digits != zeroText(m.FracDigits), digits, '0')
}

func formatExp(m *Mask, width int, v float64) (string, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "", fmt.Errorf("%w: %v", ErrOverflow, v)
	}
	text := strconv.FormatFloat(math.Abs(v), 'E', m.FracDigits, 64)
	mantissa, exp, _ := strings.Cut(text, "E")
	sign := exp[0]
	exp = exp[1:]
	for len(exp) < m.ExpDigits {
		exp = "0" + exp
	}
	digits := mantissa + "E" + string(sign) + exp
	return fit(m, width, math.Signbit(v) && v != 0, digits, ' ')
}

// fit places the sign and pads digits to width.
func fit(m *Mask, width int, negative bool, digits string, pad byte) (string, error) {
	sign := ""
	if negative {
		sign = "-"
	} else if m.Signed {
		sign = "+"
	}
	if len(sign)+len(digits) > width && sign == "+" {
		sign = ""
	}
	if n := len(sign) + len(digits); n > width {
		return "", fmt.Errorf("%w: %s%s does not fit %d characters of %q", ErrOverflow, sign, digits, width, m.Text)
	}
	padding := strings.Repeat(string(pad), width-len(sign)-len(digits))
	if pad == '0' {
		return sign + padding + digits, nil
	}
	return padding + sign + digits, nil
}

func zeroText(frac int) string {
	if frac == 0 {
		return "0"
	}
	return "0." + strings.Repeat("0", frac)
}

func absInt(v int64) uint64 {
	if v < 0 {
		return uint64(-(v + 1)) + 1
	}
	return uint64(v)
}

func toInt(value any) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d", ErrOverflow, v)
		}
		return int64(v), nil
	case float32:
		return roundInt(float64(v))
	case float64:
		return roundInt(v)
	}
	return 0, fmt.Errorf("%w: unsupported type %T", ErrSyntax, value)
}

func roundInt(v float64) (int64, error) {
	r := math.Round(v)
	if math.IsNaN(r) || math.Abs(r) >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %v", ErrOverflow, v)
	}
	return int64(r), nil
}

func toFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int8:
		return float64(v), nil
	case int16:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint8:
		return float64(v), nil
	case uint16:
		return float64(v), nil
	case uint32:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	}
	return 0, fmt.Errorf("%w: unsupported type %T", ErrSyntax, value)
}
