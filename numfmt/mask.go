// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

package numfmt

import (
	"fmt"
	"strings"
)

// Kind is the rendering class of a numeric mask.
type Kind int

const (
	Integer Kind = iota
	Float
	Exponential
)

func (k Kind) String() string {
	switch k {
	case Integer:
		return "integer"
	case Float:
		return "float"
	case Exponential:
		return "exponential"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Mask is a compiled numeric pattern such as "####", "-##.######" or
// "-#.#####E-##".
type Mask struct {
	Text string
	Kind Kind
	// Signed is set by a leading '-' or '+': non-negative values render
	// with an explicit '+'.
	Signed    bool
	IntDigits int
	// FracDigits is the number of digits after the decimal point, in the
	// mantissa for exponential masks.
	FracDigits int
	ExpDigits  int
}

// Width returns the natural rendered width of the mask.
func (m *Mask) Width() int {
	return len(m.Text)
}

// Compile parses a mask pattern.
func Compile(text string) (*Mask, error) {
	m := &Mask{Text: text}
	body := text
	if strings.HasPrefix(body, "-") || strings.HasPrefix(body, "+") {
		m.Signed = true
		body = body[1:]
	}
	if body == "" {
		return nil, fmt.Errorf("%w: %q", ErrMask, text)
	}

	mantissa, exponent, isExp := strings.Cut(body, "E")
	if isExp {
		m.Kind = Exponential
		exponent = strings.TrimLeft(exponent, "-+")
		if exponent == "" || !allHashes(exponent) {
			return nil, fmt.Errorf("%w: bad exponent in %q", ErrMask, text)
		}
		m.ExpDigits = len(exponent)
	}

	whole, frac, hasPoint := strings.Cut(mantissa, ".")
	if whole == "" || !allHashes(whole) {
		return nil, fmt.Errorf("%w: %q", ErrMask, text)
	}
	m.IntDigits = len(whole)
	if hasPoint {
		if !allHashes(frac) {
			return nil, fmt.Errorf("%w: %q", ErrMask, text)
		}
		m.FracDigits = len(frac)
		if !isExp {
			m.Kind = Float
		}
	}
	return m, nil
}

func allHashes(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] != '#' {
			return false
		}
	}
	return true
}
