// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

package btime

import (
	"fmt"
	"strconv"
	"strings"
)

// String renders the canonical "YYYY,DDD,HH:MM:SS.FFFF" form.
func (bt Btime) String() string {
	return fmt.Sprintf("%04d,%03d,%02d:%02d:%02d.%04d", bt.Year, bt.Day, bt.Hour, bt.Minute, bt.Second, bt.Fraction)
}

// Parse reads canonical time text. Trailing components may be left off:
// "1993,029", "1993,029,12" and "1993,029,12:30:05.5" are all accepted,
// missing parts default to the start of the period.
func Parse(text string) (Btime, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return Btime{}, fmt.Errorf("%w: empty", ErrSyntax)
	}

	parts := strings.Split(s, ",")
	if len(parts) > 3 {
		return Btime{}, fmt.Errorf("%w: %q", ErrSyntax, text)
	}
	bt := Btime{Day: 1}

	year, err := component(parts[0], 0xffff)
	if err != nil {
		return Btime{}, fmt.Errorf("%w: year in %q", ErrSyntax, text)
	}
	bt.Year = uint16(year)
	if len(parts) > 1 {
		day, err := component(parts[1], 0xffff)
		if err != nil {
			return Btime{}, fmt.Errorf("%w: day in %q", ErrSyntax, text)
		}
		bt.Day = uint16(day)
	}
	if len(parts) < 3 {
		return bt, nil
	}

	clock, frac, hasFrac := strings.Cut(parts[2], ".")
	hms := strings.Split(clock, ":")
	if len(hms) > 3 {
		return Btime{}, fmt.Errorf("%w: %q", ErrSyntax, text)
	}
	fields := []*uint8{&bt.Hour, &bt.Minute, &bt.Second}
	for i, p := range hms {
		v, err := component(p, 0xff)
		if err != nil {
			return Btime{}, fmt.Errorf("%w: clock in %q", ErrSyntax, text)
		}
		*fields[i] = uint8(v)
	}
	if hasFrac {
		if len(hms) != 3 {
			return Btime{}, fmt.Errorf("%w: fraction without seconds in %q", ErrSyntax, text)
		}
		f, err := fraction(frac)
		if err != nil {
			return Btime{}, fmt.Errorf("%w: fraction in %q", ErrSyntax, text)
		}
		bt.Fraction = f
	}
	return bt, nil
}

func component(s string, max uint64) (uint64, error) {
	if s == "" {
		return 0, ErrSyntax
	}
	return strconv.ParseUint(s, 10, bitsFor(max))
}

func bitsFor(max uint64) int {
	if max <= 0xff {
		return 8
	}
	return 16
}

// fraction reads decimal digits as ten-thousandths, padding short input and
// truncating digits past the fourth.
func fraction(s string) (uint16, error) {
	if s == "" {
		return 0, nil
	}
	if len(s) > 4 {
		s = s[:4]
	}
	for len(s) < 4 {
		s += "0"
	}
	v, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}

// MarshalText implements encoding.TextMarshaler.
func (bt Btime) MarshalText() ([]byte, error) {
	return []byte(bt.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (bt *Btime) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*bt = v
	return nil
}
