// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

// Package btime implements the 10-byte SEED binary time structure and its
// canonical "YYYY,DDD,HH:MM:SS.FFFF" text form.
package btime

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
)

// Size is the encoded length of a Btime.
const Size = 10

// Plausible year range used to detect byte-swapped input.
const (
	MinPlausibleYear = 1900
	MaxPlausibleYear = 2050
)

const (
	secondsPerDay   = 86400
	ticksPerSecond  = 10000
	epochYear       = 1970
	maxFraction     = 9999
	maxLeapSecond   = 60
	ticksPerDay     = secondsPerDay * ticksPerSecond
	nanosPerTick    = int64(time.Second) / ticksPerSecond
	unusedByteIndex = 7
)

var (
	// ErrShort reports a buffer shorter than Size.
	ErrShort = errors.New("btime: buffer too short")
	// ErrSyntax reports unparsable time text.
	ErrSyntax = errors.New("btime: bad time text")
	// ErrRange reports a component outside its valid range.
	ErrRange = errors.New("btime: value out of range")
)

// Btime is a SEED binary time. Fraction is in ten-thousandths of a second.
type Btime struct {
	Year     uint16
	Day      uint16
	Hour     uint8
	Minute   uint8
	Second   uint8
	Fraction uint16
	// Swapped is set by DecodeAuto when the buffer was little endian.
	Swapped bool
}

// IsLeap reports whether year is a Gregorian leap year.
func IsLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInYear returns 366 for leap years, 365 otherwise.
func DaysInYear(year int) int {
	if IsLeap(year) {
		return 366
	}
	return 365
}

// Decode reads a Btime from the first Size bytes of b.
func Decode(b []byte, order binary.ByteOrder) (Btime, error) {
	if len(b) < Size {
		return Btime{}, fmt.Errorf("%w: need %d bytes, have %d", ErrShort, Size, len(b))
	}
	return Btime{
		Year:     order.Uint16(b[0:2]),
		Day:      order.Uint16(b[2:4]),
		Hour:     b[4],
		Minute:   b[5],
		Second:   b[6],
		Fraction: order.Uint16(b[8:10]),
	}, nil
}

// DecodeAuto reads a Btime, choosing the byte order whose year falls in the
// plausible range. Big endian wins when both or neither are plausible.
func DecodeAuto(b []byte) (Btime, error) {
	bt, err := Decode(b, binary.BigEndian)
	if err != nil {
		return Btime{}, err
	}
	if plausible(bt.Year) {
		return bt, nil
	}
	swapped, _ := Decode(b, binary.LittleEndian)
	if !plausible(swapped.Year) {
		return bt, nil
	}
	swapped.Swapped = true
	return swapped, nil
}

func plausible(year uint16) bool {
	return year >= MinPlausibleYear && year <= MaxPlausibleYear
}

// Encode writes the Btime in the given byte order.
func (bt Btime) Encode(order binary.ByteOrder) []byte {
	b := make([]byte, Size)
	bt.Put(b, order)
	return b
}

// Put writes the Btime into the first Size bytes of b.
func (bt Btime) Put(b []byte, order binary.ByteOrder) {
	order.PutUint16(b[0:2], bt.Year)
	order.PutUint16(b[2:4], bt.Day)
	b[4] = bt.Hour
	b[5] = bt.Minute
	b[6] = bt.Second
	b[unusedByteIndex] = 0
	order.PutUint16(b[8:10], bt.Fraction)
}

// Validate checks every component range and returns all violations.
func (bt Btime) Validate() error {
	var errs error
	if bt.Day < 1 || int(bt.Day) > DaysInYear(int(bt.Year)) {
		errs = multierr.Append(errs, fmt.Errorf("%w: day %d of year %d", ErrRange, bt.Day, bt.Year))
	}
	if bt.Hour > 23 {
		errs = multierr.Append(errs, fmt.Errorf("%w: hour %d", ErrRange, bt.Hour))
	}
	if bt.Minute > 59 {
		errs = multierr.Append(errs, fmt.Errorf("%w: minute %d", ErrRange, bt.Minute))
	}
	if bt.Second > maxLeapSecond {
		errs = multierr.Append(errs, fmt.Errorf("%w: second %d", ErrRange, bt.Second))
	}
	if bt.Fraction > maxFraction {
		errs = multierr.Append(errs, fmt.Errorf("%w: fraction %d", ErrRange, bt.Fraction))
	}
	return errs
}

// daysBefore returns the days between Jan 1 1970 and Jan 1 of year.
func daysBefore(year int) int64 {
	var days int64
	for y := epochYear; y < year; y++ {
		days += int64(DaysInYear(y))
	}
	for y := year; y < epochYear; y++ {
		days -= int64(DaysInYear(y))
	}
	return days
}

// EpochSeconds returns whole seconds since 1970-01-01T00:00:00.
func (bt Btime) EpochSeconds() int64 {
	days := daysBefore(int(bt.Year)) + int64(bt.Day) - 1
	return days*secondsPerDay + int64(bt.Hour)*3600 + int64(bt.Minute)*60 + int64(bt.Second)
}

func (bt Btime) ticks() int64 {
	return bt.EpochSeconds()*ticksPerSecond + int64(bt.Fraction)
}

func fromTicks(ticks int64) Btime {
	days := floorDiv(ticks, ticksPerDay)
	rem := ticks - days*ticksPerDay

	year := epochYear
	for days < 0 {
		year--
		days += int64(DaysInYear(year))
	}
	for days >= int64(DaysInYear(year)) {
		days -= int64(DaysInYear(year))
		year++
	}

	secs := rem / ticksPerSecond
	return Btime{
		Year:     uint16(year),
		Day:      uint16(days + 1),
		Hour:     uint8(secs / 3600),
		Minute:   uint8(secs % 3600 / 60),
		Second:   uint8(secs % 60),
		Fraction: uint16(rem % ticksPerSecond),
	}
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// Project returns the time advanced by delta ten-thousandths of a second.
// Negative deltas move backwards.
func (bt Btime) Project(delta int64) Btime {
	return fromTicks(bt.ticks() + delta)
}

// Compare returns -1, 0 or +1 as a is before, equal to or after b.
func Compare(a, b Btime) int {
	if d := a.EpochSeconds() - b.EpochSeconds(); d != 0 {
		if d < 0 {
			return -1
		}
		return 1
	}
	switch {
	case a.Fraction < b.Fraction:
		return -1
	case a.Fraction > b.Fraction:
		return 1
	}
	return 0
}

// Time converts to a UTC time.Time.
func (bt Btime) Time() time.Time {
	return time.Unix(bt.EpochSeconds(), int64(bt.Fraction)*nanosPerTick).UTC()
}

// FromTime converts a time.Time, truncating below a ten-thousandth.
func FromTime(t time.Time) Btime {
	t = t.UTC()
	return Btime{
		Year:     uint16(t.Year()),
		Day:      uint16(t.YearDay()),
		Hour:     uint8(t.Hour()),
		Minute:   uint8(t.Minute()),
		Second:   uint8(t.Second()),
		Fraction: uint16(int64(t.Nanosecond()) / nanosPerTick),
	}
}
