// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

package numfmt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompile(t *testing.T) {
	tests := []struct {
		mask   string
		kind   Kind
		signed bool
		intD   int
		fracD  int
		expD   int
	}{
		{"####", Integer, false, 4, 0, 0},
		{"##.#", Float, false, 2, 1, 0},
		{"-##.######", Float, true, 2, 6, 0},
		{"#.####E-##", Exponential, false, 1, 4, 2},
		{"-#.#####E-##", Exponential, true, 1, 5, 2},
		{"-#.#######E-##", Exponential, true, 1, 7, 2},
	}
	for _, tt := range tests {
		t.Run(tt.mask, func(t *testing.T) {
			m, err := Compile(tt.mask)
			require.NoError(t, err)
			require.Equal(t, tt.kind, m.Kind)
			require.Equal(t, tt.signed, m.Signed)
			require.Equal(t, tt.intD, m.IntDigits)
			require.Equal(t, tt.fracD, m.FracDigits)
			require.Equal(t, tt.expD, m.ExpDigits)
			require.Equal(t, len(tt.mask), m.Width())
		})
	}
}

func TestCompileErrors(t *testing.T) {
	for _, mask := range []string{"", "-", "abc", "#.#.#", "#E", "#.##E-x#", ".##"} {
		t.Run(mask, func(t *testing.T) {
			_, err := Compile(mask)
			require.ErrorIs(t, err, ErrMask)
		})
	}
}

func TestFormat(t *testing.T) {
	f, err := New(16, 16)
	require.NoError(t, err)

	tests := []struct {
		name  string
		mask  string
		width int
		value any
		want  string
	}{
		{"zero padded integer", "####", 4, int64(95), "0095"},
		{"integer from int", "###", 3, 10, "010"},
		{"integer rounds float", "####", 4, 2.6, "0003"},
		{"negative integer", "####", 4, int64(-5), "-005"},
		{"zero padded float", "##.#", 4, 2.3, "02.3"},
		{"signed latitude", "-##.######", 10, 34.9459, "+34.945900"},
		{"negative latitude", "-##.######", 10, -34.9459, "-34.945900"},
		{"signed elevation", "-####.#", 7, 1850.0, "+1850.0"},
		{"longitude", "-###.######", 11, -106.457133, "-106.457133"},
		{"unsigned exponential", "#.####E-##", 10, 20.0, "2.0000E+01"},
		{"signed exponential", "-#.#####E-##", 12, 1.0, "+1.00000E+00"},
		{"negative exponent", "-#.#####E-##", 12, -0.00125, "-1.25000E-03"},
		{"zero exponential", "-#.#####E-##", 12, 0.0, "+0.00000E+00"},
		{"float32 exponential", "#.####E-##", 10, float32(40), "4.0000E+01"},
		{"sign dropped on overflow", "-#.####E-##", 11, 1e-100, "1.0000E-100"},
		{"natural width", "-#.#####E-##", 0, 2.5, "+2.50000E+00"},
		{"wide exponential", "#.####E-##", 12, 1.5, "  1.5000E+00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.Format(tt.mask, tt.width, tt.value)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.Len(t, got, len(tt.want))

			// second call goes through the value cache
			again, err := f.Format(tt.mask, tt.width, tt.value)
			require.NoError(t, err)
			require.Equal(t, got, again)
		})
	}
}

func TestFormatOverflow(t *testing.T) {
	f := Default()
	tests := []struct {
		name  string
		mask  string
		width int
		value any
	}{
		{"integer too wide", "####", 4, int64(12345)},
		{"negative unsigned exponential", "#.####E-##", 10, -20.0},
		{"float too wide", "##.#", 4, 123.4},
		{"negative three digit exponent", "-#.####E-##", 11, -1e-100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Format(tt.mask, tt.width, tt.value)
			require.ErrorIs(t, err, ErrOverflow)
		})
	}

	_, err := f.Format("####", 4, "12")
	require.ErrorIs(t, err, ErrSyntax)
	_, err = f.Format("bad", 4, 1)
	require.ErrorIs(t, err, ErrMask)
}

func TestParse(t *testing.T) {
	f := Default()
	tests := []struct {
		mask string
		text string
		want any
	}{
		{"####", "0095", int64(95)},
		{"####", " 95 ", int64(95)},
		{"####", "+12", int64(12)},
		{"####", "12.0", int64(12)},
		{"##.#", "02.3", 2.3},
		{"-##.######", "+34.945900", 34.9459},
		{"#.####E-##", "2.0000E+01", 20.0},
		{"-#.#####E-##", "-1.25000E-03", -0.00125},
		{"-#.####E-##", "1.0000E-100", 1e-100},
	}
	for _, tt := range tests {
		t.Run(tt.mask+" "+tt.text, func(t *testing.T) {
			got, err := f.Parse(tt.mask, tt.text)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	for _, text := range []string{"", "   ", "abc", "1.5"} {
		_, err := f.Parse("####", text)
		require.ErrorIs(t, err, ErrSyntax, "text %q", text)
	}
	_, err := f.Parse("-##.##", "1,5")
	require.ErrorIs(t, err, ErrSyntax)
}

func TestFormatParseInverse(t *testing.T) {
	f := Default()
	for _, v := range []float64{0, 1, -1, 3.14159, 1e-7, -2.5e12, 6.02214e23} {
		s, err := f.Format("-#.#####E-##", 12, v)
		require.NoError(t, err)
		got, err := f.Parse("-#.#####E-##", s)
		require.NoError(t, err)
		require.InEpsilon(t, v+1e-300, got.(float64)+1e-300, 1e-5, "value %v rendered %q", v, s)
	}
}

func TestMaskCache(t *testing.T) {
	f, err := New(0, 0)
	require.NoError(t, err)
	a, err := f.Mask("-##.######")
	require.NoError(t, err)
	b, err := f.Mask("-##.######")
	require.NoError(t, err)
	require.Same(t, a, b)
}
