// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

package blockette

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iris-edu-legacy/java-seed-sub000/schema"
)

func requireSameValues(t *testing.T, want, got *Blockette) {
	t.Helper()
	require.Equal(t, want.Type(), got.Type())
	require.Equal(t, want.NumFields(), got.NumFields())
	for n := 1; n <= want.NumFields(); n++ {
		w, err := want.Value(n)
		require.NoError(t, err)
		g, err := got.Value(n)
		require.NoError(t, err)
		require.Equal(t, w, g, "blockette %d field %d", want.Type(), n)
	}
}

func TestToTextVolumeIdentifier(t *testing.T) {
	b, _, err := DecodeBinary([]byte(volumeIdentifier), BinaryOptions{Version: schema.Version23})
	require.NoError(t, err)

	text, err := ToText(b, TextOptions{})
	require.NoError(t, err)
	require.Equal(t, "10|95|02.3|12|1992,001,00:00:00.0000|1992,002,00:00:00.0000|1993,029|IRIS_DMC|Data for 1992,001", text)

	back, err := FromText(text, TextOptions{Version: schema.Version23})
	require.NoError(t, err)
	require.False(t, back.IsIncomplete())
	requireSameValues(t, b, back)
}

func TestFromTextFixedHeader(t *testing.T) {
	b, err := FromText("999|D|1900|ANMO|  |BHZ|IU|1998,001|3849|20|1|68|12|144|0|2829|256|0", TextOptions{})
	require.NoError(t, err)
	require.Equal(t, FixedHeaderType, b.Type())
	require.False(t, b.IsIncomplete())

	s, err := b.String(4)
	require.NoError(t, err)
	require.Equal(t, "ANMO", s)

	text, ok := b.Translate(2)
	require.True(t, ok)
	require.Equal(t, "Default data (might be QC'd, might not be)", text)

	s, err = b.String(8)
	require.NoError(t, err)
	require.Equal(t, "1998,001,00:00:00.0000", s)
}

func TestTextRoundTripGroups(t *testing.T) {
	tests := []struct {
		name  string
		zeros int
		poles int
	}{
		{"no groups", 0, 0},
		{"one group", 1, 0},
		{"several groups", 3, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := New(53)
			require.NoError(t, err)
			require.NoError(t, b.SetValue(3, "A"))
			require.NoError(t, b.SetValue(4, 1))
			require.NoError(t, b.SetValue(5, 2))
			require.NoError(t, b.SetValue(6, 3))
			require.NoError(t, b.SetValue(7, 1.0))
			require.NoError(t, b.SetValue(8, 0.02))
			for i := 0; i < tt.zeros; i++ {
				require.NoError(t, b.AppendGroup(10, float64(i), 0.25, 0.0, 0.0))
			}
			for i := 0; i < tt.poles; i++ {
				require.NoError(t, b.AppendGroup(15, -0.037*float64(i+1), 0.037, 1e-5, 0.0))
			}

			text, err := ToText(b, TextOptions{})
			require.NoError(t, err)
			back, err := FromText(text, TextOptions{})
			require.NoError(t, err)
			require.False(t, back.IsIncomplete())
			requireSameValues(t, b, back)

			again, err := ToText(back, TextOptions{})
			require.NoError(t, err)
			require.Equal(t, text, again)
		})
	}
}

func TestToTextEmptyGroups(t *testing.T) {
	b, err := New(53)
	require.NoError(t, err)
	require.NoError(t, b.SetValue(3, "A"))
	require.NoError(t, b.SetValue(4, 1))
	require.NoError(t, b.SetValue(5, 2))
	require.NoError(t, b.SetValue(6, 3))
	require.NoError(t, b.SetValue(7, 1.0))
	require.NoError(t, b.SetValue(8, 0.02))

	text, err := ToText(b, TextOptions{})
	require.NoError(t, err)
	require.Equal(t, "53|^|A|1|2|3|+1.00000E+00|+2.00000E-02|0|^|0|^", text)

	text, err = ToText(b, TextOptions{Delimiter: "\t", Blank: "NULL"})
	require.NoError(t, err)
	require.Equal(t, "53\tNULL\tA\t1\t2\t3\t+1.00000E+00\t+2.00000E-02\t0\tNULL\t0\tNULL", text)

	back, err := FromText(text, TextOptions{Delimiter: "\t", Blank: "NULL"})
	require.NoError(t, err)
	requireSameValues(t, b, back)
}

func TestTextRoundTripLists(t *testing.T) {
	const text = "60|^|2|1|2|5,6|2|1|7"
	b, err := FromText(text, TextOptions{})
	require.NoError(t, err)
	require.False(t, b.IsIncomplete())

	l, err := b.List(6, 0)
	require.NoError(t, err)
	require.Equal(t, []int64{5, 6}, l)

	again, err := ToText(b, TextOptions{})
	require.NoError(t, err)
	require.Equal(t, text, again)
}

func TestToTextDelimiterCollision(t *testing.T) {
	opts := TextOptions{Delimiter: ",", Blank: "NONE"}
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"delimiter inside", "A,B", "A B"},
		{"blank marker", "NONE", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := New(10)
			require.NoError(t, err)
			require.NoError(t, b.SetValue(9, tt.value))
			before := len(b.Diagnostics())

			text, err := ToText(b, opts)
			require.NoError(t, err)
			diags := b.Diagnostics()
			require.Len(t, diags, before+1)
			require.Equal(t, 9, diags[before].Field)

			back, err := FromText(text, opts)
			require.NoError(t, err)
			s, err := back.String(9)
			require.NoError(t, err)
			require.Equal(t, tt.want, s)

			c := NewCodec(Options{Strict: true})
			sb, err := c.New(10, 0)
			require.NoError(t, err)
			require.NoError(t, sb.SetValue(9, tt.value))
			_, err = c.ToText(sb, opts)
			require.ErrorIs(t, err, ErrInput)
		})
	}
}

func TestFromTextVersion(t *testing.T) {
	b, err := FromText("10|^|2.3|12|1992,001|1992,002", TextOptions{Version: schema.Version20})
	require.NoError(t, err)
	require.Equal(t, 6, b.NumFields())
	require.False(t, b.IsIncomplete())

	b, err = FromText("10|^|2.3|12|1992,001|1992,002", TextOptions{})
	require.NoError(t, err)
	require.Equal(t, 9, b.NumFields())
	require.True(t, b.IsIncomplete())
}

func TestFromTextErrors(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		version schema.Version
		err     error
	}{
		{"bad type token", "abc|1", 0, ErrFormat},
		{"unknown type", "7|1", 0, ErrFormat},
		{"type before introduction", "2000|0", schema.Version23, ErrFormat},
		{"too few tokens for groups", "53|^|A|1|2|3|1.0|1.0|2|0|0|0|0", 0, ErrInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromText(tt.text, TextOptions{Version: tt.version})
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestFromTextStopsAtFieldBoundary(t *testing.T) {
	b, err := FromText("53|^|A\r\n", TextOptions{})
	require.NoError(t, err)
	require.True(t, b.IsIncomplete())
	s, err := b.String(3)
	require.NoError(t, err)
	require.Equal(t, "A", s)

	text, err := ToText(b, TextOptions{})
	require.NoError(t, err)
	require.Equal(t, "53|^|A", text)
}
