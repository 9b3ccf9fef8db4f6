// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

package blockette

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/iris-edu-legacy/java-seed-sub000/btime"
	"github.com/iris-edu-legacy/java-seed-sub000/schema"
)

const volumeIdentifier = "010009502.3121992,001,00:00:00.0000~1992,002,00:00:00.0000~1993,029~IRIS_DMC~Data for 1992,001~"

func TestDecodeVolumeIdentifier(t *testing.T) {
	b, n, err := DecodeBinary([]byte(volumeIdentifier), BinaryOptions{Version: schema.Version23})
	require.NoError(t, err)
	require.Equal(t, 10, b.Type())
	require.Equal(t, "Volume Identifier Blockette", b.Name())
	require.Equal(t, 9, b.NumFields())
	require.Equal(t, len(volumeIdentifier), n)
	require.Equal(t, n, b.Consumed())
	require.False(t, b.IsIncomplete())
	require.Empty(t, b.Diagnostics())

	v, err := b.Value(4)
	require.NoError(t, err)
	require.Equal(t, int64(12), v)

	s, err := b.String(6)
	require.NoError(t, err)
	require.Equal(t, "1992,002,00:00:00.0000", s)

	s, err = b.String(9)
	require.NoError(t, err)
	require.Equal(t, "Data for 1992,001", s)

	v, err = b.Value(3)
	require.NoError(t, err)
	require.InDelta(t, 2.3, v, 1e-9)

	out, err := EncodeBinary(b, BinaryOptions{})
	require.NoError(t, err)
	require.Equal(t, volumeIdentifier, string(out))
}

func TestDecodeVersionBoundsFields(t *testing.T) {
	b, n, err := DecodeBinary([]byte(volumeIdentifier), BinaryOptions{Version: schema.Version20})
	require.NoError(t, err)
	require.Equal(t, 6, b.NumFields())
	require.False(t, b.IsIncomplete())
	// the rest of the declared length is skipped
	require.Equal(t, len(volumeIdentifier), n)

	_, err = b.Value(7)
	require.ErrorIs(t, err, ErrFormat)
}

func TestDecodeRealignsTypeTag(t *testing.T) {
	buf := []byte("X" + volumeIdentifier)
	b, n, err := DecodeBinary(buf, BinaryOptions{})
	require.NoError(t, err)
	require.Equal(t, 10, b.Type())
	require.Equal(t, len(buf), n)
	require.NotEmpty(t, b.Diagnostics())
	require.Equal(t, SeverityWarning, b.Diagnostics()[0].Severity)

	_, _, err = DecodeBinary([]byte("XY"+volumeIdentifier), BinaryOptions{})
	require.ErrorIs(t, err, ErrFormat)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
		opts BinaryOptions
	}{
		{"unknown type", []byte("0070010abc~"), BinaryOptions{}},
		{"empty buffer", nil, BinaryOptions{}},
		{"fixed header tag", []byte("999" + strings.Repeat(" ", 45)), BinaryOptions{}},
		{"metadata read as data record", []byte(volumeIdentifier), BinaryOptions{DataRecord: true}},
		{"data record read as metadata", []byte{0x03, 0xe8, 0, 0, 10, 1, 12, 0}, BinaryOptions{}},
		{"bad word order", []byte(volumeIdentifier), BinaryOptions{Endian: "middle"}},
		{"bad time word order", []byte(volumeIdentifier), BinaryOptions{TimeEndian: "middle"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := DecodeBinary(tt.buf, tt.opts)
			require.ErrorIs(t, err, ErrFormat)
		})
	}
}

func TestDecodeIncomplete(t *testing.T) {
	tests := []struct {
		name     string
		cut      int
		consumed int
		filled   int
	}{
		{"inside fixed field", 12, 11, 3},
		{"inside variable field", 50, 36, 5},
		{"at field boundary", 36, 36, 5},
		{"before last terminator", 94, 77, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := []byte(volumeIdentifier)[:tt.cut]
			b, n, err := DecodeBinary(buf, BinaryOptions{Version: schema.Version23})
			require.NoError(t, err)
			require.True(t, b.IsIncomplete())
			require.Equal(t, tt.consumed, n)
			require.LessOrEqual(t, n, len(buf))
			require.Equal(t, 9, b.NumFields())

			v, err := b.Value(tt.filled)
			require.NoError(t, err)
			require.NotNil(t, v)
			v, err = b.Value(tt.filled + 1)
			require.NoError(t, err)
			require.Nil(t, v)
		})
	}
}

func TestDecodeTerminatorRecovery(t *testing.T) {
	desc := strings.Repeat("A", 60)

	t.Run("length hint finds terminator", func(t *testing.T) {
		buf := []byte("0330071001" + desc + "~")
		b, n, err := DecodeBinary(buf, BinaryOptions{})
		require.NoError(t, err)
		require.False(t, b.IsIncomplete())
		require.Equal(t, len(buf), n)
		s, err := b.String(4)
		require.NoError(t, err)
		require.Equal(t, desc, s)
		require.Len(t, b.Diagnostics(), 2)
	})

	t.Run("no hint marks incomplete", func(t *testing.T) {
		buf := []byte("033    001" + desc + "~")
		b, n, err := DecodeBinary(buf, BinaryOptions{})
		require.NoError(t, err)
		require.True(t, b.IsIncomplete())
		require.Equal(t, 10, n)
	})

	t.Run("hint too short marks incomplete", func(t *testing.T) {
		buf := []byte("0330040001" + desc + "~")
		b, _, err := DecodeBinary(buf, BinaryOptions{})
		require.NoError(t, err)
		require.True(t, b.IsIncomplete())
	})
}

func responseBlockette(t *testing.T) *Blockette {
	t.Helper()
	b, err := New(53)
	require.NoError(t, err)
	require.NoError(t, b.SetValue(3, "A"))
	require.NoError(t, b.SetValue(4, 1))
	require.NoError(t, b.SetValue(5, 2))
	require.NoError(t, b.SetValue(6, 3))
	require.NoError(t, b.SetValue(7, 1.0))
	require.NoError(t, b.SetValue(8, 0.02))
	require.NoError(t, b.AppendGroup(10, 0.0, 0.0, 0.0, 0.0))
	require.NoError(t, b.AppendGroup(10, 1.5, -2.5, 0.0, 0.0))
	require.NoError(t, b.AppendGroup(15, -0.037, 0.037, 0.0, 0.0))
	return b
}

func TestBinaryRoundTripResponse(t *testing.T) {
	b := responseBlockette(t)

	out, err := EncodeBinary(b, BinaryOptions{})
	require.NoError(t, err)
	require.Len(t, out, 190)
	require.Equal(t, "0530190A01002003+1.00000E+00+2.00000E-02002", string(out[:43]))

	d, n, err := DecodeBinary(out, BinaryOptions{})
	require.NoError(t, err)
	require.Equal(t, len(out), n)
	require.False(t, d.IsIncomplete())
	require.Empty(t, d.Diagnostics())

	count, err := d.GroupCount(12)
	require.NoError(t, err)
	require.Equal(t, 2, count)
	v, err := d.ValueAt(11, 1)
	require.NoError(t, err)
	require.Equal(t, -2.5, v)
	v, err = d.ValueAt(15, 0)
	require.NoError(t, err)
	require.Equal(t, -0.037, v)

	again, err := EncodeBinary(d, BinaryOptions{})
	require.NoError(t, err)
	require.Equal(t, out, again)
}

func TestBinaryRoundTripResponseReference(t *testing.T) {
	b, err := New(60)
	require.NoError(t, err)
	require.NoError(t, b.AppendGroup(4, 1, 2, []int64{5, 6}))
	require.NoError(t, b.AppendGroup(4, 2, 1, []int64{7}))

	out, err := EncodeBinary(b, BinaryOptions{})
	require.NoError(t, err)
	require.Equal(t, "06000290201020005000602010007", string(out))

	d, n, err := DecodeBinary(out, BinaryOptions{})
	require.NoError(t, err)
	require.Equal(t, len(out), n)
	l, err := d.List(6, 0)
	require.NoError(t, err)
	require.Equal(t, []int64{5, 6}, l)
	l, err = d.List(6, 1)
	require.NoError(t, err)
	require.Equal(t, []int64{7}, l)

	_, err = d.List(5, 0)
	require.ErrorIs(t, err, ErrFormat)
}

func TestBinaryRoundTripDataOnly(t *testing.T) {
	b, err := New(1000)
	require.NoError(t, err)
	require.NoError(t, b.SetValue(2, 0))
	require.NoError(t, b.SetValue(3, 10))
	require.NoError(t, b.SetValue(4, 1))
	require.NoError(t, b.SetValue(5, 12))
	require.NoError(t, b.SetValue(6, 0))

	tests := []struct {
		endian string
		want   []byte
	}{
		{EndianBig, []byte{0x03, 0xe8, 0, 0, 10, 1, 12, 0}},
		{EndianLittle, []byte{0xe8, 0x03, 0, 0, 10, 1, 12, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.endian, func(t *testing.T) {
			opts := BinaryOptions{Endian: tt.endian, DataRecord: true}
			out, err := EncodeBinary(b, opts)
			require.NoError(t, err)
			require.Equal(t, tt.want, out)

			d, n, err := DecodeBinary(out, opts)
			require.NoError(t, err)
			require.Equal(t, 1000, d.Type())
			require.Equal(t, 8, n)
			text, ok := d.Translate(3)
			require.True(t, ok)
			require.Equal(t, "Steim (1) Compression", text)
		})
	}
}

func TestBinaryRoundTripEventDetection(t *testing.T) {
	b, err := New(201)
	require.NoError(t, err)
	require.NoError(t, b.SetValue(2, 0))
	require.NoError(t, b.SetValue(3, 1.5))
	require.NoError(t, b.SetValue(4, -0.25))
	require.NoError(t, b.SetValue(8, btime.Btime{Year: 1998, Day: 45, Hour: 12, Minute: 30, Fraction: 1234}))
	require.NoError(t, b.SetValue(9, []byte{1, 2, 3, 4, 5, 6}))
	require.NoError(t, b.SetValue(12, "MURDOCK"))

	for _, endian := range []string{EndianBig, EndianLittle} {
		t.Run(endian, func(t *testing.T) {
			opts := BinaryOptions{Endian: endian, DataRecord: true}
			out, err := EncodeBinary(b, opts)
			require.NoError(t, err)
			require.Len(t, out, 2+2+12+2+10+6+2+24)

			d, n, err := DecodeBinary(out, opts)
			require.NoError(t, err)
			require.Equal(t, len(out), n)

			v, err := d.Value(4)
			require.NoError(t, err)
			require.Equal(t, -0.25, v)
			v, err = d.Value(8)
			require.NoError(t, err)
			require.Equal(t, "1998,045,12:30:00.1234", v.(btime.Btime).String())
			v, err = d.Value(9)
			require.NoError(t, err)
			require.Equal(t, []byte{1, 2, 3, 4, 5, 6}, v)
			s, err := d.String(12)
			require.NoError(t, err)
			require.Equal(t, "MURDOCK", s)

			again, err := EncodeBinary(d, opts)
			require.NoError(t, err)
			require.Equal(t, out, again)
		})
	}
}

func TestTimeEndianAuto(t *testing.T) {
	b, err := New(500)
	require.NoError(t, err)
	require.NoError(t, b.SetValue(4, btime.Btime{Year: 1998, Day: 32, Hour: 1}))
	require.NoError(t, b.SetValue(7, 3))

	little, err := EncodeBinary(b, BinaryOptions{DataRecord: true, TimeEndian: EndianLittle})
	require.NoError(t, err)
	require.Equal(t, []byte{0xce, 0x07}, little[8:10])

	d, _, err := DecodeBinary(little, BinaryOptions{DataRecord: true, TimeEndian: EndianAuto})
	require.NoError(t, err)
	v, err := d.Value(4)
	require.NoError(t, err)
	bt := v.(btime.Btime)
	require.True(t, bt.Swapped)
	require.Equal(t, uint16(1998), bt.Year)
	require.Equal(t, uint16(32), bt.Day)

	again, err := EncodeBinary(d, BinaryOptions{DataRecord: true, TimeEndian: EndianAuto})
	require.NoError(t, err)
	require.Equal(t, little, again)
}

func TestOpaqueData(t *testing.T) {
	b, err := New(2000)
	require.NoError(t, err)
	require.NoError(t, b.SetValue(2, 0))
	require.NoError(t, b.SetValue(5, 7))
	require.NoError(t, b.SetValue(6, 1))
	require.NoError(t, b.SetValue(7, 0))
	require.NoError(t, b.AppendGroup(9, "HDR1"))
	require.NoError(t, b.AppendGroup(9, "X"))
	b.SetPayload(&Payload{Data: []byte{1, 2, 3, 4, 5}})

	opts := BinaryOptions{DataRecord: true}
	out, err := EncodeBinary(b, opts)
	require.NoError(t, err)
	require.Len(t, out, 27)
	require.Equal(t, []byte{0, 27, 0, 22}, out[4:8])
	require.Equal(t, "HDR1~X~", string(out[15:22]))

	d, n, err := DecodeBinary(out, opts)
	require.NoError(t, err)
	require.Equal(t, 27, n)
	require.False(t, d.IsIncomplete())
	require.NotNil(t, d.Payload())
	require.Equal(t, []byte{1, 2, 3, 4, 5}, d.Payload().Data)
	s, err := d.StringAt(9, 1)
	require.NoError(t, err)
	require.Equal(t, "X", s)

	again, err := EncodeBinary(d, opts)
	require.NoError(t, err)
	require.Equal(t, out, again)

	t.Run("truncated payload", func(t *testing.T) {
		d, n, err := DecodeBinary(out[:24], opts)
		require.NoError(t, err)
		require.True(t, d.IsIncomplete())
		require.Equal(t, 22, n)
		require.Nil(t, d.Payload())
	})

	t.Run("detach", func(t *testing.T) {
		p := d.DetachPayload()
		require.NotNil(t, p)
		require.Nil(t, d.Payload())
	})
}

func TestLengthFieldOverflow(t *testing.T) {
	b, err := New(30)
	require.NoError(t, err)
	require.NoError(t, b.SetValue(3, "FORMAT"))
	require.NoError(t, b.SetValue(4, 1))
	require.NoError(t, b.SetValue(5, 50))
	long := strings.Repeat("K", 9000)
	require.NoError(t, b.AppendGroup(7, long))
	require.NoError(t, b.AppendGroup(7, long))

	_, err = EncodeBinary(b, BinaryOptions{})
	require.ErrorIs(t, err, ErrInput)
}

func TestLenientInput(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	c := NewCodec(Options{Logger: zap.New(core)})

	b, err := c.FromText("34|^|1|m/s|meters per second", TextOptions{})
	require.NoError(t, err)
	s, err := b.String(4)
	require.NoError(t, err)
	require.Equal(t, "m/s", s)
	require.Len(t, b.Diagnostics(), 1)
	require.Equal(t, 4, b.Diagnostics()[0].Field)
	require.Equal(t, 1, logs.Len())
	require.Equal(t, 34, int(logs.All()[0].ContextMap()["blockette"].(int64)))

	b, err = c.FromText("52|^|  |BHZX", TextOptions{})
	require.NoError(t, err)
	s, err = b.String(4)
	require.NoError(t, err)
	require.Equal(t, "BHZ", s)
	require.True(t, b.IsIncomplete())

	b, err = c.FromText("33|^|abc|Description", TextOptions{})
	require.NoError(t, err)
	v, err := b.Value(3)
	require.NoError(t, err)
	require.Equal(t, int64(0), v)

	require.NoError(t, b.SetValue(3, 12345))
	v, err = b.Value(3)
	require.NoError(t, err)
	require.Equal(t, int64(0), v)
}

func TestDiagnosticKeepsPercent(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	c := NewCodec(Options{Logger: zap.New(core)})

	b, err := c.FromText("34|^|1|m%s|meters per second", TextOptions{})
	require.NoError(t, err)
	diags := b.Diagnostics()
	require.Len(t, diags, 1)
	require.Contains(t, diags[0].Message, "character '%' at 1")
	require.NotContains(t, diags[0].Message, "%!")
	require.Equal(t, 1, logs.Len())
	require.Equal(t, diags[0].Message, logs.All()[0].Message)
}

func TestStrictInput(t *testing.T) {
	c := NewCodec(Options{Strict: true})
	require.True(t, c.Strict())

	tests := []struct {
		name string
		text string
	}{
		{"character class", "34|^|1|m/s|meters per second"},
		{"oversize fixed alpha", "52|^|  |BHZX"},
		{"not a number", "33|^|abc|Description"},
		{"bad time", "10|^|2.3|12|yesterday"},
		{"extra tokens", "33|^|1|Description|surplus"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.FromText(tt.text, TextOptions{})
			require.ErrorIs(t, err, ErrInput)
		})
	}

	b, err := c.New(33, 0)
	require.NoError(t, err)
	require.ErrorIs(t, b.SetValue(3, 12345), ErrInput)
	require.ErrorIs(t, b.SetValue(4, "tilde~inside"), ErrInput)
}

func TestFixedHeader(t *testing.T) {
	b, err := FromText("999|D|1900|ANMO|  |BHZ|IU|1998,001|3849|20|1|68|12|144|0|2829|256|0", TextOptions{})
	require.NoError(t, err)

	opts := BinaryOptions{}
	out, err := EncodeBinary(b, opts)
	require.NoError(t, err)
	require.Len(t, out, FixedHeaderSize)
	require.Equal(t, "001900D ANMO   BHZIU", string(out[:20]))
	require.Equal(t, []byte{0x07, 0xce, 0, 1}, out[20:24])
	require.Equal(t, []byte{0x0f, 0x09}, out[30:32])
	require.Equal(t, []byte{0, 0, 0x0b, 0x0d}, out[40:44])
	require.Equal(t, []byte{0x01, 0x00}, out[44:46])

	d, err := FromFixedHeader(out, opts)
	require.NoError(t, err)
	require.Equal(t, FixedHeaderType, d.Type())
	require.Equal(t, FixedHeaderSize, d.Consumed())
	for n := 1; n <= b.NumFields(); n++ {
		want, err := b.Value(n)
		require.NoError(t, err)
		got, err := d.Value(n)
		require.NoError(t, err)
		require.Equal(t, want, got, "field %d", n)
	}

	_, err = FromFixedHeader(out[:47], opts)
	require.ErrorIs(t, err, ErrFormat)

	other, err := New(33)
	require.NoError(t, err)
	_, err = DefaultCodec().FixedHeader(other, opts)
	require.ErrorIs(t, err, ErrFormat)
}
