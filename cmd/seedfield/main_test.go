// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func run(t *testing.T, in []byte, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd("test")
	var out bytes.Buffer
	cmd.SetArgs(args)
	cmd.SetIn(bytes.NewReader(in))
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, nil, "version")
	require.NoError(t, err)
	require.Equal(t, "seedfield version test\n", out)
}

func TestSchema(t *testing.T) {
	out, err := run(t, nil, "schema", "10")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "010\tVolume Identifier Blockette"))

	out, err = run(t, nil, "schema")
	require.NoError(t, err)
	require.Contains(t, out, "Response (Poles & Zeros) Blockette")
	require.Contains(t, out, "Data Only SEED Blockette")

	_, err = run(t, nil, "schema", "7")
	require.Error(t, err)
	_, err = run(t, nil, "schema", "seven")
	require.Error(t, err)
}

func TestEncodeDecode(t *testing.T) {
	const line = "10|95|02.3|12|1992,001,00:00:00.0000|1992,002,00:00:00.0000|1993,029|IRIS_DMC|Data for 1992,001"
	const record = "010009502.3121992,001,00:00:00.0000~1992,002,00:00:00.0000~1993,029~IRIS_DMC~Data for 1992,001~"

	input := "# volume header\n\n" + line + "\n" + line + "\n"
	out, err := run(t, []byte(input), "encode", "--seed-version", "2.3")
	require.NoError(t, err)
	require.Equal(t, record+record, out)

	out, err = run(t, []byte(out+"   \n"), "decode", "--seed-version", "2.3")
	require.NoError(t, err)
	require.Equal(t, line+"\n"+line+"\n", out)
}

func TestDecodeIncomplete(t *testing.T) {
	const record = "010009502.3121992,001,00:00:00.0000~1992,002,00:00:00.0000~1993,029~IRIS_DMC~Data for 1992,001~"
	out, err := run(t, []byte(record[:40]), "decode", "--seed-version", "2.3")
	require.NoError(t, err)
	require.Equal(t, "10|95|02.3|12|1992,001,00:00:00.0000\n", out)
}

func TestFixedHeaderRecord(t *testing.T) {
	input := "999|D|1900|ANMO|  |BHZ|IU|1998,001|3849|20|1|68|12|144|0|2829|256|0\n1000|0|10|1|12|0\n"
	bin, err := run(t, []byte(input), "encode")
	require.NoError(t, err)
	require.Len(t, bin, 48+8)

	out, err := run(t, []byte(bin), "decode", "--fixed-header", "--delimiter", ",", "--blank", "-")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, "1000,0,10,1,12,0", lines[1])
	require.True(t, strings.HasPrefix(lines[0], "999,D,1900,ANMO,,BHZ,IU,"))
}

func TestBadFlags(t *testing.T) {
	_, err := run(t, nil, "decode", "--endian", "middle")
	require.Error(t, err)

	_, err = run(t, []byte("33|^|abc|Description\n"), "encode", "--strict")
	require.Error(t, err)
}
