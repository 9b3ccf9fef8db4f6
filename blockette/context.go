// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

package blockette

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Word orders accepted by BinaryOptions.
const (
	EndianBig    = "big"
	EndianLittle = "little"
	// EndianAuto is only valid for TimeEndian: the order is chosen per
	// time structure from the plausibility of its year.
	EndianAuto = "auto"
)

// DecodeContext maintains state during decoding.
type DecodeContext struct {
	Data   []byte
	Offset int
	Endian string
}

// NewDecodeContext creates a new decode context.
func NewDecodeContext(data []byte, endian string) *DecodeContext {
	if endian == "" {
		endian = EndianBig
	}
	return &DecodeContext{
		Data:   data,
		Offset: 0,
		Endian: endian,
	}
}

// Remaining returns the number of bytes remaining.
func (ctx *DecodeContext) Remaining() int {
	return len(ctx.Data) - ctx.Offset
}

// Read reads n bytes and advances the offset.
func (ctx *DecodeContext) Read(n int) ([]byte, error) {
	if ctx.Offset+n > len(ctx.Data) {
		return nil, fmt.Errorf("buffer underflow: need %d bytes at offset %d, but only %d remaining",
			n, ctx.Offset, ctx.Remaining())
	}
	result := ctx.Data[ctx.Offset : ctx.Offset+n]
	ctx.Offset += n
	return result, nil
}

// Peek reads n bytes without advancing the offset.
func (ctx *DecodeContext) Peek(n int, offset int) ([]byte, error) {
	pos := ctx.Offset + offset
	if pos < 0 || pos+n > len(ctx.Data) {
		return nil, fmt.Errorf("buffer underflow at peek offset %d", pos)
	}
	return ctx.Data[pos : pos+n], nil
}

// IndexTerminator returns the distance from the offset to the first '~'
// within limit bytes, or -1.
func (ctx *DecodeContext) IndexTerminator(limit int) int {
	end := ctx.Offset + limit
	if end > len(ctx.Data) {
		end = len(ctx.Data)
	}
	if end <= ctx.Offset {
		return -1
	}
	return bytes.IndexByte(ctx.Data[ctx.Offset:end], terminator)
}

// EncodeContext maintains state during encoding.
type EncodeContext struct {
	Buffer []byte
	Endian string
}

// NewEncodeContext creates a new encode context.
func NewEncodeContext(endian string) *EncodeContext {
	if endian == "" {
		endian = EndianBig
	}
	return &EncodeContext{
		Buffer: make([]byte, 0, 128),
		Endian: endian,
	}
}

// Write appends bytes to the buffer.
func (ctx *EncodeContext) Write(data []byte) {
	ctx.Buffer = append(ctx.Buffer, data...)
}

// WriteString appends text to the buffer.
func (ctx *EncodeContext) WriteString(s string) {
	ctx.Buffer = append(ctx.Buffer, s...)
}

// Len returns the number of bytes written.
func (ctx *EncodeContext) Len() int {
	return len(ctx.Buffer)
}

func byteOrder(endian string) binary.ByteOrder {
	if endian == EndianLittle {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

func validEndian(endian string) bool {
	return endian == "" || endian == EndianBig || endian == EndianLittle
}

func encodeUint(val uint64, length int, endian string) []byte {
	buf := make([]byte, length)
	if endian == EndianLittle {
		for i := 0; i < length; i++ {
			buf[i] = byte(val >> (8 * i))
		}
	} else {
		for i := length - 1; i >= 0; i-- {
			buf[i] = byte(val)
			val >>= 8
		}
	}
	return buf
}

func encodeSint(val int64, length int, endian string) []byte {
	// two's complement within length bytes
	return encodeUint(uint64(val)&(1<<(length*8)-1), length, endian)
}

func encodeFloat32(val float32, endian string) []byte {
	buf := make([]byte, 4)
	byteOrder(endian).PutUint32(buf, math.Float32bits(val))
	return buf
}

func decodeUint(data []byte, endian string) uint64 {
	var val uint64
	if endian == EndianLittle {
		for i := len(data) - 1; i >= 0; i-- {
			val = (val << 8) | uint64(data[i])
		}
	} else {
		for _, b := range data {
			val = (val << 8) | uint64(b)
		}
	}
	return val
}

func decodeSint(data []byte, endian string) int64 {
	uval := decodeUint(data, endian)
	bits := len(data) * 8
	signBit := uint64(1) << (bits - 1)
	if uval >= signBit {
		return int64(uval) - (1 << bits)
	}
	return int64(uval)
}

func decodeFloat32(data []byte, endian string) float64 {
	return float64(math.Float32frombits(byteOrder(endian).Uint32(data)))
}
