// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

package blockette

// Payload is an opaque byte payload attached to a blockette: encoded
// waveform samples behind a data header, or the opaque data of blockette
// 2000. The codec stores and serializes it without interpretation.
type Payload struct {
	Data []byte
	// Samples and Encoding describe waveform data; both are zero for
	// opaque blockette data.
	Samples  int
	Encoding string
}

// Clone returns a deep copy.
func (p *Payload) Clone() *Payload {
	if p == nil {
		return nil
	}
	c := *p
	c.Data = append([]byte(nil), p.Data...)
	return &c
}

// WaveformCodec compresses and expands waveform samples. Implementations
// live outside this package.
type WaveformCodec interface {
	Encode(samples []int32, encoding string) (*Payload, error)
	Decode(p *Payload) ([]int32, error)
}

// Resolver finds a dictionary blockette by lookup id.
type Resolver interface {
	Lookup(id int) (*Blockette, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(id int) (*Blockette, error)

// Lookup implements Resolver.
func (f ResolverFunc) Lookup(id int) (*Blockette, error) {
	return f(id)
}
