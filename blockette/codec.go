// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

// Package blockette decodes and encodes SEED blockettes between their binary
// record form, a delimited text form, and an editable field collection.
package blockette

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/iris-edu-legacy/java-seed-sub000/numfmt"
	"github.com/iris-edu-legacy/java-seed-sub000/schema"
)

// Options configures a Codec. Zero values select the defaults.
type Options struct {
	Registry  *schema.Registry
	Formatter *numfmt.Formatter
	Logger    *zap.Logger
	// Strict turns input errors into failures instead of diagnostics.
	Strict bool
	// Version is the SEED version used when a call does not name one.
	Version schema.Version
}

// Codec converts blockettes. It holds no per-call state and is safe for
// concurrent use; the blockettes it returns are not.
type Codec struct {
	reg     *schema.Registry
	nf      *numfmt.Formatter
	sugar   *zap.SugaredLogger
	strict  bool
	version schema.Version
}

// NewCodec creates a codec.
func NewCodec(opts Options) *Codec {
	c := &Codec{
		reg:     opts.Registry,
		nf:      opts.Formatter,
		strict:  opts.Strict,
		version: opts.Version,
	}
	if c.reg == nil {
		c.reg = schema.Default()
	}
	if c.nf == nil {
		c.nf = numfmt.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	c.sugar = logger.Sugar()
	if c.version == 0 {
		c.version = schema.DefaultVersion
	}
	return c
}

var (
	defaultCodecOnce sync.Once
	defaultCodec     *Codec
)

// DefaultCodec returns a shared lenient codec that discards its log.
func DefaultCodec() *Codec {
	defaultCodecOnce.Do(func() {
		defaultCodec = NewCodec(Options{})
	})
	return defaultCodec
}

// Registry returns the schema registry of the codec.
func (c *Codec) Registry() *schema.Registry {
	return c.reg
}

// Strict reports whether input errors are fatal.
func (c *Codec) Strict() bool {
	return c.strict
}

func (c *Codec) resolveVersion(v schema.Version) schema.Version {
	if v == 0 {
		return c.version
	}
	return v
}

// New creates a blank blockette of the given type with every field null.
func (c *Codec) New(typ int, version schema.Version) (*Blockette, error) {
	b, err := c.newBlockette(typ, c.resolveVersion(version))
	if err != nil {
		return nil, err
	}
	t := b.def
	for n := 1; n <= b.numFields; n++ {
		if t.Fields[n].IsRepeating() {
			b.slots[n] = newGroupSlot(t.Fields[n])
		}
	}
	b.slots[1] = scalarSlot(int64(typ))
	for n := 2; n <= b.numFields; n++ {
		// group counts start at zero
		if c.isCountField(t, n) {
			b.slots[n] = scalarSlot(int64(0))
		}
	}
	b.filled = b.numFields
	return b, nil
}

func (c *Codec) newBlockette(typ int, v schema.Version) (*Blockette, error) {
	t, err := c.reg.Type(typ)
	if err != nil {
		return nil, err
	}
	count, err := t.FieldCount(v)
	if err != nil {
		return nil, err
	}
	return newBlockette(c, t, v, count), nil
}

func (c *Codec) isCountField(t *schema.Type, n int) bool {
	for _, f := range t.Fields[n+1:] {
		if f.RepeatPointer == n {
			return true
		}
	}
	return false
}

// inputError reports a value that does not fit its field. Strict codecs
// return an ErrInput; lenient codecs record a warning and return nil so
// that the caller substitutes its default.
func (c *Codec) inputError(b *Blockette, n, idx int, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if c.strict {
		if idx >= 0 {
			return fmt.Errorf("%w: blockette %d field %d[%d]: %s", ErrInput, b.typ, n, idx, msg)
		}
		return fmt.Errorf("%w: blockette %d field %d: %s", ErrInput, b.typ, n, msg)
	}
	b.diagnose(SeverityWarning, n, idx, "%s", msg)
	return nil
}

func (c *Codec) logDiagnostic(b *Blockette, d Diagnostic) {
	kv := []any{"blockette", b.typ, "id", b.id.String(), "field", d.Field, "index", d.Index}
	if d.Severity == SeverityWarning {
		c.sugar.Warnw(d.Message, kv...)
		return
	}
	c.sugar.Debugw(d.Message, kv...)
}

// New creates a blank blockette with the default codec.
func New(typ int) (*Blockette, error) {
	return DefaultCodec().New(typ, 0)
}

// DecodeBinary decodes with the default codec.
func DecodeBinary(buf []byte, opts BinaryOptions) (*Blockette, int, error) {
	return DefaultCodec().DecodeBinary(buf, opts)
}

// EncodeBinary encodes with the default codec.
func EncodeBinary(b *Blockette, opts BinaryOptions) ([]byte, error) {
	return DefaultCodec().EncodeBinary(b, opts)
}

// FromText parses with the default codec.
func FromText(text string, opts TextOptions) (*Blockette, error) {
	return DefaultCodec().FromText(text, opts)
}
