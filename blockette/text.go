// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

package blockette

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/iris-edu-legacy/java-seed-sub000/schema"
)

// Text form defaults.
const (
	DefaultDelimiter = "|"
	DefaultBlank     = "^"
)

// TextOptions describes the delimited text form.
type TextOptions struct {
	Delimiter string
	// Blank is the token standing for a null value.
	Blank string
	// Version bounds the field layout when parsing; 0 uses the codec
	// version.
	Version schema.Version
}

func (o TextOptions) withDefaults() TextOptions {
	if o.Delimiter == "" {
		o.Delimiter = DefaultDelimiter
	}
	if o.Blank == "" {
		o.Blank = DefaultBlank
	}
	return o
}

// ToText renders the blockette as one delimited line. Repeat groups are
// written group by group; an empty group writes a single blank token.
// Values holding the delimiter, or equal to the blank marker, are input
// errors; lenient codecs replace the delimiter with a space.
func (c *Codec) ToText(b *Blockette, opts TextOptions) (string, error) {
	opts = opts.withDefaults()
	if err := c.checkCounts(b); err != nil {
		return "", err
	}
	t := b.def
	tokens := make([]string, 0, b.filled+1)
	tokens = append(tokens, strconv.Itoa(b.typ))

	token := func(f schema.Field, idx int, v any) error {
		s, null, err := c.render(f, v)
		if err != nil {
			return fmt.Errorf("blockette %d: %w", b.typ, err)
		}
		switch {
		case null:
			s = opts.Blank
		case strings.Contains(s, opts.Delimiter):
			if err := c.inputError(b, f.Number, idx, "value %q contains the delimiter %q", s, opts.Delimiter); err != nil {
				return err
			}
			s = strings.ReplaceAll(s, opts.Delimiter, " ")
		case s == opts.Blank:
			// written as is; it reads back as null
			if err := c.inputError(b, f.Number, idx, "value %q is the blank marker", s); err != nil {
				return err
			}
		}
		tokens = append(tokens, s)
		return nil
	}

	for n := 2; n <= b.filled; {
		f := t.Fields[n]
		if !f.IsRepeating() {
			if err := token(f, -1, b.slots[n].scalar); err != nil {
				return "", err
			}
			n++
			continue
		}
		first, last := t.Span(n)
		last = min(last, b.filled)
		groups := len(b.slots[first].group)
		if groups == 0 {
			tokens = append(tokens, opts.Blank)
		}
		for g := 0; g < groups; g++ {
			for k := first; k <= last; k++ {
				var v any
				if g < len(b.slots[k].group) {
					v = b.slots[k].group[g]
				}
				if err := token(t.Fields[k], g, v); err != nil {
					return "", err
				}
			}
		}
		n = last + 1
	}
	return strings.Join(tokens, opts.Delimiter), nil
}

// FromText parses one delimited line. A line that stops at a field
// boundary yields an incomplete blockette; one that stops inside a repeat
// group is an input error.
func (c *Codec) FromText(text string, opts TextOptions) (*Blockette, error) {
	opts = opts.withDefaults()
	tokens := strings.Split(strings.TrimRight(text, "\r\n"), opts.Delimiter)
	typ, err := strconv.Atoi(strings.TrimSpace(tokens[0]))
	if err != nil {
		return nil, fmt.Errorf("%w: bad blockette type %q", ErrFormat, tokens[0])
	}
	b, err := c.newBlockette(typ, c.resolveVersion(opts.Version))
	if err != nil {
		return nil, err
	}
	b.slots[1] = scalarSlot(int64(typ))
	b.filled = 1

	p := &textParser{c: c, b: b, tokens: tokens, pos: 1, blank: opts.Blank}
	if err := p.run(); err != nil {
		return nil, err
	}
	if rest := len(tokens) - p.pos; rest > 0 && !b.incomplete {
		if err := c.inputError(b, b.numFields, -1, "%d extra tokens after the last field", rest); err != nil {
			return nil, err
		}
	}
	return b, nil
}

type textParser struct {
	c      *Codec
	b      *Blockette
	tokens []string
	pos    int
	blank  string
}

func (p *textParser) next(n, idx int) (any, error) {
	tok := p.tokens[p.pos]
	p.pos++
	if tok == p.blank {
		return nil, nil
	}
	return p.c.parseToken(p.b, n, idx, tok, false)
}

func (p *textParser) run() error {
	b := p.b
	t := b.def
	for n := 2; n <= b.numFields; {
		if p.pos >= len(p.tokens) {
			b.incomplete = true
			b.diagnose(SeverityInfo, n, -1, "text ends before field %d", n)
			return nil
		}
		f := t.Fields[n]
		if !f.IsRepeating() {
			v, err := p.next(n, -1)
			if err != nil {
				return err
			}
			b.slots[n] = scalarSlot(v)
			b.filled = n
			n++
			continue
		}

		first, last := t.Span(n)
		last = min(last, b.numFields)
		groups := 0
		if i, ok := b.slots[f.RepeatPointer].scalar.(int64); ok && i > 0 {
			groups = int(i)
		}
		for k := first; k <= last; k++ {
			b.slots[k] = newGroupSlot(t.Fields[k])
		}
		if groups == 0 {
			if tok := p.tokens[p.pos]; tok != p.blank && strings.TrimSpace(tok) != "" {
				if err := p.c.inputError(b, first, -1, "expected a blank token for an empty group, got %q", tok); err != nil {
					return err
				}
			}
			p.pos++
		}
		width := last - first + 1
		if need := groups * width; len(p.tokens)-p.pos < need {
			return fmt.Errorf("%w: blockette %d needs %d tokens for %d groups of fields %d-%d, %d left",
				ErrInput, b.typ, need, groups, first, last, len(p.tokens)-p.pos)
		}
		for g := 0; g < groups; g++ {
			for k := first; k <= last; k++ {
				v, err := p.next(k, g)
				if err != nil {
					return err
				}
				b.slots[k].group = append(b.slots[k].group, v)
			}
		}
		b.filled = last
		n = last + 1
	}
	return nil
}

// ToText renders with the codec that built the blockette.
func ToText(b *Blockette, opts TextOptions) (string, error) {
	return b.codec.ToText(b, opts)
}
