// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iris-edu-legacy/java-seed-sub000/blockette"
	"github.com/iris-edu-legacy/java-seed-sub000/internal/config"
	"github.com/iris-edu-legacy/java-seed-sub000/schema"
)

func newDecodeCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "decode [file]",
		Short: "Decode binary blockettes into text lines",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := openInput(cmd, args)
			if err != nil {
				return err
			}
			defer in.Close()
			buf, err := io.ReadAll(in)
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
			logger, err := cfg.Logger()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			return decodeAll(cmd.OutOrStdout(), cfg, cfg.Codec(logger), logger, buf)
		},
	}
}

// decodeAll decodes consecutive blockettes until the input or its
// padding is exhausted, writing one text line per blockette.
func decodeAll(w io.Writer, cfg *config.Config, c *blockette.Codec, logger *zap.Logger, buf []byte) error {
	opts := cfg.BinaryOptions()
	topts := cfg.TextOptions()
	offset := 0

	write := func(b *blockette.Blockette) error {
		line, err := c.ToText(b, topts)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, line)
		return err
	}

	if cfg.FixedHeader {
		h, err := c.FromFixedHeader(buf, opts)
		if err != nil {
			return err
		}
		if err := write(h); err != nil {
			return err
		}
		offset = h.Consumed()
	}

	for offset < len(buf) && !isPadding(buf[offset:]) {
		b, n, err := c.DecodeBinary(buf[offset:], opts)
		if err != nil {
			return fmt.Errorf("offset %d: %w", offset, err)
		}
		if err := write(b); err != nil {
			return err
		}
		if b.IsIncomplete() || n == 0 {
			logger.Warn("input ends inside a blockette",
				zap.Int("offset", offset),
				zap.Int("blockette", b.Type()),
				zap.Int("consumed", n))
			break
		}
		offset += n
	}
	return nil
}

// isPadding reports whether b holds only record fill.
func isPadding(b []byte) bool {
	for _, c := range b {
		if c != 0 && c != ' ' && c != '\n' && c != '\r' {
			return false
		}
	}
	return true
}

func newEncodeCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "encode [file]",
		Short: "Encode text lines into binary blockettes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := openInput(cmd, args)
			if err != nil {
				return err
			}
			defer in.Close()
			logger, err := cfg.Logger()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			return encodeAll(cmd.OutOrStdout(), in, cfg, cfg.Codec(logger))
		},
	}
}

// encodeAll encodes one blockette per text line. Empty lines and lines
// starting with '#' are skipped.
func encodeAll(w io.Writer, r io.Reader, cfg *config.Config, c *blockette.Codec) error {
	opts := cfg.BinaryOptions()
	topts := cfg.TextOptions()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if strings.TrimSpace(text) == "" || strings.HasPrefix(text, "#") {
			continue
		}
		b, err := c.FromText(text, topts)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		out, err := c.EncodeBinary(b, opts)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if _, err := w.Write(out); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema [type]",
		Short: "List blockette types or print the definition of one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := schema.Default()
			w := cmd.OutOrStdout()
			if len(args) == 1 {
				typ, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("bad blockette type %q", args[0])
				}
				def, err := reg.Definition(typ)
				if err != nil {
					return err
				}
				fmt.Fprint(w, def)
				if !strings.HasSuffix(def, "\n") {
					fmt.Fprintln(w)
				}
				return nil
			}
			for _, typ := range reg.Types() {
				name, _ := reg.Name(typ)
				cat, _ := reg.Category(typ)
				fmt.Fprintf(w, "%03d\t%s\t%s\n", typ, cat, name)
			}
			return nil
		},
	}
}
