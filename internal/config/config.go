// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

// Package config holds the command line settings shared by the seedfield
// commands.
package config

import (
	"fmt"

	flag "github.com/spf13/pflag"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/iris-edu-legacy/java-seed-sub000/blockette"
	"github.com/iris-edu-legacy/java-seed-sub000/schema"
)

// Config holds the codec and logging settings of one seedfield run.
type Config struct {
	Delimiter  string
	Blank      string
	Version    string
	Endian     string
	TimeEndian string
	DataRecord bool
	// FixedHeader reads a 48-byte data header before the blockettes.
	FixedHeader bool
	Strict      bool
	Verbose     bool
}

// NewConfig returns the default settings: "|" and "^" text, SEED 2.4,
// big endian metadata records.
func NewConfig() *Config {
	return &Config{
		Delimiter: blockette.DefaultDelimiter,
		Blank:     blockette.DefaultBlank,
		Version:   schema.DefaultVersion.String(),
		Endian:    blockette.EndianBig,
	}
}

// Bind registers the settings on fs with the current values as defaults.
func (c *Config) Bind(fs *flag.FlagSet) {
	fs.StringVar(&c.Delimiter, "delimiter", c.Delimiter, "text field delimiter")
	fs.StringVar(&c.Blank, "blank", c.Blank, "text token for a null field")
	fs.StringVar(&c.Version, "seed-version", c.Version, "SEED version bounding the field layout")
	fs.StringVar(&c.Endian, "endian", c.Endian, "word order of binary fields (big or little)")
	fs.StringVar(&c.TimeEndian, "time-endian", c.TimeEndian, "word order of time structures (big, little or auto); empty follows --endian")
	fs.BoolVar(&c.DataRecord, "data-record", c.DataRecord, "blockettes carry 2-byte binary type tags")
	fs.BoolVar(&c.FixedHeader, "fixed-header", c.FixedHeader, "input starts with a fixed data header")
	fs.BoolVar(&c.Strict, "strict", c.Strict, "fail on values that do not fit their field")
	fs.BoolVar(&c.Verbose, "verbose", c.Verbose, "log every diagnostic")
}

// Validate reports every setting that cannot be used.
func (c *Config) Validate() error {
	var errs error
	if c.Delimiter == "" {
		errs = multierr.Append(errs, fmt.Errorf("delimiter must not be empty"))
	}
	if c.Blank == c.Delimiter {
		errs = multierr.Append(errs, fmt.Errorf("blank token %q equals the delimiter", c.Blank))
	}
	if _, err := schema.ParseVersion(c.Version); err != nil {
		errs = multierr.Append(errs, err)
	}
	switch c.Endian {
	case blockette.EndianBig, blockette.EndianLittle:
	default:
		errs = multierr.Append(errs, fmt.Errorf("unknown endian %q", c.Endian))
	}
	switch c.TimeEndian {
	case "", blockette.EndianBig, blockette.EndianLittle, blockette.EndianAuto:
	default:
		errs = multierr.Append(errs, fmt.Errorf("unknown time endian %q", c.TimeEndian))
	}
	return errs
}

func (c *Config) version() schema.Version {
	v, err := schema.ParseVersion(c.Version)
	if err != nil {
		return schema.DefaultVersion
	}
	return v
}

// BinaryOptions returns the record codec options. A fixed header implies
// data records.
func (c *Config) BinaryOptions() blockette.BinaryOptions {
	return blockette.BinaryOptions{
		Endian:     c.Endian,
		TimeEndian: c.TimeEndian,
		DataRecord: c.DataRecord || c.FixedHeader,
		Version:    c.version(),
	}
}

// TextOptions returns the text codec options.
func (c *Config) TextOptions() blockette.TextOptions {
	return blockette.TextOptions{
		Delimiter: c.Delimiter,
		Blank:     c.Blank,
		Version:   c.version(),
	}
}

// Logger builds the command logger: warnings only, or everything in
// development format when verbose.
func (c *Config) Logger() (*zap.Logger, error) {
	if c.Verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

// Codec builds a codec from the settings.
func (c *Config) Codec(logger *zap.Logger) *blockette.Codec {
	return blockette.NewCodec(blockette.Options{
		Logger:  logger,
		Strict:  c.Strict,
		Version: c.version(),
	})
}
