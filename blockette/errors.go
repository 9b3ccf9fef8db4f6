// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

package blockette

import (
	"fmt"

	"github.com/iris-edu-legacy/java-seed-sub000/schema"
)

var (
	// ErrFormat reports a schema violation. It is always fatal.
	ErrFormat = schema.ErrFormat
	// ErrInput reports a value that does not fit its field. It is only
	// returned by strict codecs; lenient codecs record a Diagnostic.
	ErrInput = schema.ErrInput
	// ErrNoSuchGroup reports a repeat group index past the current count.
	ErrNoSuchGroup = fmt.Errorf("%w: no such group", ErrFormat)
)

// Severity classifies a diagnostic.
type Severity int

const (
	// SeverityInfo marks expected conditions such as truncated input.
	SeverityInfo Severity = iota
	// SeverityWarning marks a value that was kept or corrected leniently.
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "info"
}

// Diagnostic records a recoverable condition met while building a
// blockette. Index is the repeat position, -1 for non-repeating fields.
type Diagnostic struct {
	Severity Severity
	Field    int
	Index    int
	Message  string
}

func (d Diagnostic) String() string {
	if d.Index >= 0 {
		return fmt.Sprintf("%s: field %d[%d]: %s", d.Severity, d.Field, d.Index, d.Message)
	}
	return fmt.Sprintf("%s: field %d: %s", d.Severity, d.Field, d.Message)
}
