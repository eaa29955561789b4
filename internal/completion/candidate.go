// SPDX-License-Identifier: Apache-2.0

// Package completion supplies the per-kind candidate providers (§4.8)
// and the relevance engine that filters, scores and orders their output
// (§4.9). Providers are pure functions over a schema snapshot and a
// request context, per the §9 redesign flag replacing a coroutine-style
// pipeline.
package completion

import (
	"github.com/pgsqlls/pgsqlls/internal/cst"
)

// Kind is the closed set of candidate kinds a provider may emit.
type Kind string

const (
	KindTable    Kind = "table"
	KindColumn   Kind = "column"
	KindSchema   Kind = "schema"
	KindFunction Kind = "function"
	KindPolicy   Kind = "policy"
	KindRole     Kind = "role"
)

// ByteRange is a half-open [Start, End) byte range in the original
// document's coordinates.
type ByteRange struct {
	Start int
	End   int
}

// Candidate is one completion item before relevance scoring (§4.8).
type Candidate struct {
	Label            string
	Description      string
	Kind             Kind
	PreviewType      string
	CompletionText   string
	ReplacementRange ByteRange

	// Schema/Table identify the owning relation for Table/Column/Policy
	// candidates, so the relevance engine can test mention/alias
	// visibility without re-parsing Description.
	Schema string
	Table  string

	// Alias is the table alias this candidate was qualified with, if any
	// (Column candidates only).
	Alias string

	// ArgCount is populated for Function candidates so the relevance
	// engine can apply the argument-count preference (§4.9).
	ArgCount int

	// PrimaryKey marks a Column candidate that is part of its table's
	// primary key, consulted by the Join.on preference (§4.9).
	PrimaryKey bool
}

// Item is a Candidate after scoring (§4.9), the type returned to callers.
type Item struct {
	Candidate
	Score int
}

// Request bundles what every provider needs: the schema snapshot (may
// be the degraded-empty snapshot, §4.5/§7), the treesitter context
// (§4.6), and the cursor's byte offset plus already-typed prefix.
type Request struct {
	Context          cst.Context
	TypedPrefix      string
	ReplacementRange ByteRange
	// DefaultSchema is the schema considered "already visible" without
	// qualification (typically "public"), used by the Tables provider's
	// completion-text construction (§4.9 step 3).
	DefaultSchema string

	// ArgCountHint is the number of arguments already typed at an
	// invocation call site, or -1 when no call site applies. Used by the
	// relevance engine's function argument-count preference (§4.9).
	ArgCountHint int
}
