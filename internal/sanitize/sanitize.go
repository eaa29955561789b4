// SPDX-License-Identifier: Apache-2.0

// Package sanitize rewrites the text around a completion request's
// cursor so that a parser can accept it, per §4.7. Completion is most
// often requested while the user is mid-token, in a position the real
// grammar (and often the tree-sitter grammar) would reject outright; a
// canonical fragment is substituted so a usable CST comes back.
package sanitize

import "strings"

// Placeholder is the literal inserted for an identifier gap. Pinned to
// this exact value per DESIGN.md's Open Question decision: long enough
// to never collide with a real user token, short enough to stay one
// tree-sitter token.
const Placeholder = "__pgsqlls_ident__"

// Result is the sanitiser's output (§4.7): the rewritten text, the
// offset within it corresponding to the original cursor, and the range
// (in the *original* text's byte coordinates) an accepted completion
// must replace.
type Result struct {
	Text             string
	AdjustedOffset   int
	ReplacementRange ByteRange

	// InsideQuote is set when the cursor sits inside an already-open (or
	// reopened) double-quoted identifier, so the relevance engine's
	// completion-text construction extends rather than requotes (§4.9
	// step 3).
	InsideQuote bool
}

// ByteRange is a half-open [Start, End) byte range.
type ByteRange struct {
	Start int
	End   int
}

// Sanitize applies the §4.7 rules once, deterministically, and returns
// the rewritten text plus bookkeeping to map back to the original.
func Sanitize(text string, offset int) Result {
	if offset < 0 {
		offset = 0
	}
	if offset > len(text) {
		offset = len(text)
	}

	if r, ok := sanitizeQualifiedQuotedColumn(text, offset); ok {
		return r
	}
	if r, ok := sanitizeUnterminatedQuote(text, offset); ok {
		return r
	}
	if r, ok := sanitizeIdentifierGap(text, offset); ok {
		return r
	}

	return Result{
		Text:             text,
		AdjustedOffset:   offset,
		ReplacementRange: tokenSpan(text, offset),
	}
}

// sanitizeQualifiedQuotedColumn handles `"schema"."` with nothing (or
// only whitespace) after the trailing dot up to the cursor: insert a
// placeholder identifier at the cursor (§4.7 rule 3).
func sanitizeQualifiedQuotedColumn(text string, offset int) (Result, bool) {
	i := offset
	for i > 0 && (text[i-1] == ' ' || text[i-1] == '\t') {
		i--
	}
	if i == 0 || text[i-1] != '.' {
		return Result{}, false
	}
	dot := i - 1
	if dot == 0 || text[dot-1] != '"' {
		return Result{}, false
	}
	// Confirm a closed quoted segment precedes the dot: find the matching
	// opening quote.
	open := strings.LastIndexByte(text[:dot-1], '"')
	if open < 0 {
		return Result{}, false
	}

	sanitized := text[:offset] + Placeholder + text[offset:]
	return Result{
		Text:           sanitized,
		AdjustedOffset: offset,
		ReplacementRange: ByteRange{
			Start: offset,
			End:   offset,
		},
		InsideQuote: true,
	}, true
}

// sanitizeUnterminatedQuote handles a cursor inside an open double-quoted
// identifier (`"abc|`), temporarily closing the quote so the rest of the
// statement still parses (§4.7 rule 2).
func sanitizeUnterminatedQuote(text string, offset int) (Result, bool) {
	// An odd count of unescaped double quotes before offset means we are
	// inside an open quoted run.
	open := -1
	count := 0
	for i := 0; i < offset; i++ {
		if text[i] == '"' {
			count++
			if count%2 == 1 {
				open = i
			} else {
				open = -1
			}
		}
	}
	if open < 0 {
		return Result{}, false
	}

	sanitized := text[:offset] + `"` + text[offset:]
	return Result{
		Text:           sanitized,
		AdjustedOffset: offset,
		ReplacementRange: ByteRange{
			Start: open + 1,
			End:   offset,
		},
		InsideQuote: true,
	}, true
}

// sanitizeIdentifierGap handles a cursor sitting in whitespace with no
// token immediately to its left, inserting a placeholder identifier so
// the grammar has something to attach the completion request to (§4.7
// rule 1). This is deliberately a textual heuristic, not a parse: its
// job is only to make the text parseable, not to classify the gap's
// clause — that is the treesitter context builder's job (§4.6) once it
// runs over the sanitised text.
func sanitizeIdentifierGap(text string, offset int) (Result, bool) {
	leftIsGap := offset == 0 || isGapByte(text[offset-1])
	if !leftIsGap {
		return Result{}, false
	}
	// No need to sanitise if a token already starts right at the cursor;
	// the parser can descend into it normally.
	if offset < len(text) && !isGapByte(text[offset]) && text[offset] != ';' && text[offset] != ',' && text[offset] != ')' {
		return Result{}, false
	}

	sanitized := text[:offset] + Placeholder + text[offset:]
	return Result{
		Text:           sanitized,
		AdjustedOffset: offset,
		ReplacementRange: ByteRange{
			Start: offset,
			End:   offset,
		},
	}, true
}

func isGapByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '(' || b == ','
}

// tokenSpan returns the contiguous run of identifier-ish bytes ending at
// offset, used as the replacement range's fallback when no sanitisation
// rule fired: the caller is mid-identifier, not mid-gap.
func tokenSpan(text string, offset int) ByteRange {
	start := offset
	for start > 0 && isIdentByte(text[start-1]) {
		start--
	}
	return ByteRange{Start: start, End: offset}
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
