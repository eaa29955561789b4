// SPDX-License-Identifier: Apache-2.0

package workspace

import (
	"context"

	"github.com/pgsqlls/pgsqlls/internal/completion"
	"github.com/pgsqlls/pgsqlls/internal/cst"
	"github.com/pgsqlls/pgsqlls/internal/sanitize"
	"github.com/pgsqlls/pgsqlls/internal/schemacache"
	"github.com/pgsqlls/pgsqlls/internal/sqltext"
)

// MaxCompletionItems is the caller-bound limit §4.9 step 4 leaves
// implementation-defined.
const MaxCompletionItems = 200

// CompletionItem is one ranked completion result, in document-absolute
// coordinates, ready for an LSP wrapper to translate directly (§6).
type CompletionItem struct {
	Label            string
	Description      string
	Kind             completion.Kind
	PreviewType      string
	InsertText       string
	ReplacementRange sqltext.Range
}

// Completions implements `completions(uri, position)` (§6, §4.8/§4.9).
// A missing or stale schema snapshot degrades gracefully to schema-free
// suggestions (§4.5/§7: SchemaUnavailable never reaches this caller as
// an error) and a panicking provider is isolated from the rest (§7).
func (w *Workspace) Completions(ctx context.Context, uri string, pos sqltext.Position) ([]CompletionItem, error) {
	doc, err := w.lookup(uri)
	if err != nil {
		return nil, err
	}

	text := doc.Text()
	offset, ok := sqltext.OffsetAt(text, pos)
	if !ok {
		offset = len(text)
	}

	stmt, ok := doc.StatementAt(offset)
	if !ok {
		w.logger.LogCompletions(uri, 0)
		return nil, nil
	}
	localOffset := offset - stmt.Range.Start

	saneResult := sanitize.Sanitize(stmt.Text, localOffset)

	tree, err := cst.Parse(ctx, []byte(saneResult.Text))
	if err != nil {
		return nil, nil
	}
	defer tree.Close()

	cctx := cst.BuildContext(tree, saneResult.AdjustedOffset)

	prefix := ""
	if saneResult.ReplacementRange.End <= len(stmt.Text) && saneResult.ReplacementRange.Start <= saneResult.ReplacementRange.End {
		prefix = stmt.Text[saneResult.ReplacementRange.Start:saneResult.ReplacementRange.End]
	}

	req := completion.Request{
		Context:     cctx,
		TypedPrefix: prefix,
		ReplacementRange: completion.ByteRange{
			Start: stmt.Range.Start + saneResult.ReplacementRange.Start,
			End:   stmt.Range.Start + saneResult.ReplacementRange.End,
		},
		DefaultSchema: w.defaultSchema,
		ArgCountHint:  -1,
	}
	if cctx.IsInvocation {
		req.ArgCountHint = countArgs(saneResult.Text, saneResult.AdjustedOffset)
	}

	snap := w.schema.Snapshot()

	var candidates []completion.Candidate
	for _, p := range completion.Providers {
		candidates = append(candidates, safeProvider(p, snap, req)...)
	}

	items := completion.Rank(candidates, req, MaxCompletionItems)

	out := make([]CompletionItem, len(items))
	for i, it := range items {
		out[i] = CompletionItem{
			Label:       it.Label,
			Description: it.Description,
			Kind:        it.Kind,
			PreviewType: it.PreviewType,
			InsertText:  it.SpliceText(saneResult.InsideQuote),
			ReplacementRange: sqltext.RangeAt(text, sqltext.ByteRange{
				Start: it.ReplacementRange.Start,
				End:   it.ReplacementRange.End,
			}),
		}
	}
	w.logger.LogCompletions(uri, len(out))
	return out, nil
}

// safeProvider isolates one provider's panic from the rest of the
// completion response (§7: "A provider panic must not poison the
// completion response for other providers").
func safeProvider(p completion.Provider, snap *schemacache.Snapshot, req completion.Request) (out []completion.Candidate) {
	defer func() {
		if recover() != nil {
			out = nil
		}
	}()
	return p(snap, req)
}

func countArgs(text string, offset int) int {
	depth := 0
	open := -1
	for i := offset - 1; i >= 0; i-- {
		switch text[i] {
		case ')':
			depth++
		case '(':
			if depth == 0 {
				open = i
			} else {
				depth--
			}
		}
		if open >= 0 {
			break
		}
	}
	if open < 0 {
		return 0
	}
	count := 0
	depth = 0
	for i := open + 1; i < offset; i++ {
		switch text[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				count++
			}
		}
	}
	if offset > open+1 {
		count++
	}
	return count
}
