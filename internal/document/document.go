// SPDX-License-Identifier: Apache-2.0

// Package document owns a single open document: its text buffer, its
// ordered statements, and their per-statement parse caches (§3, §4.4).
// This is the heart of the language service: reconciling an edit into a
// minimal set of retired/added statements so that unrelated parse work
// is never discarded.
package document

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/pgsqlls/pgsqlls/internal/cst"
	"github.com/pgsqlls/pgsqlls/internal/parsecache"
	"github.com/pgsqlls/pgsqlls/internal/pgastparse"
	"github.com/pgsqlls/pgsqlls/internal/sqltext"
)

// ID is a statement's opaque, process-unique identity.
type ID string

func newID() ID {
	return ID(uuid.NewString())
}

// Statement is one addressable SQL statement within a document (§3).
type Statement struct {
	ID        ID
	Range     sqltext.ByteRange
	Text      string
	Kind      pgastparse.StatementKind
	Oversized bool
}

// ChangeEvent reports the result of reconciling an apply_edits call
// against the prior statement list (§4.4 step 4).
type ChangeEvent struct {
	Retired []ID
	Added   []Statement
	Shifted []ID
}

// Document is a single open document, guarded by a reader-writer lock
// per §5: apply_edits/open/close are writers, everything else a reader.
type Document struct {
	mu      sync.RWMutex
	uri     string
	version int

	buffer     *sqltext.Buffer
	statements []Statement
	cache      *parsecache.Cache
}

// New opens a document at the given version with its initial text.
func New(uri string, version int, text string) *Document {
	return &Document{
		uri:        uri,
		version:    version,
		buffer:     sqltext.NewBuffer(text),
		cache:      parsecache.New(parsecache.MinCapacity),
		statements: splitStatements(text),
	}
}

// URI returns the document's identifying URI.
func (d *Document) URI() string { return d.uri }

// Version returns the document's current version.
func (d *Document) Version() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.version
}

// Text returns the document's current full text.
func (d *Document) Text() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.buffer.Text()
}

// Statements returns the ordered current statement list (§4.4:
// `statements(uri)`).
func (d *Document) Statements() []Statement {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Statement, len(d.statements))
	copy(out, d.statements)
	return out
}

// StatementAt returns the statement whose range contains offset, if any
// (§4.4: `statement_at(uri, offset)`).
func (d *Document) StatementAt(offset int) (Statement, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	textLen := d.buffer.Len()
	for _, s := range d.statements {
		if offset >= s.Range.Start && offset < s.Range.End {
			return s, true
		}
		// A cursor sitting exactly at the end of the final statement (no
		// trailing gap) still belongs to that statement.
		if offset == s.Range.End && offset == textLen {
			return s, true
		}
	}
	return Statement{}, false
}

// ApplyEdits applies a batch of edits at newVersion, then reconciles the
// resulting statement list against the prior one (§4.4).
func (d *Document) ApplyEdits(newVersion int, edits []sqltext.Edit) (ChangeEvent, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if newVersion <= d.version {
		return ChangeEvent{}, StaleVersionError{URI: d.uri, Current: d.version, Got: newVersion}
	}
	if err := d.buffer.Apply(edits); err != nil {
		return ChangeEvent{}, err
	}

	oldByID := make(map[ID]Statement, len(d.statements))
	for _, s := range d.statements {
		oldByID[s.ID] = s
	}

	newStatements := splitStatements(d.buffer.Text())
	event, reconciled := reconcile(d.statements, newStatements)

	live := make(map[parsecache.Key]bool, len(reconciled))
	for _, s := range reconciled {
		live[parsecache.HashText(s.Text)] = true
	}

	for _, id := range event.Retired {
		old, ok := oldByID[id]
		if !ok {
			continue
		}
		// Two statements can share one cache entry when their text is
		// byte-identical (§4.3: keyed by content hash); only forget the
		// entry once no surviving statement still references that hash,
		// or a live duplicate's cached CST gets closed out from under it.
		if hash := parsecache.HashText(old.Text); !live[hash] {
			d.cache.Forget(hash)
		}
	}

	d.statements = reconciled
	d.version = newVersion
	return event, nil
}

// Parse returns the cached parse artifacts for statement id, computing
// them on demand (§4.4: `parse(uri, id)`). The bool result reports
// whether id names a statement currently in the document.
func (d *Document) Parse(ctx context.Context, id ID) (parsecache.Entry, bool, error) {
	d.mu.RLock()
	var text string
	found := false
	for _, s := range d.statements {
		if s.ID == id {
			text = s.Text
			found = true
			break
		}
	}
	d.mu.RUnlock()
	if !found {
		return parsecache.Entry{}, false, nil
	}

	entry, err := d.cache.GetOrParse(ctx, text, parseStatement)
	return entry, true, err
}

// Close releases the document's buffer, statement list and parse cache
// entries (§5: "Resources released on close").
func (d *Document) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cache.Purge()
	d.statements = nil
	d.buffer = sqltext.NewBuffer("")
}

func parseStatement(ctx context.Context, text string) (parsecache.Entry, error) {
	grammar := pgastparse.Parse(text)
	tree, err := cst.Parse(ctx, []byte(text))
	if err != nil {
		return parsecache.Entry{}, err
	}
	return parsecache.Entry{Grammar: grammar, CST: tree}, nil
}

func splitStatements(text string) []Statement {
	split := sqltext.Split(text)
	out := make([]Statement, len(split))
	for i, s := range split {
		out[i] = Statement{
			ID:        newID(),
			Range:     s.Range,
			Text:      s.Text,
			Oversized: len(s.Text) > sqltext.MaxStatementBytes,
		}
	}
	return out
}
