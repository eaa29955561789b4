// SPDX-License-Identifier: Apache-2.0

// Package workspace is the façade of §6: the same Workspace API surface
// consumed by the LSP wrapper (lsp/) and by the CLI/tests directly. It
// owns the open documents, the shared schema snapshot, and the rule
// filter, and composes the lower packages (document, schemacache,
// sanitize, cst, completion, rules) into the operations §6 names.
//
// Grounded on the teacher's pkg/roll.Roll shape: one struct, a
// constructor with functional options, public operation methods.
package workspace

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	_ "github.com/lib/pq"

	"github.com/pgsqlls/pgsqlls/internal/document"
	"github.com/pgsqlls/pgsqlls/internal/jsonschemaconf"
	"github.com/pgsqlls/pgsqlls/internal/rules"
	"github.com/pgsqlls/pgsqlls/internal/schemacache"
	"github.com/pgsqlls/pgsqlls/internal/sqltext"
)

// DefaultSchema is the schema considered already-visible without
// qualification when no configuration says otherwise (§4.9 step 3).
const DefaultSchema = "public"

// Workspace owns every open document plus the shared, process-wide
// schema snapshot and rule filter. Each Document is independently
// locked (§5); Workspace itself only guards its own document map and
// the current filter/db pointers.
type Workspace struct {
	mu   sync.RWMutex
	docs map[string]*document.Document

	schema   *schemacache.Cache
	registry *rules.Registry

	filterMu sync.RWMutex
	filter   *rules.Filter

	dbMu sync.Mutex
	db   *sql.DB

	defaultSchema string
	logger        Logger
}

// Option configures a Workspace at construction time.
type Option func(*Workspace)

// WithLogger overrides the default pterm-backed Logger.
func WithLogger(l Logger) Option {
	return func(w *Workspace) { w.logger = l }
}

// WithDefaultSchema overrides DefaultSchema for table/column completion
// qualification (§4.9 step 3).
func WithDefaultSchema(schema string) Option {
	return func(w *Workspace) { w.defaultSchema = schema }
}

// New builds a Workspace with an empty document set, an empty (schema-
// unavailable) snapshot, and the default rule filter (nothing enabled
// until UpdateSettings supplies configuration).
func New(opts ...Option) (*Workspace, error) {
	descriptors, err := rules.LoadManifest()
	if err != nil {
		return nil, fmt.Errorf("loading rule manifest: %w", err)
	}
	registry, err := rules.NewRegistry(descriptors)
	if err != nil {
		return nil, fmt.Errorf("building rule registry: %w", err)
	}

	w := &Workspace{
		docs:          make(map[string]*document.Document),
		schema:        schemacache.NewCache(schemacache.DefaultRefreshTimeout),
		registry:      registry,
		filter:        rules.NewFilter(registry, rules.Config{}),
		defaultSchema: DefaultSchema,
		logger:        NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// OpenDocument implements `open_document(uri, version, text)` (§6).
func (w *Workspace) OpenDocument(uri string, version int, text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, exists := w.docs[uri]; exists {
		return AlreadyOpenError{URI: uri}
	}
	w.docs[uri] = document.New(uri, version, text)
	w.logger.LogOpenDocument(uri, version)
	return nil
}

// ChangeDocument implements `change_document(uri, version, edits[])` (§6).
func (w *Workspace) ChangeDocument(uri string, version int, edits []sqltext.Edit) (document.ChangeEvent, error) {
	doc, err := w.lookup(uri)
	if err != nil {
		return document.ChangeEvent{}, err
	}
	event, err := doc.ApplyEdits(version, edits)
	if err != nil {
		return document.ChangeEvent{}, err
	}
	w.logger.LogChangeDocument(uri, version, len(event.Retired), len(event.Added))
	return event, nil
}

// CloseDocument implements `close_document(uri)` (§6).
func (w *Workspace) CloseDocument(uri string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	doc, ok := w.docs[uri]
	if !ok {
		return NotOpenError{URI: uri}
	}
	doc.Close()
	delete(w.docs, uri)
	w.logger.LogCloseDocument(uri)
	return nil
}

// Statements returns a document's current statement list (§4.4
// `statements(uri)`).
func (w *Workspace) Statements(uri string) ([]document.Statement, error) {
	doc, err := w.lookup(uri)
	if err != nil {
		return nil, err
	}
	return doc.Statements(), nil
}

// StatementAt returns the statement at a byte offset (§4.4
// `statement_at(uri, offset)`).
func (w *Workspace) StatementAt(uri string, offset int) (document.Statement, bool, error) {
	doc, err := w.lookup(uri)
	if err != nil {
		return document.Statement{}, false, err
	}
	stmt, ok := doc.StatementAt(offset)
	return stmt, ok, nil
}

func (w *Workspace) lookup(uri string) (*document.Document, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	doc, ok := w.docs[uri]
	if !ok {
		return nil, NotOpenError{URI: uri}
	}
	return doc, nil
}

func (w *Workspace) currentFilter() *rules.Filter {
	w.filterMu.RLock()
	defer w.filterMu.RUnlock()
	return w.filter
}

// RefreshSchema rebuilds the schema snapshot from the current database
// connection, if any is configured (§4.5). On failure or when no
// database is configured, the previous snapshot (possibly the empty
// one) is retained and no error reaches completion callers — only the
// caller of RefreshSchema itself sees the error, for logging.
func (w *Workspace) RefreshSchema(ctx context.Context) error {
	w.dbMu.Lock()
	db := w.db
	w.dbMu.Unlock()

	if db == nil {
		return nil
	}
	if err := w.schema.Refresh(ctx, db); err != nil {
		w.logger.Info("schema snapshot refresh failed", "error", err.Error())
		return err
	}
	return nil
}

// connectDB opens (or closes) the workspace's database connection to
// match cfg, replacing any prior connection. A nil/disabled config
// closes the connection and leaves the schema cache on its last
// snapshot, matching §4.5's "absence of a snapshot must not break
// completion".
func (w *Workspace) connectDB(cfg jsonschemaconf.DBConfig) error {
	w.dbMu.Lock()
	defer w.dbMu.Unlock()

	if cfg.DisableConnection || cfg.Host == "" {
		if w.db != nil {
			w.db.Close()
			w.db = nil
		}
		return nil
	}

	dsn := dbConnString(cfg)
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("opening database connection: %w", err)
	}
	if w.db != nil {
		w.db.Close()
	}
	w.db = db
	return nil
}

func dbConnString(cfg jsonschemaconf.DBConfig) string {
	u := url.URL{Scheme: "postgres", Host: "localhost"}
	if cfg.Host != "" {
		u.Host = cfg.Host
	}
	if cfg.Port != 0 {
		u.Host = fmt.Sprintf("%s:%d", u.Hostname(), cfg.Port)
	}
	if cfg.Username != "" {
		if cfg.Password != "" {
			u.User = url.UserPassword(cfg.Username, cfg.Password)
		} else {
			u.User = url.User(cfg.Username)
		}
	}
	if cfg.Database != "" {
		u.Path = "/" + cfg.Database
	}
	q := u.Query()
	q.Set("sslmode", "disable")
	if cfg.ConnTimeoutSecs > 0 {
		q.Set("connect_timeout", strconv.Itoa(cfg.ConnTimeoutSecs))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Close releases every open document and the database connection. Use
// when shutting the server down entirely (not part of §6's per-document
// lifecycle, which is close_document).
func (w *Workspace) Close() {
	w.mu.Lock()
	for uri, doc := range w.docs {
		doc.Close()
		delete(w.docs, uri)
	}
	w.mu.Unlock()

	w.dbMu.Lock()
	if w.db != nil {
		w.db.Close()
		w.db = nil
	}
	w.dbMu.Unlock()
}
