// SPDX-License-Identifier: Apache-2.0

// Package lsp is the wire boundary of §6/§11.6: it maps standard LSP
// methods onto the internal/workspace Workspace API, using real
// transport/protocol packages from the retrieval pack
// (github.com/sourcegraph/jsonrpc2 for JSON-RPC 2.0 framing,
// github.com/sourcegraph/go-lsp for LSP's wire types) since no complete
// teacher-tier repo is itself an LSP server.
package lsp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	goLsp "github.com/sourcegraph/go-lsp"
	"github.com/sourcegraph/jsonrpc2"

	"github.com/pgsqlls/pgsqlls/internal/jsonschemaconf"
	"github.com/pgsqlls/pgsqlls/internal/workspace"
)

// Server dispatches JSON-RPC requests onto a Workspace. Its handle method
// is wrapped with jsonrpc2.HandlerWithError, and it keeps the
// *jsonrpc2.Conn requests arrive on so publishDiagnostics notifications
// can be sent from within a request handler.
type Server struct {
	ws     *workspace.Workspace
	logger workspace.Logger
	conn   *jsonrpc2.Conn

	// docVersions tracks the last version opened/changed per URI so a
	// didChange with no explicit version (some clients omit it) can still
	// be applied with the next strictly-increasing integer.
	docVersions map[string]int
}

// NewServer wraps ws as a jsonrpc2.Handler.
func NewServer(ws *workspace.Workspace, logger workspace.Logger) *Server {
	return &Server{ws: ws, logger: logger, docVersions: make(map[string]int)}
}

// Serve runs the LSP server over rwc (typically stdin/stdout) until the
// connection closes or ctx is cancelled, using JSON-RPC 2.0 framing with
// the VSCode-style Content-Length header codec.
func Serve(ctx context.Context, rwc io.ReadWriteCloser, ws *workspace.Workspace, logger workspace.Logger) error {
	server := NewServer(ws, logger)
	stream := jsonrpc2.NewBufferedStream(rwc, jsonrpc2.VSCodeObjectCodec{})
	conn := jsonrpc2.NewConn(ctx, stream, jsonrpc2.HandlerWithError(server.handle))
	server.conn = conn
	select {
	case <-conn.DisconnectNotify():
	case <-ctx.Done():
		conn.Close()
	}
	return nil
}

// conn is set once Serve establishes the connection, so request handlers
// can send server-initiated notifications (publishDiagnostics) back out.
func (s *Server) handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
	s.conn = conn
	switch req.Method {
	case "initialize":
		return s.initialize(req)
	case "initialized", "$/cancelRequest":
		return nil, nil
	case "shutdown":
		return nil, nil
	case "exit":
		return nil, conn.Close()

	case "textDocument/didOpen":
		return nil, s.didOpen(ctx, req)
	case "textDocument/didChange":
		return nil, s.didChange(ctx, req)
	case "textDocument/didClose":
		return nil, s.didClose(req)

	case "textDocument/completion":
		return s.completion(ctx, req)
	case "textDocument/codeAction":
		return s.codeAction(req)
	case "workspace/executeCommand":
		return s.executeCommand(ctx, req)
	case "workspace/didChangeConfiguration":
		return nil, s.didChangeConfiguration(req)

	default:
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: fmt.Sprintf("method not found: %s", req.Method)}
	}
}

func unmarshalParams(req *jsonrpc2.Request, v any) error {
	if req.Params == nil {
		return errors.New("missing params")
	}
	return json.Unmarshal(*req.Params, v)
}

func (s *Server) initialize(req *jsonrpc2.Request) (any, error) {
	return goLsp.InitializeResult{
		Capabilities: goLsp.ServerCapabilities{
			TextDocumentSync: &goLsp.TextDocumentSyncOptionsOrKind{
				Options: &goLsp.TextDocumentSyncOptions{
					OpenClose: true,
					Change:    goLsp.TDSKIncremental,
				},
			},
			CompletionProvider: &goLsp.CompletionOptions{
				TriggerCharacters: []string{".", " "},
			},
			CodeActionProvider:     true,
			ExecuteCommandProvider: &goLsp.ExecuteCommandOptions{Commands: []string{workspace.ExecuteStatementCommand}},
		},
	}, nil
}

func (s *Server) didOpen(_ context.Context, req *jsonrpc2.Request) error {
	var params goLsp.DidOpenTextDocumentParams
	if err := unmarshalParams(req, &params); err != nil {
		return err
	}
	uri := string(params.TextDocument.URI)
	s.docVersions[uri] = params.TextDocument.Version
	if err := s.ws.OpenDocument(uri, params.TextDocument.Version, params.TextDocument.Text); err != nil {
		return err
	}
	return s.publishDiagnostics(context.Background(), uri)
}

func (s *Server) didChange(ctx context.Context, req *jsonrpc2.Request) error {
	var params goLsp.DidChangeTextDocumentParams
	if err := unmarshalParams(req, &params); err != nil {
		return err
	}
	uri := string(params.TextDocument.URI)
	version := params.TextDocument.Version
	if version == 0 {
		version = s.docVersions[uri] + 1
	}
	s.docVersions[uri] = version

	edits := toInternalEdits(params.ContentChanges)

	if _, err := s.ws.ChangeDocument(uri, version, edits); err != nil {
		return err
	}
	return s.publishDiagnostics(ctx, uri)
}

func (s *Server) didClose(req *jsonrpc2.Request) error {
	var params goLsp.DidCloseTextDocumentParams
	if err := unmarshalParams(req, &params); err != nil {
		return err
	}
	uri := string(params.TextDocument.URI)
	delete(s.docVersions, uri)
	return s.ws.CloseDocument(uri)
}

// publishDiagnostics implements the server-initiated half of
// pull_diagnostics (§6): `textDocument/publishDiagnostics`, tagged with
// the document's version per §5.
func (s *Server) publishDiagnostics(ctx context.Context, uri string) error {
	if s.conn == nil {
		return nil
	}
	diags, err := s.ws.PullDiagnostics(ctx, uri)
	if err != nil {
		return nil
	}
	lspDiags := make([]goLsp.Diagnostic, len(diags))
	for i, d := range diags {
		lspDiags[i] = diagnosticToLSP(d)
	}
	return s.conn.Notify(ctx, "textDocument/publishDiagnostics", struct {
		URI         goLsp.DocumentURI  `json:"uri"`
		Version     int                `json:"version"`
		Diagnostics []goLsp.Diagnostic `json:"diagnostics"`
	}{
		URI:         goLsp.DocumentURI(uri),
		Version:     s.docVersions[uri],
		Diagnostics: lspDiags,
	})
}

func (s *Server) completion(ctx context.Context, req *jsonrpc2.Request) (any, error) {
	var params goLsp.CompletionParams
	if err := unmarshalParams(req, &params); err != nil {
		return nil, err
	}
	uri := string(params.TextDocument.URI)
	items, err := s.ws.Completions(ctx, uri, toInternalPosition(params.Position))
	if err != nil {
		return nil, err
	}
	out := make([]goLsp.CompletionItem, len(items))
	for i, it := range items {
		out[i] = completionItemToLSP(it)
	}
	return goLsp.CompletionList{IsIncomplete: false, Items: out}, nil
}

func (s *Server) codeAction(req *jsonrpc2.Request) (any, error) {
	var params goLsp.CodeActionParams
	if err := unmarshalParams(req, &params); err != nil {
		return nil, err
	}
	uri := string(params.TextDocument.URI)
	actions, err := s.ws.CodeActions(uri, toInternalRange(params.Range))
	if err != nil {
		return nil, err
	}
	out := make([]goLsp.Command, len(actions))
	for i, a := range actions {
		out[i] = goLsp.Command{Title: a.Title, Command: a.Command, Arguments: a.Args}
	}
	return out, nil
}

func (s *Server) executeCommand(ctx context.Context, req *jsonrpc2.Request) (any, error) {
	var params goLsp.ExecuteCommandParams
	if err := unmarshalParams(req, &params); err != nil {
		return nil, err
	}
	result, err := s.ws.ExecuteCommand(ctx, params.Command, params.Arguments)
	if err != nil {
		return nil, err
	}
	return result.String(), nil
}

func (s *Server) didChangeConfiguration(req *jsonrpc2.Request) error {
	var params struct {
		Settings json.RawMessage `json:"settings"`
	}
	if err := unmarshalParams(req, &params); err != nil {
		return err
	}
	var raw map[string]any
	if err := json.Unmarshal(params.Settings, &raw); err != nil {
		return err
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	if err := jsonschemaconf.Validate(raw); err != nil {
		return fmt.Errorf("configuration failed schema validation: %w", err)
	}
	var doc jsonschemaconf.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	return s.ws.UpdateSettings(&doc)
}
