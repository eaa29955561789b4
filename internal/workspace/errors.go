// SPDX-License-Identifier: Apache-2.0

package workspace

import "fmt"

// NotOpenError reports an operation against a URI with no open document
// (§7: "NotOpen ... document-lifecycle violations. Surfaced to caller").
type NotOpenError struct {
	URI string
}

func (e NotOpenError) Error() string {
	return fmt.Sprintf("document %s is not open", e.URI)
}

// AlreadyOpenError reports an open_document call against a URI that is
// already open (§7: "AlreadyOpen").
type AlreadyOpenError struct {
	URI string
}

func (e AlreadyOpenError) Error() string {
	return fmt.Sprintf("document %s is already open", e.URI)
}

// UnknownStatementError reports an execute_statement command naming a
// statement id the target document no longer has, e.g. because an edit
// retired it between the code action being offered and being invoked.
type UnknownStatementError struct {
	URI         string
	StatementID string
}

func (e UnknownStatementError) Error() string {
	return fmt.Sprintf("document %s: no statement with id %s", e.URI, e.StatementID)
}

// UnknownCommandError reports an execute_command call naming a command
// this workspace doesn't implement.
type UnknownCommandError struct {
	Name string
}

func (e UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command %q", e.Name)
}

// ConfigError wraps an update_settings failure. §7: "surfaced at
// update_settings; prior configuration remains active" — the caller is
// responsible for that half; this type just carries the cause.
type ConfigError struct {
	Cause error
}

func (e ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %v", e.Cause)
}

func (e ConfigError) Unwrap() error { return e.Cause }
