// Package clitool implements the provider adapter for CLI-driven tools.
//
// Some backends are not servers at all: a locally installed command that
// accepts a prompt on stdin and writes the completion to stdout. The
// adapter renders the conversation into a role-prefixed transcript, runs
// the configured command under the caller's context, and returns stdout as
// the completion. Streaming yields stdout line by line.
//
// The availability probe is a PATH lookup of the configured command, and
// model enumeration degrades to the configured default: CLI tools expose
// no model query.
package clitool
