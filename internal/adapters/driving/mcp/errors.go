// Package mcp provides an MCP (Model Context Protocol) server adapter for lexgate.
// It lets AI assistants retrieve grounded Swiss legal evidence.
package mcp

import "errors"

// ErrMissingRetriever is returned when the retriever is not provided.
var ErrMissingRetriever = errors.New("mcp: retriever is required")
