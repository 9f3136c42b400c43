// Package server implements the MCP (Model Context Protocol) server that
// exposes imagefit rendering as tools.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - imagefit_render: Fit an image to a size and return it base64-encoded
//   - imagefit_resolve: Show what a size argument resolves to
//   - imagefit_presets: List configured presets
//   - imagefit_info: Dimensions, format and colour space of a source image
//
// Renders go through the same render.Renderer as the HTTP server, so they
// share its cache and root directories.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// Lines that are not valid JSON get a -32700 parse error response.
//
// # Usage
//
//	srv := server.New(renderer, logger, version)
//	if err := srv.Serve(os.Stdin, os.Stdout); err != nil {
//	    logger.Error("mcp server stopped", "error", err)
//	}
package server
