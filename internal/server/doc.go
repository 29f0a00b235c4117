// Package server implements the MCP (Model Context Protocol) server for plate
// rectification.
//
// This package provides a JSON-RPC 2.0 server that exposes the rectification
// engine through the MCP protocol, so an assistant can turn detector boxes
// into plate images and inspect the line evidence behind them.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Logs go to stderr so they never interleave with responses.
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - plate_rectify: Run the fallback chain for one detector box and return
//     the plate image as base64 PNG, with the state trail and corners
//   - plate_detect_lines: Merged horizontal and vertical line segments of an
//     image or region
//   - plate_find_corners: The reconstructed plate quadrilateral of an image
//     or region
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//   - Regions are given as x1, y1 (inclusive) and x2, y2 (exclusive)
//
// Results computed on a region are reported in full-image coordinates.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// A missed plate or a region without a quadrilateral is not an error; the
// result says so in its state or reason fields.
//
// # Usage
//
//	srv, err := server.New(pipeline.DefaultConfig(), logrus.StandardLogger())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
