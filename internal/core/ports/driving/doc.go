// Package driving declares the operations the CLI, the MCP server and the
// TUI call on the core. internal/core/services implements all of them.
package driving
