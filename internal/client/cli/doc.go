// Package cli provides the interactive storefront command-line client.
//
// It wires configuration, the local SQLite store, the API client, the
// session and content services and a REPL. On start the stored session is
// restored in the background and a watcher probes the API health endpoint
// to show whether the client is online.
//
// Key features:
//   - Register / Login / Logout, password reset
//   - Account view, profile updates, avatar upload
//   - Blog feed grouped by week, article pages
//   - Shop catalogue with category chips, product pages
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher, and runREPL for details.
package cli
