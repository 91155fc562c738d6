// Package client talks to the storefront CMS.
//
// # Overview
//
//  1. A transport-agnostic API contract (see the Client interface) covering
//     authentication, profile updates, avatar uploads and content queries.
//  2. HTTPClient, the REST + GraphQL implementation. The bearer token is
//     passed per call; the client itself holds no session state.
//  3. Local persistence bootstrap (OpenDB, RunMigrations) for the SQLite
//     database that stores the session.
//
// # Error Handling
//
// Failures are returned as *APIError. Its Kind is one of the sentinels
// ErrAuth, ErrValidation, ErrNotAuthenticated, ErrNetwork, ErrUpdate or
// ErrQuery and can be matched with errors.Is. Error() is the human-readable
// message: the server's message when one is available, else a fallback.
package client
