// Package cli provides the interactive Turismap command-line client.
//
// It wires configuration, the local cache, the gRPC client and the session
// manager behind a small REPL. Typical flow: resume the remembered session
// or prompt for credentials, start a background connectivity watcher, and
// execute user commands against the synchronizers of the open session.
//
// Tourists manage favorites and plans, sellers manage their products and
// storefront, and everybody can browse the catalog.
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher, and runREPL for details.
package cli
