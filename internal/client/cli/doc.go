// Package cli provides the interactive GophLoyalty command-line client.
//
// NewApp wires configuration, the local SQLite state, the backend clients,
// the session manager and the account services. App.Run restores the
// persisted session and starts a REPL that blocks until the user exits.
//
// Key features:
//   - Sign in / sign up with email verification, sign out
//   - Member card with tier progress, profile editing and picture upload
//   - Rewards catalog and redemption
//   - Stores ranked by distance, selection and directions
//   - Activity feed, ledger reconciliation, notification settings
//   - Account deletion
//
// See App, runREPL and execIface for details.
package cli
