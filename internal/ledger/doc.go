// Package ledger persists pipeline run history and per-slide progress in
// SQLite for the status command. Asset files on disk, not the ledger,
// decide what a later run rebuilds.
package ledger
