// Package repository defines the persistence interface for inventory
// snapshots.
//
// Each load may be written to a store as a snapshot. Saving a snapshot
// replaces the previously stored hosts and groups and appends a row to the
// run history, so the store always reflects the most recent load.
//
// The sqlite subpackage implements SnapshotStore on a pure-Go SQLite
// driver. Host data and connection options are stored as JSON; group
// membership keeps the order the host listed its groups in.
package repository
