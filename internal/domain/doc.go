// Package domain defines the inventory data model handed to network
// automation tools.
//
// # Core Types
//
// Record is the flat attribute set returned by a device data source, keyed
// by canonical attribute names (see the Attr constants).
//
// Host is a managed device with a connection target, management port,
// platform identifier, group memberships and residual data.
//
// Group is a named bucket of hosts. Within one Inventory every group name
// maps to exactly one *Group, and hosts reference that same pointer.
//
// Inventory bundles the hosts, groups and defaults produced by one load.
package domain
