// Package testutil contains sample domain entries, catalog and record builders
// and loggers shared by the package tests. The domain types (weapons with mod
// inventories, deployables pointing back at their weapon, frames, mechs and
// pilots) exercise cycles, diamonds and nested inventories. They are not
// intended for production usage.
package testutil
