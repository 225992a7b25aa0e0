// Package rebind provides a reactive resource lifecycle runtime.
//
// It offers:
// - lazy, exactly-once construction of resource instances per binding
// - change-driven update-in-place through a memoized recomputation cell
// - argument thunks normalized into a canonical positional/named record
// - cascading teardown through an explicit ownership tree
// - transparent key forwarding to the live instance through views
// - declarative (kind, driver) resource specs with generic definitions
package rebind
