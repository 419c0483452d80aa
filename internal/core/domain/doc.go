// Package domain contains the core entities of the wikidex engine.
//
// Domain types are plain data with no behaviour beyond simple projections.
// They are produced by one pipeline stage or service and flow onwards
// without being mutated in place.
package domain
