// Package driving declares the entry-point contracts the outside world
// uses to drive the core: querying and ingestion.
package driving
