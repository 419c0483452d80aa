// Package services contains the application core: search and document
// resolution, the query engine, the ingest orchestrator and the store
// reconciler. Services depend only on the driven ports; adapters are
// injected at startup.
package services
