// Package sqlite provides a SQLite-backed implementation of the
// document store port.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO, enabling easy cross-compilation. Document bodies are stored
// gzip-compressed, which roughly quarters the database size for article text.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// Besides the documents table the schema holds an id_sequences table: document
// ids double as vector ids in the search index, so allocation must be durable
// and ids must never be reissued after a crash.
//
// # Data Location
//
// By default, the database is stored at ~/.wikidex/data/documents.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
