// Package pipeline provides the building blocks of the ingest flow:
// a generic concurrent transform stage, a batching stage, the dump
// reader that feeds the pipeline and the indexer that drains it.
//
// Stages communicate over bounded channels so a slow consumer exerts
// backpressure on everything upstream of it. Only the dump reader is
// allowed unbounded read-ahead, and only within its decoder buffer.
package pipeline
