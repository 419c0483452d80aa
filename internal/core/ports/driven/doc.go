// Package driven declares the contracts the core requires from its
// collaborators: embedding, chat completion, the vector index, the
// document store and the config and prompt stores. Adapters implement
// these; services depend on them.
package driven
