// Package splitter cuts article text into bounded, overlapping chunks
// for embedding. Chunk boundaries snap to the coarsest natural break
// available (paragraph, then line, then word) and the emitted ranges
// always cover the source text without gaps.
package splitter
