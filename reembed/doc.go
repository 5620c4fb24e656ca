// Package reembed recomputes the vectors of every indexed hospital document,
// for use after the embedding model or its dimension changes.
//
// Documents are read in batches, embedded with retry and exponential backoff,
// and written back in place. Content and metadata are not touched.
package reembed
