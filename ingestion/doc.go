// Package ingestion loads the hospital table into the vector index.
//
// Each row is normalized into a core.Document: a synthesized description used
// for retrieval plus flat metadata used for filtering. A row never fails
// ingestion; malformed numbers fall back to 0 and are logged at debug level.
//
// The Pipeline hands every document to the index in a single WriteBatch call.
// The index splits that into bounded transactions. Documents are keyed by
// hospital name, city and address, so running ingestion twice replaces
// documents instead of duplicating them.
package ingestion
