// Package source reads the hospital table that feeds ingestion and the facet
// vocabulary.
//
// The table is CSV with a header row. Specialties and insurers are
// "|"-separated lists inside a single cell.
package source
