package core

// Document represents a single row of a table keyed by column name.
// It is the shape rows take when they leave the engine (previews, JSON
// responses, ingestion input).
type Document map[string]any
