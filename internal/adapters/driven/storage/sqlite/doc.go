// Package sqlite provides the default persistent VectorStore.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Vectors are stored as little-endian
// float32 blobs next to the chunk text and searched by a brute-force cosine scan,
// which is adequate for rulebook-sized collections.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Applied versions are recorded in schema_migrations.
//
// # Data Location
//
// The database file is <storage.path>/index.db.
//
// # Thread Safety
//
// All operations are thread-safe. Each search runs as a single read statement,
// so a concurrent ingestion is either fully visible or not at all (WAL mode).
package sqlite
