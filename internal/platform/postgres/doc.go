// Package postgres provides PostgreSQL implementations of the store
// interfaces used by the upload-processing pipeline, plus the embedded
// schema migrations.
//
// Every store takes a store.DBTX, so the same implementation runs
// against a pooled *sql.DB or inside a caller-managed *sql.Tx. Database
// errors are mapped to the sentinel errors in the store package through
// MapError so callers never depend on driver-specific error types.
package postgres
