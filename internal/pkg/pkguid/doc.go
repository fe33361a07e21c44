// Package pkguid provides helpers for generating unique identifiers.
//
// The codebase uses these interfaces to avoid hard-coding a specific UID
// strategy. Depending on the use case you can generate:
//   - String IDs (UUIDs for correlation, upload_* IDs for ledger records).
//   - Numeric IDs (Snowflake-style IDs for object-store key suffixes).
package pkguid
