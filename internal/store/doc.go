// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from
// the application's core logic. The SQL implementations live in
// internal/platform/postgres (shared with SQLite) and the REST
// implementation in internal/platform/supabase.
package store
