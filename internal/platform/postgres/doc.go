// Package postgres provides the SQL implementations of the store interfaces.
// Queries use $n placeholders and ON CONFLICT/RETURNING clauses understood
// by both PostgreSQL (pgx) and SQLite (modernc), so the same stores serve
// both drivers; only error mapping and DDL differ per dialect.
package postgres
