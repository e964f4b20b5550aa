// Package postgres implements the store interfaces on PostgreSQL through the
// pgx stdlib driver. It also owns the embedded goose migrations that define
// the tasks and task_audit_events tables.
package postgres
