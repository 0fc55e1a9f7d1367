// Package postgres provides PostgreSQL-backed implementations of the
// gateway's store interfaces and of the broker task-queue collaborator.
// Deduplication atomicity is enforced here with a partial unique index on
// the computation dedup key rather than any in-process lock, so it holds
// across multiple gateway instances.
package postgres
