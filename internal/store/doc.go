// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from
// the gateway's core logic, allowing dedup and status-resolution rules
// to remain independent of specific database technologies.
package store
