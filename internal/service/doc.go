// Package service implements the gateway's core rules between the HTTP
// boundary and the persistence, broker, and blob-store collaborators:
// request deduplication, correlation resolution, status resolution with
// stale-PENDING self-healing, cache policy per call-site, and artifact link
// issuing.
package service
