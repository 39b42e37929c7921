// Package session provides core.SessionStore implementations: a volatile
// in-memory store for tests and demos, a JSON file-per-session store, and a
// Redis-backed store for deployments that need shared persistence.
package session
