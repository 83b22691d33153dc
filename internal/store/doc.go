package store

// Package store keeps download task history in a local SQLite database so the
// queue survives restarts. Tasks are stored as JSON payloads keyed by id.
