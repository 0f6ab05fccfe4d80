// Package session houses conversation storage for investigation runs. The
// Store interface keeps higher level packages (engine, façade) independent of
// concrete storage; additional backends (Redis, Postgres, etc.) can be added
// in subpackages without changing any calling code.
package session
