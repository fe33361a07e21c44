// Package pkglog sets up structured logging for the service.
//
// It installs a JSON slog handler as the process default and carries a
// correlation ID through context so every log line of one request (including
// the detached ingestion it spawns) can be tied together.
package pkglog
