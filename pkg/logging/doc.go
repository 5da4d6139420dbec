// Package logging provides structured logging for toolgate built on Go's
// standard slog package.
//
// Every log entry carries a subsystem tag identifying the component that
// produced it (e.g. "Registry", "HTTPClient", "Compliance"), a level, and a
// printf-formatted message. Errors are attached as a dedicated attribute so
// they survive JSON output intact.
//
// Initialize once at startup:
//
//	logging.Init(logging.LevelInfo, os.Stderr, false)
//
// Then log from anywhere:
//
//	logging.Info("Registry", "Registered adapter: %s", id)
//	logging.Error("HTTPClient", err, "Request to %s failed", url)
//
// Uninitialized use (library consumers, tests) degrades to stderr output for
// warnings and errors only.
package logging
