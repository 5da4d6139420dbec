// Package compliance implements the regulation pipeline: per-regulation
// validators over service descriptors (PCI, GDPR, PSD2, SOX, HIPAA),
// request/response data handling filters, and the append-only audit trail.
//
// Filters never mutate caller payloads; each returns a deep-copied, filtered
// payload. Prohibited PCI fields are deleted wherever they appear, card
// numbers are masked to first-six/last-four, designated sensitive fields are
// encrypted with AES-256-GCM, and GDPR personal identifiers are replaced
// with stable keyed-HMAC pseudonyms. PSD2 payment operations above the
// amount threshold require two authentication factors from distinct
// categories.
//
// Field lists are configuration, loaded from YAML at startup and refreshed
// through a managed fsnotify reload, never mutated at runtime otherwise.
//
// Audit entries carry a strictly monotonic sequence and are persisted by a
// dedicated writer goroutine to a durable sink (file or SQL); an in-memory
// ring is the secondary read path. Entry details never contain raw values of
// prohibited fields.
package compliance
