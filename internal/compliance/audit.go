package compliance

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"toolgate/internal/api"
	"toolgate/internal/events"
	"toolgate/pkg/logging"

	"github.com/google/uuid"
)

// Sink persists audit entries durably. The in-memory ring is secondary; the
// sink is the record.
type Sink interface {
	Write(ctx context.Context, entry api.AuditEntry) error
	Close() error
}

// defaultRingSize bounds the in-memory secondary buffer.
const defaultRingSize = 1000

// AuditLog is the append-only compliance audit trail. Entries get a
// monotonically increasing sequence number and are persisted by a dedicated
// writer goroutine so filters never block on sink latency.
type AuditLog struct {
	sink Sink
	bus  *events.Bus

	mu   sync.Mutex
	seq  uint64
	ring []api.AuditEntry
	next int
	full bool

	entries chan api.AuditEntry
	done    chan struct{}
	once    sync.Once
}

// NewAuditLog creates an audit log over a sink and starts the writer. A nil
// sink keeps entries in memory only, which is acceptable for tests and
// nothing else.
func NewAuditLog(sink Sink, bus *events.Bus) *AuditLog {
	l := &AuditLog{
		sink:    sink,
		bus:     bus,
		ring:    make([]api.AuditEntry, defaultRingSize),
		entries: make(chan api.AuditEntry, 256),
		done:    make(chan struct{}),
	}
	go l.writer()
	return l
}

// Record appends one audit entry. The sequence is assigned under the lock so
// it is strictly monotonic across concurrent recorders. Details must never
// contain raw values of prohibited fields; callers record field names only.
func (l *AuditLog) Record(action string, details map[string]interface{}) {
	l.mu.Lock()
	l.seq++
	entry := api.AuditEntry{
		ID:        uuid.New().String(),
		Sequence:  l.seq,
		Timestamp: time.Now().UTC(),
		Action:    action,
		Details:   details,
	}
	l.ring[l.next] = entry
	l.next = (l.next + 1) % len(l.ring)
	if l.next == 0 {
		l.full = true
	}
	l.mu.Unlock()

	// Blocking send preserves append order into the sink.
	select {
	case l.entries <- entry:
	case <-l.done:
	}
}

// Recent returns up to n entries from the in-memory ring, oldest first so
// the newest entry is last.
func (l *AuditLog) Recent(n int) []api.AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	size := l.next
	if l.full {
		size = len(l.ring)
	}
	if n <= 0 || n > size {
		n = size
	}

	out := make([]api.AuditEntry, 0, n)
	for i := n; i >= 1; i-- {
		idx := (l.next - i + len(l.ring)) % len(l.ring)
		out = append(out, l.ring[idx])
	}
	return out
}

// Close stops the writer after draining queued entries.
func (l *AuditLog) Close() error {
	l.once.Do(func() {
		close(l.done)
	})
	if l.sink != nil {
		return l.sink.Close()
	}
	return nil
}

func (l *AuditLog) writer() {
	for {
		select {
		case entry := <-l.entries:
			l.persist(entry)
		case <-l.done:
			// Drain whatever is still queued before exiting.
			for {
				select {
				case entry := <-l.entries:
					l.persist(entry)
				default:
					return
				}
			}
		}
	}
}

func (l *AuditLog) persist(entry api.AuditEntry) {
	if l.sink != nil {
		if err := l.sink.Write(context.Background(), entry); err != nil {
			logging.Error("Audit", err, "Failed to persist audit entry %d (%s)", entry.Sequence, entry.Action)
		}
	}
	if l.bus != nil {
		l.bus.Publish(events.Event{
			Type:    events.TypeAuditLogged,
			Service: "audit",
			Fields: map[string]interface{}{
				"action":   entry.Action,
				"sequence": entry.Sequence,
			},
		})
	}
}

// FileSink appends entries as JSON lines to an append-only file.
type FileSink struct {
	mu   sync.Mutex
	file *os.File
}

// NewFileSink opens (or creates) the audit file in append-only mode.
func NewFileSink(path string) (*FileSink, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit file %s: %w", path, err)
	}
	return &FileSink{file: file}, nil
}

func (s *FileSink) Write(_ context.Context, entry api.AuditEntry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to serialize audit entry: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.file.Write(append(line, '\n'))
	return err
}

func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

// Execer is the slice of database/sql the SQL sink needs. *sql.DB satisfies
// it directly.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// sqlInsert is the append statement. The table has no UPDATE or DELETE path.
const sqlInsert = `INSERT INTO audit_entries (id, sequence, ts, action, details) VALUES (?, ?, ?, ?, ?)`

// SQLSink persists entries into a relational audit_entries table.
type SQLSink struct {
	db Execer
}

// NewSQLSink wraps a database handle as an audit sink.
func NewSQLSink(db Execer) *SQLSink {
	return &SQLSink{db: db}
}

func (s *SQLSink) Write(ctx context.Context, entry api.AuditEntry) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("failed to serialize audit details: %w", err)
	}
	_, err = s.db.ExecContext(ctx, sqlInsert,
		entry.ID, entry.Sequence, entry.Timestamp, entry.Action, string(details))
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

func (s *SQLSink) Close() error {
	if closer, ok := s.db.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
