// Package journal implements the append-only operation log.
//
// Each entry is a single line:
//
//	[2006-01-02 15:04:05] EVENT: description
package journal

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/brettbedarf/simfs"
	"github.com/brettbedarf/simfs/internal/util"
)

// TimeLayout is the timestamp format of journal entries
const TimeLayout = "2006-01-02 15:04:05"

// Journal appends entries to an io.Writer. It never seeks or truncates.
type Journal struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer // nil when the writer is not owned
	now    func() time.Time
	closed bool
}

var _ simfs.Journal = (*Journal)(nil)

type Option func(*Journal)

// WithClock overrides the entry timestamp source
func WithClock(now func() time.Time) Option {
	return func(j *Journal) { j.now = now }
}

// New returns a journal writing to w. Close does not close w.
func New(w io.Writer, opts ...Option) *Journal {
	j := &Journal{w: w, now: time.Now}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Discard returns a journal that drops every entry
func Discard() *Journal {
	return New(io.Discard)
}

// Open opens (or creates) the journal file at path in append mode
func Open(path string, opts ...Option) (*Journal, error) {
	logger := util.GetLogger("Journal.Open")

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	logger.Debug().Str("path", path).Msg("Opened journal")

	j := New(f, opts...)
	j.closer = f
	return j, nil
}

// Log appends one entry
func (j *Journal) Log(event simfs.JournalEvent, description string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return os.ErrClosed
	}
	line := Format(Entry{Time: j.now(), Event: event, Description: description})
	if _, err := io.WriteString(j.w, line+"\n"); err != nil {
		return fmt.Errorf("append journal entry: %w", err)
	}
	return nil
}

// Close releases the underlying file, if owned. Subsequent calls are no-ops.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil
	}
	j.closed = true
	if j.closer != nil {
		return j.closer.Close()
	}
	return nil
}
