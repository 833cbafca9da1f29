package simfs

// Journal is the append-only operation log. Every mutating operation is
// bracketed by a START and a COMMIT entry; persistence failures add a
// CRITICAL_ERROR entry. Implementations must never truncate or rewrite
// previously written entries.
type Journal interface {
	// Log appends a single "[timestamp] EVENT: description" line
	Log(event JournalEvent, description string) error

	// Close flushes and releases the underlying writer
	Close() error
}

// SnapshotStore persists a whole-tree image. Save overwrites the previous
// image wholesale; Load returns ErrNoSnapshot when nothing was saved yet.
type SnapshotStore interface {
	Load() (*NodeImage, error)
	Save(root *NodeImage) error
}

// JournalEvent names a journal line kind
type JournalEvent string

const (
	EventBoot          JournalEvent = "BOOT"
	EventStart         JournalEvent = "START"
	EventCommit        JournalEvent = "COMMIT"
	EventCriticalError JournalEvent = "CRITICAL_ERROR"
	EventShutdown      JournalEvent = "SHUTDOWN"
)
