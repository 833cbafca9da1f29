package journal

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/brettbedarf/simfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() func() time.Time {
	t := time.Date(2024, 3, 9, 14, 5, 7, 0, time.Local)
	return func() time.Time { return t }
}

func TestJournal_LogFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	j := New(&buf, WithClock(fixedClock()))

	require.NoError(t, j.Log(simfs.EventStart, "mkdir docs"))
	require.NoError(t, j.Log(simfs.EventCommit, "mkdir docs"))

	assert.Equal(t,
		"[2024-03-09 14:05:07] START: mkdir docs\n[2024-03-09 14:05:07] COMMIT: mkdir docs\n",
		buf.String())
}

func TestJournal_OpenAppends(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "journal.log")

	j, err := Open(path, WithClock(fixedClock()))
	require.NoError(t, err)
	require.NoError(t, j.Log(simfs.EventBoot, "No file system found. Formatting disk."))
	require.NoError(t, j.Close())

	j, err = Open(path, WithClock(fixedClock()))
	require.NoError(t, err)
	require.NoError(t, j.Log(simfs.EventBoot, "File System loaded successfully."))
	require.NoError(t, j.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Formatting disk.")
	assert.Contains(t, lines[1], "loaded successfully.")
}

func TestJournal_Closed(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	j := New(&buf)
	require.NoError(t, j.Close())
	require.NoError(t, j.Close(), "second close is a no-op")

	err := j.Log(simfs.EventStart, "rm x")
	require.ErrorIs(t, err, os.ErrClosed)
	assert.Empty(t, buf.String())
}

func TestParse(t *testing.T) {
	t.Parallel()

	e, err := Parse("[2024-03-09 14:05:07] CRITICAL_ERROR: Failed to save to disk: rm x: disk full")
	require.NoError(t, err)
	assert.Equal(t, simfs.EventCriticalError, e.Event)
	assert.Equal(t, "Failed to save to disk: rm x: disk full", e.Description)
	assert.Equal(t, 2024, e.Time.Year())

	for _, bad := range []string{"", "START: x", "[2024-03-09 14:05:07]", "[yesterday] START: x", "[2024-03-09 14:05:07] nothing"} {
		_, err := Parse(bad)
		assert.Error(t, err, "line %q", bad)
	}
}

func TestReadAll_RoundTrip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	j := New(&buf, WithClock(fixedClock()))
	require.NoError(t, j.Log(simfs.EventStart, "mv a b"))
	require.NoError(t, j.Log(simfs.EventCommit, "mv a b"))
	buf.WriteString("\n")

	entries, err := ReadAll(&buf)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, simfs.EventStart, entries[0].Event)
	assert.Equal(t, simfs.EventCommit, entries[1].Event)
	assert.Equal(t, "mv a b", entries[1].Description)
}
