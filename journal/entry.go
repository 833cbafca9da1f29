package journal

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/brettbedarf/simfs"
)

// Entry is one parsed journal line
type Entry struct {
	Time        time.Time
	Event       simfs.JournalEvent
	Description string
}

// Format renders e as a journal line without the trailing newline
func Format(e Entry) string {
	return fmt.Sprintf("[%s] %s: %s", e.Time.Format(TimeLayout), e.Event, e.Description)
}

// Parse reads a single journal line
func Parse(line string) (Entry, error) {
	if !strings.HasPrefix(line, "[") {
		return Entry{}, fmt.Errorf("malformed journal line %q", line)
	}
	stamp, rest, ok := strings.Cut(line[1:], "] ")
	if !ok {
		return Entry{}, fmt.Errorf("malformed journal line %q", line)
	}
	t, err := time.ParseInLocation(TimeLayout, stamp, time.Local)
	if err != nil {
		return Entry{}, fmt.Errorf("journal timestamp: %w", err)
	}
	event, desc, ok := strings.Cut(rest, ":")
	if !ok || event == "" {
		return Entry{}, fmt.Errorf("malformed journal line %q", line)
	}
	return Entry{
		Time:        t,
		Event:       simfs.JournalEvent(event),
		Description: strings.TrimPrefix(desc, " "),
	}, nil
}

// ReadAll parses every line of r. Blank lines are skipped.
func ReadAll(r io.Reader) ([]Entry, error) {
	var entries []Entry
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		e, err := Parse(line)
		if err != nil {
			return entries, fmt.Errorf("line %d: %w", lineNo, err)
		}
		entries = append(entries, e)
	}
	return entries, sc.Err()
}
