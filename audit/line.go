package audit

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// Entry is a parsed log line: "<timestamp> [<LEVEL>] <message>". Both audit
// lines and application log lines share this prefix.
type Entry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

// ErrMalformedLine is returned for lines without a bracketed level.
var ErrMalformedLine = errors.New("audit: malformed log line")

// FormatLine renders rec as a single newline terminated audit line.
func FormatLine(rec Record) ([]byte, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	b.Grow(len(payload) + 48)
	b.WriteString(rec.Timestamp.UTC().Format(time.RFC3339Nano))
	b.WriteString(" [")
	b.WriteString(rec.Level)
	b.WriteString("] ")
	b.Write(payload)
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

// ParseLine splits a line on its first bracketed token. The timestamp is
// the text before it, the level the text inside and the message the rest.
func ParseLine(line string) (Entry, bool) {
	line = strings.TrimRight(line, "\r\n")
	open := strings.IndexByte(line, '[')
	if open < 0 {
		return Entry{}, false
	}
	end := strings.IndexByte(line[open+1:], ']')
	if end < 0 {
		return Entry{}, false
	}
	end += open + 1

	entry := Entry{
		Timestamp: strings.TrimSpace(line[:open]),
		Level:     strings.TrimSpace(line[open+1 : end]),
		Message:   strings.TrimSpace(line[end+1:]),
	}
	if entry.Timestamp == "" || entry.Level == "" {
		return Entry{}, false
	}
	return entry, true
}

// DecodeLine parses an audit line back into its Record.
func DecodeLine(line string) (Record, error) {
	entry, ok := ParseLine(line)
	if !ok {
		return Record{}, ErrMalformedLine
	}
	var rec Record
	if err := json.Unmarshal([]byte(entry.Message), &rec); err != nil {
		return Record{}, fmt.Errorf("%w: %w", ErrMalformedLine, err)
	}
	return rec, nil
}

// ReadEntries parses every well formed line from r. Lines that do not
// start with "timestamp [LEVEL]", such as wrapped continuations, are
// appended to the previous entry's message.
func ReadEntries(r io.Reader) ([]Entry, error) {
	var entries []Entry
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			if entry, ok := ParseLine(line); ok {
				entries = append(entries, entry)
			} else if trimmed := strings.TrimSpace(line); trimmed != "" && len(entries) > 0 {
				last := &entries[len(entries)-1]
				last.Message += "\n" + trimmed
			}
		}
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return entries, err
		}
	}
}

// Levels returns the distinct levels of entries in first seen order.
func Levels(entries []Entry) []string {
	seen := map[string]bool{}
	var out []string
	for _, e := range entries {
		if !seen[e.Level] {
			seen[e.Level] = true
			out = append(out, e.Level)
		}
	}
	return out
}

// FilterLevel keeps entries whose level matches, ignoring case. An empty
// level keeps everything.
func FilterLevel(entries []Entry, level string) []Entry {
	if level == "" {
		return entries
	}
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if strings.EqualFold(e.Level, level) {
			out = append(out, e)
		}
	}
	return out
}
