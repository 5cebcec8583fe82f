// Package logger keeps a bounded, de-duplicating list of tagged log entries.
// The application creates one Logger and hands it to whatever needs it; the
// emulation packages never log.
package logger

import (
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"
)

// Level orders entries by severity. Entries below the logger's level are
// dropped.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "debug"
	case Info:
		return "info"
	case Warn:
		return "warn"
	case Error:
		return "error"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// ParseLevel accepts the names printed by Level.String.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return Debug, nil
	case "info", "":
		return Info, nil
	case "warn", "warning":
		return Warn, nil
	case "error":
		return Error, nil
	}
	return Info, fmt.Errorf("unknown log level %q", s)
}

// Entry is a single line in the log.
type Entry struct {
	Timestamp time.Time
	Level     Level
	Tag       string
	Detail    string
	Repeated  int
}

func (e Entry) String() string {
	s := strings.Builder{}
	fmt.Fprintf(&s, "%s: %s", e.Tag, e.Detail)
	if e.Repeated > 0 {
		fmt.Fprintf(&s, " (repeat x%d)", e.Repeated+1)
	}
	s.WriteString("\n")
	return s.String()
}

// Logger is safe for concurrent use.
type Logger struct {
	mu         sync.Mutex
	maxEntries int
	entries    []Entry
	level      Level
	echo       *log.Logger
}

// DefaultMaxEntries is used by New when max is not positive.
const DefaultMaxEntries = 256

// New returns a logger holding at most max entries.
func New(max int) *Logger {
	if max <= 0 {
		max = DefaultMaxEntries
	}
	return &Logger{
		maxEntries: max,
		level:      Info,
	}
}

// SetLevel sets the lowest level that is recorded.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// SetEcho prints every new entry to w as "[tag] detail". A nil w stops
// echoing.
func (l *Logger) SetEcho(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if w == nil {
		l.echo = nil
		return
	}
	l.echo = log.New(w, "", log.LstdFlags)
}

// Log adds an entry. detail may be a string, an error, a fmt.Stringer or
// anything fmt can print.
func (l *Logger) Log(level Level, tag string, detail any) {
	var s string
	switch d := detail.(type) {
	case string:
		s = d
	case error:
		s = d.Error()
	case fmt.Stringer:
		s = d.String()
	default:
		s = fmt.Sprintf("%v", d)
	}
	l.add(level, tag, s)
}

// Logf adds a formatted entry.
func (l *Logger) Logf(level Level, tag, format string, args ...any) {
	l.add(level, tag, fmt.Sprintf(format, args...))
}

func (l *Logger) add(level Level, tag, detail string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	tag = strings.ReplaceAll(tag, "\n", "")
	detail = strings.ReplaceAll(detail, "\n", "")

	now := time.Now()
	if n := len(l.entries); n > 0 && l.entries[n-1].Tag == tag && l.entries[n-1].Detail == detail {
		l.entries[n-1].Repeated++
		l.entries[n-1].Timestamp = now
	} else {
		l.entries = append(l.entries, Entry{Timestamp: now, Level: level, Tag: tag, Detail: detail})
		if len(l.entries) > l.maxEntries {
			l.entries = append(l.entries[:0], l.entries[len(l.entries)-l.maxEntries:]...)
		}
	}

	if l.echo != nil {
		l.echo.Printf("[%s] %s", tag, detail)
	}
}

// Clear removes every entry.
func (l *Logger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = l.entries[:0]
}

// Write writes every entry to w.
func (l *Logger) Write(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		io.WriteString(w, e.String())
	}
}

// Tail writes the last n entries to w.
func (l *Logger) Tail(w io.Writer, n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n > len(l.entries) {
		n = len(l.entries)
	}
	if n <= 0 {
		return
	}
	for _, e := range l.entries[len(l.entries)-n:] {
		io.WriteString(w, e.String())
	}
}

// Entries returns a copy of the log.
func (l *Logger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Entry(nil), l.entries...)
}

// Tagged binds a tag so the logger can stand in for a one-argument status
// callback.
type Tagged struct {
	Logger *Logger
	Tag    string
	Level  Level
}

// Status logs message under the bound tag.
func (t Tagged) Status(message string) {
	t.Logger.Log(t.Level, t.Tag, message)
}
