package loganalytics

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
)

// Level scores, per spec.md §4.3: TRACE=0, DEBUG=10, INFO=20,
// WARN=WARNING=30, ERROR=40, FATAL=CRITICAL=50; unknown levels score 20.
var severityScores = map[string]int{
	"TRACE":    0,
	"DEBUG":    10,
	"INFO":     20,
	"WARN":     30,
	"WARNING":  30,
	"ERROR":    40,
	"FATAL":    50,
	"CRITICAL": 50,
}

const defaultSeverityScore = 20

// timestampLayouts mirrors the candidate formats the ported engine tries
// in order, widest-to-narrowest, before falling back to now().
var timestampLayouts = []string{
	"2006-01-02T15:04:05.999999999Z07:00",
	time.RFC3339,
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"02/Jan/2006:15:04:05 -0700",
}

// LogEntry is one ingested log record. Identity for deduplication purposes
// is the tuple (Timestamp, Level, Message, Source).
type LogEntry struct {
	Timestamp  string
	ParsedTime time.Time
	Level      string
	Message    string
	Source     string
	ThreadID   string
	RequestID  string
	UserID     string
	Tags       []string
	Metadata   map[string]any
}

// NewLogEntry constructs a LogEntry, normalizing Level to upper case and
// parsing Timestamp. A timestamp that doesn't match any known layout logs
// an IntegrityWarning and falls back to time.Now().UTC(), per spec.md §7.
func NewLogEntry(timestamp, level, message, source string) *LogEntry {
	e := &LogEntry{
		Timestamp: timestamp,
		Level:     upper(level),
		Message:   message,
		Source:    source,
	}
	e.ParsedTime = parseTimestamp(timestamp)
	return e
}

func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}

// parseTimestamp tries every known layout in turn; a total miss wraps
// ErrIntegrityWarning, logs it at Warn, and returns time.Now().UTC() so
// ingestion itself never fails on a malformed timestamp.
func parseTimestamp(raw string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	warn := errors.Wrapf(ErrIntegrityWarning, "timestamp %q matched no known layout", raw)
	logrus.WithError(warn).WithFields(logrus.Fields{"timestamp": raw}).Warn("falling back to now for log entry timestamp")
	return time.Now().UTC()
}

// SeverityScore returns the entry's numeric severity, defaulting to 20 for
// unrecognized levels.
func (e *LogEntry) SeverityScore() int {
	if score, ok := severityScores[e.Level]; ok {
		return score
	}
	return defaultSeverityScore
}

// Key returns the dedup identity tuple as a single string.
func (e *LogEntry) Key() string {
	return fmt.Sprintf("%s\x00%s\x00%s\x00%s", e.Timestamp, e.Level, e.Message, e.Source)
}

// hasTag reports whether the entry carries tag.
func (e *LogEntry) hasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
