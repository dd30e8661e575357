package loganalytics

import "github.com/cockroachdb/errors"

// ErrIntegrityWarning tags an unparseable timestamp that was silently
// recovered by falling back to now(); logged, never returned to Ingest's
// caller (spec.md §7: "alert-evaluation errors must not prevent
// ingestion").
var ErrIntegrityWarning = errors.New("loganalytics: unparseable timestamp")
