package queue

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"

	"infratoolkit/filer"
	"infratoolkit/retry"
)

// persister is a directory-per-queue, file-per-message store, generalized
// from the teacher's filer.JsonFiler (a single-named-file JSON save/load)
// into one record per message keyed by queue name and message id; it reuses
// JsonFiler's Save/Load directly rather than re-implementing JSON encoding.
// Every write is wrapped in a bounded-retry backoff/v5 budget
// (retry.WriteRetrier) so a transient disk error is retried before being
// logged and swallowed, matching spec.md §7's "persistence I/O errors are
// logged and swallowed."
type persister struct {
	root    string
	queue   string
	filer   filer.JsonFiler
	retrier *retry.WriteRetrier
}

func newPersister(root, queue string) *persister {
	return &persister{
		root:    root,
		queue:   queue,
		filer:   filer.NewJsonLoader(),
		retrier: retry.NewWriteRetrier(context.Background(), 10*time.Millisecond, 0.5, 2.0, 3),
	}
}

func (p *persister) dir(failed bool) string {
	name := p.queue
	if failed {
		name += "_failed"
	}
	return filepath.Join(p.root, name)
}

func (p *persister) path(failed bool, id string) string {
	return filepath.Join(p.dir(failed), id+".bin")
}

// save writes m's current state to its record, overwriting any prior
// content. A failure is logged and swallowed, never returned to Publish/
// Ack/Nack's own caller.
func (p *persister) save(m *Message, failed bool) {
	if p.root == "" {
		return
	}

	dir := p.dir(failed)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logrus.WithFields(logrus.Fields{"queue": p.queue, "dir": dir, "err": err}).Error("failed to create persistence directory")
		return
	}

	path := p.path(failed, m.ID)
	writeErr := p.retrier.Do(func() error {
		return p.filer.Save(path, m)
	})
	if writeErr != nil {
		logrus.WithFields(logrus.Fields{"queue": p.queue, "path": path, "err": writeErr}).Error("failed to persist message after exhausting retry budget")
	}
}

// delete removes m's record, if any. Failures are logged and swallowed.
func (p *persister) delete(id string, failed bool) {
	if p.root == "" {
		return
	}
	path := p.path(failed, id)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logrus.WithFields(logrus.Fields{"queue": p.queue, "path": path, "err": err}).Warn("failed to remove persistence record")
	}
}

// rehydrate enumerates every *.bin record under both the pending and
// failed namespaces and returns the decoded messages. Unparseable records
// are logged and skipped rather than aborting start-up.
func (p *persister) rehydrate() ([]*Message, error) {
	if p.root == "" {
		return nil, nil
	}

	var out []*Message
	for _, failed := range []bool{false, true} {
		dir := p.dir(failed)
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, errors.Wrapf(ErrPersistence, "read dir %q: %v", dir, err)
		}

		for _, de := range entries {
			if de.IsDir() || !strings.HasSuffix(de.Name(), ".bin") {
				continue
			}
			var m Message
			if err := p.filer.Load(filepath.Join(dir, de.Name()), &m); err != nil {
				logrus.WithFields(logrus.Fields{"queue": p.queue, "file": de.Name(), "err": err}).Warn("failed to decode persistence record, skipping")
				continue
			}
			out = append(out, &m)
		}
	}

	return out, nil
}
