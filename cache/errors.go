package cache

import "github.com/cockroachdb/errors"

// ErrSerialization is returned by Restore when a snapshot record cannot be
// decoded, and by Snapshot when a record cannot be encoded or compressed.
var ErrSerialization = errors.New("cache: snapshot decode failed")

// wrapSerialization wraps cause as an ErrSerialization with the given
// context string.
func wrapSerialization(context string, cause error) error {
	return errors.Wrapf(ErrSerialization, "%s: %v", context, cause)
}
