package kvstore

import "errors"

var (
	// ErrKeyExists is returned by SetIfAbsent when the key is already present.
	ErrKeyExists = errors.New("key already exists")

	// ErrAbortUpdate can be returned from an UpdateFunc to leave the key
	// unchanged without surfacing an error to the caller.
	ErrAbortUpdate = errors.New("update aborted")

	// ErrUnavailable wraps infrastructure failures (unreadable or unwritable
	// backing storage). Callers map it to 503.
	ErrUnavailable = errors.New("store unavailable")
)
