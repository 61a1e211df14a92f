package media

import "errors"

var (
	// ErrNotFound means the store reported the object absent.
	ErrNotFound = errors.New("media object not found")
	// ErrLocalRead means the local content could not be read; the store was never contacted.
	ErrLocalRead = errors.New("local content could not be read")
	// ErrStorageUnavailable covers every other store failure (network, permissions, bad request).
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrInvalidMediaType   = errors.New("invalid media type")
	ErrInvalidKey         = errors.New("invalid key")
)
