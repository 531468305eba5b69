package watermark

import "errors"

// Failure classes of a run. Each is wrapped around the underlying cause, so
// callers classify with errors.Is.
var (
	ErrInput        = errors.New("input error")
	ErrMetadataRead = errors.New("metadata read error")
	ErrDecode       = errors.New("decode error")
	ErrEncode       = errors.New("encode error")
	ErrWrite        = errors.New("write error")
)
