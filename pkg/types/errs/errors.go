package errs

import "errors"

var (
	ErrRecordNotFound    = errors.New("record not found")
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrCacheMiss         = errors.New("cache miss")
	ErrUnknownOperation  = errors.New("unknown operation")
)
