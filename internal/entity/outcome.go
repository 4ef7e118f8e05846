package entity

import "io"

type FallthroughReason string

const (
	NotTransform    FallthroughReason = "not_transform"
	UnsupportedType FallthroughReason = "unsupported_type"
	SourceMissing   FallthroughReason = "source_missing"
	Animated        FallthroughReason = "animated"
	DecodeFailed    FallthroughReason = "decode_failed"
	ProcessFailed   FallthroughReason = "process_failed"
	EncodeFailed    FallthroughReason = "encode_failed"
)

type Status string

const (
	Served      Status = "served"
	Forbidden   Status = "forbidden"
	Fallthrough Status = "fallthrough"
)

// Outcome is the result of running the pipeline for one request.
type Outcome struct {
	Status Status
	Reason FallthroughReason // Fallthrough only

	// Served only. Body is owned by the caller and must be closed.
	Body        io.ReadCloser
	Size        int
	ContentType string
	CacheHit    bool
}

func Fallback(reason FallthroughReason) Outcome {
	return Outcome{Status: Fallthrough, Reason: reason}
}
