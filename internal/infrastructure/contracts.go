package infrastructure

import (
	"context"
	"image"

	"github.com/andreyxaxa/Image-Cache/internal/entity"
	kafkago "github.com/segmentio/kafka-go"
)

type (
	ImageProcessor interface {
		FrameCount(ctx context.Context, contentType string, data []byte) (int, error)
		Decode(ctx context.Context, data []byte) (image.Image, error)
		Apply(ctx context.Context, img image.Image, op entity.Operation) (image.Image, error)
		Encode(ctx context.Context, img image.Image, contentType string, quality int) ([]byte, error)
	}

	EventsReader interface {
		ReadEvent(ctx context.Context) (kafkago.Message, error)
		CommitEvent(ctx context.Context, event kafkago.Message) error
		Close() error
	}
)
