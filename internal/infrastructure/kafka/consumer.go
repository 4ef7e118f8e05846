package kafka

import (
	"context"
	"fmt"

	"github.com/andreyxaxa/Image-Cache/pkg/kafka/consumer"
	"github.com/segmentio/kafka-go"
)

// DeletionEvents reads upload deletion events with manual commits. Tombstones
// (events without a value) are committed and never returned.
type DeletionEvents struct {
	*consumer.Consumer
}

func NewDeletionEvents(c *consumer.Consumer) *DeletionEvents {
	return &DeletionEvents{c}
}

func (de *DeletionEvents) ReadEvent(ctx context.Context) (kafka.Message, error) {
	for {
		msg, err := de.Reader.FetchMessage(ctx)
		if err != nil {
			return kafka.Message{}, fmt.Errorf("DeletionEvents - ReadEvent - de.Reader.FetchMessage: %w", err)
		}

		if len(msg.Value) > 0 {
			return msg, nil
		}

		err = de.CommitEvent(ctx, msg)
		if err != nil {
			return kafka.Message{}, fmt.Errorf("DeletionEvents - ReadEvent - tombstone: %w", err)
		}
	}
}

func (de *DeletionEvents) CommitEvent(ctx context.Context, event kafka.Message) error {
	err := de.Reader.CommitMessages(ctx, event)
	if err != nil {
		return fmt.Errorf("DeletionEvents - CommitEvent - de.Reader.CommitMessages, offset = %d: %w", event.Offset, err)
	}

	return nil
}

func (de *DeletionEvents) Close() error {
	err := de.Consumer.Close()
	if err != nil {
		return fmt.Errorf("DeletionEvents - Close - de.Consumer.Close: %w", err)
	}

	return nil
}
