package consumer

import (
	"time"

	"github.com/segmentio/kafka-go"
)

type Option func(*Consumer)

func ConnAttempts(attempts int) Option {
	return func(c *Consumer) {
		c.connAttempts = attempts
	}
}

func ConnTimeout(timeout time.Duration) Option {
	return func(c *Consumer) {
		c.connTimeout = timeout
	}
}

func MaxWait(wait time.Duration) Option {
	return func(c *Consumer) {
		c.maxWait = wait
	}
}

// FromLatest skips events published before the group first joined.
func FromLatest() Option {
	return func(c *Consumer) {
		c.startOffset = kafka.LastOffset
	}
}
