package consumer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	_defaultConnAttempts = 10
	_defaultConnTimeout  = time.Second
	_defaultMinBytes     = 1
	_defaultMaxBytes     = 1 << 20
	_defaultMaxWait      = time.Second
)

type Consumer struct {
	connAttempts int
	connTimeout  time.Duration
	minBytes     int
	maxBytes     int
	maxWait      time.Duration
	startOffset  int64

	brokers []string
	groupID string
	topic   string

	Reader *kafka.Reader
}

func New(ctx context.Context, brokers []string, groupID, topic string, opts ...Option) (*Consumer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("Kafka Consumer - New - no brokers")
	}

	c := &Consumer{
		connAttempts: _defaultConnAttempts,
		connTimeout:  _defaultConnTimeout,
		minBytes:     _defaultMinBytes,
		maxBytes:     _defaultMaxBytes,
		maxWait:      _defaultMaxWait,
		startOffset:  kafka.FirstOffset,
		brokers:      brokers,
		groupID:      groupID,
		topic:        topic,
	}

	for _, opt := range opts {
		opt(c)
	}

	var err error

	for c.connAttempts > 0 {
		err = c.ping(ctx)
		if err == nil {
			break
		}

		log.Printf("Kafka consumer is trying to connect, attempts left: %d", c.connAttempts)

		time.Sleep(c.connTimeout)

		c.connAttempts--
	}

	if err != nil {
		return nil, fmt.Errorf("Kafka Consumer - New - connAttempts == 0: %w", err)
	}

	// события удаления мелкие, ждем недолго
	c.Reader = kafka.NewReader(kafka.ReaderConfig{
		Brokers:     c.brokers,
		GroupID:     c.groupID,
		Topic:       c.topic,
		MinBytes:    c.minBytes,
		MaxBytes:    c.maxBytes,
		MaxWait:     c.maxWait,
		StartOffset: c.startOffset,
	})

	return c, nil
}

func (c *Consumer) ping(ctx context.Context) error {
	var lastErr error

	for _, broker := range c.brokers {
		conn, err := kafka.DialContext(ctx, "tcp", broker)
		if err != nil {
			lastErr = fmt.Errorf("Kafka Consumer - kafka.DialContext: %w", err)
			continue
		}

		_, err = conn.Brokers()
		conn.Close()
		if err != nil {
			lastErr = fmt.Errorf("Kafka Consumer - conn.Brokers: %w", err)
			continue
		}

		return nil
	}

	return lastErr
}

func (c *Consumer) Close() error {
	if c.Reader != nil {
		return c.Reader.Close()
	}
	return nil
}
