package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/andreyxaxa/Image-Cache/internal/infrastructure"
	"github.com/andreyxaxa/Image-Cache/internal/usecase"
	"github.com/andreyxaxa/Image-Cache/pkg/logger"
	"github.com/segmentio/kafka-go"
)

const (
	TriggerKafka = "kafka"

	_defaultReadBackoff = time.Second
)

type KafkaController struct {
	inv    usecase.InvalidationUseCase
	er     infrastructure.EventsReader
	logger logger.Interface

	commitTimeout  time.Duration
	processTimeout time.Duration
	readBackoff    time.Duration

	workers int
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	started atomic.Bool
}

func New(
	inv usecase.InvalidationUseCase,
	er infrastructure.EventsReader,
	l logger.Interface,
	commitTimeout time.Duration,
	processTimeout time.Duration,
	workers int,
) *KafkaController {
	if workers < 1 {
		workers = 1
	}

	return &KafkaController{
		inv:            inv,
		er:             er,
		logger:         l,
		commitTimeout:  commitTimeout,
		processTimeout: processTimeout,
		readBackoff:    _defaultReadBackoff,
		workers:        workers,
	}
}

func (c *KafkaController) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return fmt.Errorf("KafkaController - Start - controller already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)

	tasks := make(chan kafka.Message, c.workers*2)

	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go c.worker(tasks)
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(tasks)

		for {
			select {
			case <-c.ctx.Done():
				return
			default:
				// 1. читаем событие удаления
				event, err := c.er.ReadEvent(c.ctx)
				if err != nil {
					if errors.Is(err, context.Canceled) {
						continue
					}
					c.logger.Error(err, "KafkaController - Start - c.er.ReadEvent")

					// брокер недоступен, не крутимся вхолостую
					select {
					case <-time.After(c.readBackoff):
					case <-c.ctx.Done():
						return
					}
					continue
				}

				// 2. отдаем воркерам
				select {
				case tasks <- event:
				case <-c.ctx.Done():
					return
				}
			}
		}
	}()

	return nil
}

// invalidate never fails on purge errors, the use-case logs them.
func (c *KafkaController) invalidate(ctx context.Context, event kafka.Message) error {
	var payload UploadDeletedPayload
	err := json.Unmarshal(event.Value, &payload)
	if err != nil {
		return fmt.Errorf("KafkaController - invalidate - json.Unmarshal: %w", err)
	}

	if payload.Path == "" {
		return fmt.Errorf("KafkaController - invalidate - empty path")
	}

	c.inv.InvalidateCacheFor(ctx, payload.Path, TriggerKafka)

	return nil
}

func (c *KafkaController) worker(tasks <-chan kafka.Message) {
	defer c.wg.Done()

	for event := range tasks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					c.logger.Error(fmt.Errorf("panic %v", r), "KafkaController - worker - panic")
				}
			}()

			processCtx, processCancel := context.WithTimeout(c.ctx, c.processTimeout)
			err := c.invalidate(processCtx, event)
			processCancel()
			if err != nil {
				// битое сообщение повторно не обработать, коммитим
				c.logger.Error(err, "KafkaController - worker - c.invalidate, offset = %d", event.Offset)
			}

			commitCtx, commitCancel := context.WithTimeout(c.ctx, c.commitTimeout)
			err = c.er.CommitEvent(commitCtx, event)
			commitCancel()
			if err != nil {
				c.logger.Error(err, "KafkaController - worker - c.er.CommitEvent")
			}
		}()
	}
}

func (c *KafkaController) Shutdown(ctx context.Context) error {
	if !c.started.Load() {
		return nil
	}

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan error, 1)

	go func() {
		c.wg.Wait()
		done <- c.er.Close()
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("KafkaController - Shutdown - c.er.Close: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("KafkaController - Shutdown: %w", ctx.Err())
	}
}
