package queue

import (
	"context"
	"sync"
)

const memoryQueueCapacity = 1024

func NewDriverMemory() (Driver, error) {
	return &driverMemory{
		queues: map[string]chan []byte{},
	}, nil
}

type driverMemory struct {
	mutex  sync.RWMutex
	queues map[string]chan []byte
}

// CreateQueue is idempotent so several publishers and consumers may declare
// the same queue.
func (driver *driverMemory) CreateQueue(ctx context.Context, queueName string) error {
	driver.mutex.Lock()
	defer driver.mutex.Unlock()

	if _, found := driver.queues[queueName]; !found {
		driver.queues[queueName] = make(chan []byte, memoryQueueCapacity)
	}

	return nil
}

func (driver *driverMemory) queue(queueName string) (chan []byte, error) {
	driver.mutex.RLock()
	defer driver.mutex.RUnlock()

	queue, found := driver.queues[queueName]
	if !found {
		return nil, ErrQueueNotFound
	}

	return queue, nil
}

func (driver *driverMemory) Publish(ctx context.Context, queueName string, payload []byte) error {
	queue, err := driver.queue(queueName)
	if err != nil {
		return err
	}

	select {
	case queue <- payload:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (driver *driverMemory) Consume(
	ctx context.Context,
	queueName string,
	handler func(ctx context.Context, payload []byte) error,
) error {
	queue, err := driver.queue(queueName)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case payload := <-queue:
			if err := handler(ctx, payload); err != nil {
				return err
			}
		}
	}
}
