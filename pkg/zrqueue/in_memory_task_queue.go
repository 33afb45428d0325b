package zrqueue

import (
	"context"
	"sync"
)

// InMemoryTaskQueue is the TaskQueue used in tests. It mirrors the broker's
// delivery order but not its durability.
type InMemoryTaskQueue struct {
	mu         sync.Mutex
	tasks      chan *UploadTask
	publishErr error
	published  int
}

func NewInMemoryTaskQueue() *InMemoryTaskQueue {
	return &InMemoryTaskQueue{tasks: make(chan *UploadTask, 100)}
}

// SetPublishError makes subsequent publishes fail with err, simulating an
// unreachable broker. Pass nil to clear.
func (q *InMemoryTaskQueue) SetPublishError(err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.publishErr = err
}

// PublishedCount returns how many tasks have been accepted for delivery.
func (q *InMemoryTaskQueue) PublishedCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.published
}

func (q *InMemoryTaskQueue) PublishUploadTask(_ context.Context, task *UploadTask) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.publishErr != nil {
		return q.publishErr
	}

	t := *task
	q.tasks <- &t
	q.published++

	return nil
}

// TryNext pops the next undelivered task without blocking. Tests use it to
// inspect what a submitter published.
func (q *InMemoryTaskQueue) TryNext() (*UploadTask, bool) {
	select {
	case task := <-q.tasks:
		return task, true
	default:
		return nil, false
	}
}

func (q *InMemoryTaskQueue) ConsumeUploadTasks(ctx context.Context, handler TaskHandlerFN) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case task := <-q.tasks:
			_ = handler(task)
		}
	}
}
