package zrqueue

import "context"

// TaskHandlerFN processes one delivered task. The queue acknowledges the
// task after the handler returns no matter what it returned; a failed
// upload is still a processed task and is never redelivered automatically.
type TaskHandlerFN func(task *UploadTask) error

type TaskQueue interface {
	PublishUploadTask(ctx context.Context, task *UploadTask) error

	// ConsumeUploadTasks blocks delivering tasks to handler one at a time
	// until ctx is cancelled or the queue connection is lost.
	ConsumeUploadTasks(ctx context.Context, handler TaskHandlerFN) error
}
