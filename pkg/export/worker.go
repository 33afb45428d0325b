package export

import (
	"context"
	"os"

	"github.com/apex/log"
	"github.com/openresearchdata/zenodo-relay/pkg/zenodo"
	"github.com/openresearchdata/zenodo-relay/pkg/zrdb/stor"
	"github.com/openresearchdata/zenodo-relay/pkg/zrdb/zrmodel"
	"github.com/openresearchdata/zenodo-relay/pkg/zrqueue"
)

// Worker is the single-threaded consumer of the upload task queue. Each
// task runs to completion, success or failure, before the next one is
// fetched; scaling out is done by running more worker processes, each
// limited to one in-flight task by the queue's prefetch.
type Worker struct {
	transferStor stor.TransferStor
	queue        zrqueue.TaskQueue
	zenodoClient zenodo.DepositionClient
}

func NewWorker(transferStor stor.TransferStor, queue zrqueue.TaskQueue, zenodoClient zenodo.DepositionClient) *Worker {
	return &Worker{
		transferStor: transferStor,
		queue:        queue,
		zenodoClient: zenodoClient,
	}
}

// Run consumes upload tasks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	log.Infof("Waiting for upload tasks...")
	return w.queue.ConsumeUploadTasks(ctx, w.ProcessUploadTask)
}

// ProcessUploadTask runs the upload protocol for one task: mark the
// transfer in_progress, fetch the deposition's bucket URL, stream the file
// to it, then mark the transfer completed or failed. Errors never propagate
// back to the queue as redelivery requests; they end up in the transfer
// record. Delivery is at least once, so a task whose transfer has already
// reached a terminal status is logged and skipped rather than re-uploaded,
// which would duplicate the file on Zenodo.
func (w *Worker) ProcessUploadTask(task *zrqueue.UploadTask) error {
	log.Infof("Received upload task for transfer %d: %s as %s", task.TransferID, task.FilePath, task.Filename)

	transfer, err := w.transferStor.GetTransferByID(task.TransferID)
	switch {
	case stor.IsRecordNotFound(err):
		log.Errorf("No transfer record %d for delivered task, dropping", task.TransferID)
		return nil
	case err != nil:
		return err
	case transfer.IsTerminal():
		log.Warnf("Transfer %d already %s, skipping redelivered task", transfer.ID, transfer.Status)
		return nil
	}

	if _, err := w.transferStor.UpdateTransferStatus(task.TransferID, zrmodel.TransferStatusInProgress, ""); err != nil {
		return err
	}

	response, err := w.uploadToZenodo(task)
	if err != nil {
		if _, uerr := w.transferStor.UpdateTransferStatus(task.TransferID, zrmodel.TransferStatusFailed, err.Error()); uerr != nil {
			log.Errorf("Unable to mark transfer %d failed: %s", task.TransferID, uerr)
		}
		log.Errorf("User: %s - upload error: %s", task.Username, err)
		return nil
	}

	if _, err := w.transferStor.UpdateTransferStatus(task.TransferID, zrmodel.TransferStatusCompleted, response); err != nil {
		log.Errorf("Unable to mark transfer %d completed: %s", task.TransferID, err)
		return err
	}

	log.Infof("User: %s - file %s uploaded to deposition %d", task.Username, task.Filename, task.DepositionID)

	return nil
}

func (w *Worker) uploadToZenodo(task *zrqueue.UploadTask) (string, error) {
	deposition, err := w.zenodoClient.GetDeposition(task.ZenodoToken, task.DepositionID)
	if err != nil {
		return "", err
	}

	f, err := os.Open(task.FilePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	return w.zenodoClient.UploadFile(task.ZenodoToken, deposition.Links.Bucket, task.Filename, f)
}
