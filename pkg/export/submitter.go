// Package export implements the asynchronous transfer pipeline: the
// Submitter validates a request, records it, and queues it; the Worker
// consumes queued tasks and runs the upload against Zenodo.
package export

import (
	"context"
	"os"

	"github.com/apex/log"
	"github.com/openresearchdata/zenodo-relay/pkg/zenodo"
	"github.com/openresearchdata/zenodo-relay/pkg/zrdb/stor"
	"github.com/openresearchdata/zenodo-relay/pkg/zrdb/zrmodel"
	"github.com/openresearchdata/zenodo-relay/pkg/zrqueue"
	"github.com/pkg/errors"
)

// PathResolverFN maps a resource identifier and its URL to a local
// filesystem path. Path resolution lives with the hosting data portal; the
// submitter treats it as a pure function.
type PathResolverFN func(resourceID, resourceURL string) string

type SubmitRequest struct {
	Username       string
	SourcePath     string
	Filename       string
	ZenodoToken    string
	DepositionID   int
	DepositionName string
}

type Submitter struct {
	transferStor stor.TransferStor
	queue        zrqueue.TaskQueue
	zenodoClient zenodo.DepositionClient
	resolvePath  PathResolverFN
}

func NewSubmitter(transferStor stor.TransferStor, queue zrqueue.TaskQueue,
	zenodoClient zenodo.DepositionClient, resolvePath PathResolverFN) *Submitter {
	return &Submitter{
		transferStor: transferStor,
		queue:        queue,
		zenodoClient: zenodoClient,
		resolvePath:  resolvePath,
	}
}

// Submit checks the source file, creates the pending transfer record, and
// publishes the upload task. The source check happens before anything is
// persisted, so a missing file leaves no state behind. If the publish fails
// after the record was created, the record stays pending; the stale-pending
// query is how operators find those orphans.
func (s *Submitter) Submit(ctx context.Context, req SubmitRequest) (*zrmodel.Transfer, error) {
	if _, err := os.Stat(req.SourcePath); err != nil {
		return nil, errors.Wrapf(ErrSourceNotFound, "%s", req.SourcePath)
	}

	transfer, err := s.transferStor.CreateTransfer(&zrmodel.Transfer{
		Username:       req.Username,
		FilePath:       req.SourcePath,
		Filename:       req.Filename,
		DepositionID:   req.DepositionID,
		DepositionName: req.DepositionName,
	})
	if err != nil {
		return nil, errors.Wrapf(ErrStoreUnavailable, "unable to create transfer record: %s", err)
	}

	task := &zrqueue.UploadTask{
		Username:       req.Username,
		FilePath:       req.SourcePath,
		Filename:       req.Filename,
		ZenodoToken:    req.ZenodoToken,
		DepositionID:   req.DepositionID,
		DepositionName: req.DepositionName,
		TransferID:     transfer.ID,
	}

	if err := s.queue.PublishUploadTask(ctx, task); err != nil {
		return nil, errors.Wrapf(ErrQueueUnavailable, "transfer %d created but task not published: %s", transfer.ID, err)
	}

	log.Infof("Upload task sent: %s as %s to deposition '%s', transfer_id: %d, user: %s",
		req.SourcePath, req.Filename, req.DepositionName, transfer.ID, req.Username)

	return transfer, nil
}

// ExportToDeposition exports a resource file into an existing deposition.
// The deposition's title is read from Zenodo so the transfer record carries
// a human-readable name.
func (s *Submitter) ExportToDeposition(ctx context.Context, username, token, resourceID, filename, resourceURL string, depositionID int) (*zrmodel.Transfer, error) {
	deposition, err := s.zenodoClient.GetDeposition(token, depositionID)
	if err != nil {
		return nil, err
	}

	return s.Submit(ctx, SubmitRequest{
		Username:       username,
		SourcePath:     s.resolvePath(resourceID, resourceURL),
		Filename:       filename,
		ZenodoToken:    token,
		DepositionID:   depositionID,
		DepositionName: deposition.Metadata.Title,
	})
}

// CreateDepositionAndExport creates a new restricted dataset deposition and
// exports a resource file into it. The source file is checked before the
// deposition is created so a bad path doesn't leave an empty deposition
// behind on Zenodo.
func (s *Submitter) CreateDepositionAndExport(ctx context.Context, username, token, resourceID, filename, resourceURL string, metadata zenodo.DepositionMetadata) (*zrmodel.Transfer, error) {
	sourcePath := s.resolvePath(resourceID, resourceURL)
	if _, err := os.Stat(sourcePath); err != nil {
		return nil, errors.Wrapf(ErrSourceNotFound, "%s", sourcePath)
	}

	if metadata.UploadType == "" {
		metadata.UploadType = "dataset"
	}
	if metadata.AccessRight == "" {
		metadata.AccessRight = "restricted"
	}

	deposition, err := s.zenodoClient.CreateDeposition(token, metadata)
	if err != nil {
		return nil, err
	}

	log.Infof("New deposition created, title: %s, id: %d", metadata.Title, deposition.ID)

	return s.Submit(ctx, SubmitRequest{
		Username:       username,
		SourcePath:     sourcePath,
		Filename:       filename,
		ZenodoToken:    token,
		DepositionID:   deposition.ID,
		DepositionName: metadata.Title,
	})
}
