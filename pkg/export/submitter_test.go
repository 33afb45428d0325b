package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/openresearchdata/zenodo-relay/pkg/zenodo"
	"github.com/openresearchdata/zenodo-relay/pkg/zrdb/stor"
	"github.com/openresearchdata/zenodo-relay/pkg/zrdb/zrmodel"
	"github.com/openresearchdata/zenodo-relay/pkg/zrqueue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSourceFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "abc.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b,c\n1,2,3\n"), 0o644))
	return path
}

func fixedPathResolver(path string) PathResolverFN {
	return func(resourceID, resourceURL string) string {
		return path
	}
}

func TestSubmitCreatesRecordAndPublishesMatchingTask(t *testing.T) {
	sourcePath := writeSourceFile(t)
	transferStor := stor.NewInMemoryTransferStor()
	queue := zrqueue.NewInMemoryTaskQueue()
	submitter := NewSubmitter(transferStor, queue, zenodo.NewMockClient(), fixedPathResolver(sourcePath))

	transfer, err := submitter.Submit(context.Background(), SubmitRequest{
		Username:       "pdzierzak",
		SourcePath:     sourcePath,
		Filename:       "abc.csv",
		ZenodoToken:    "secret-token",
		DepositionID:   120,
		DepositionName: "Test Dataset",
	})
	require.NoErrorf(t, err, "Submit failed: %s", err)

	assert.Equal(t, zrmodel.TransferStatusPending, transfer.Status)
	assert.Equal(t, 1, transferStor.Count())
	assert.Equal(t, 1, queue.PublishedCount())

	task, ok := queue.TryNext()
	require.True(t, ok, "no task published")
	assert.Equal(t, transfer.ID, task.TransferID)
	assert.Equal(t, "pdzierzak", task.Username)
	assert.Equal(t, sourcePath, task.FilePath)
	assert.Equal(t, "secret-token", task.ZenodoToken)
	assert.Equal(t, 120, task.DepositionID)
}

func TestSubmitMissingSourceIsAllOrNothing(t *testing.T) {
	transferStor := stor.NewInMemoryTransferStor()
	queue := zrqueue.NewInMemoryTaskQueue()
	submitter := NewSubmitter(transferStor, queue, zenodo.NewMockClient(), fixedPathResolver("/no/such/file"))

	_, err := submitter.Submit(context.Background(), SubmitRequest{
		Username:     "pdzierzak",
		SourcePath:   "/no/such/file",
		Filename:     "abc.csv",
		DepositionID: 120,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceNotFound)
	assert.Equal(t, 0, transferStor.Count())
	assert.Equal(t, 0, queue.PublishedCount())
}

func TestSubmitStoreUnavailableNothingPublished(t *testing.T) {
	sourcePath := writeSourceFile(t)
	transferStor := stor.NewInMemoryTransferStor()
	transferStor.SetError(fmt.Errorf("connection refused"))
	queue := zrqueue.NewInMemoryTaskQueue()
	submitter := NewSubmitter(transferStor, queue, zenodo.NewMockClient(), fixedPathResolver(sourcePath))

	_, err := submitter.Submit(context.Background(), SubmitRequest{Username: "pdzierzak", SourcePath: sourcePath, Filename: "abc.csv"})

	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Equal(t, 0, queue.PublishedCount())
}

func TestSubmitQueueUnavailableLeavesPendingOrphan(t *testing.T) {
	sourcePath := writeSourceFile(t)
	transferStor := stor.NewInMemoryTransferStor()
	queue := zrqueue.NewInMemoryTaskQueue()
	queue.SetPublishError(fmt.Errorf("broker unreachable"))
	submitter := NewSubmitter(transferStor, queue, zenodo.NewMockClient(), fixedPathResolver(sourcePath))

	_, err := submitter.Submit(context.Background(), SubmitRequest{Username: "pdzierzak", SourcePath: sourcePath, Filename: "abc.csv"})

	assert.ErrorIs(t, err, ErrQueueUnavailable)
	require.Equal(t, 1, transferStor.Count())

	// The orphaned record shows up in the operator's stale-pending query.
	stale, err := transferStor.GetStalePendingTransfers(0)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, zrmodel.TransferStatusPending, stale[0].Status)
}

func TestExportToDepositionUsesDepositionTitle(t *testing.T) {
	sourcePath := writeSourceFile(t)
	transferStor := stor.NewInMemoryTransferStor()
	queue := zrqueue.NewInMemoryTaskQueue()

	client := zenodo.NewMockClient()
	client.SetDeposition(&zenodo.Deposition{
		ID:       120,
		Metadata: zenodo.DepositionMetadata{Title: "Test Dataset"},
		Links:    zenodo.DepositionLinks{Bucket: "https://remote/bucket/X"},
	})

	submitter := NewSubmitter(transferStor, queue, client, fixedPathResolver(sourcePath))

	transfer, err := submitter.ExportToDeposition(context.Background(), "pdzierzak", "secret-token", "res-1", "abc.csv", "https://portal/res-1", 120)
	require.NoError(t, err)

	assert.Equal(t, "Test Dataset", transfer.DepositionName)
	assert.Equal(t, 120, transfer.DepositionID)
	assert.Equal(t, sourcePath, transfer.FilePath)
}

func TestCreateDepositionAndExport(t *testing.T) {
	sourcePath := writeSourceFile(t)
	transferStor := stor.NewInMemoryTransferStor()
	queue := zrqueue.NewInMemoryTaskQueue()
	client := zenodo.NewMockClient()
	submitter := NewSubmitter(transferStor, queue, client, fixedPathResolver(sourcePath))

	transfer, err := submitter.CreateDepositionAndExport(context.Background(), "pdzierzak", "secret-token", "res-1", "abc.csv", "https://portal/res-1",
		zenodo.DepositionMetadata{Title: "New Dataset", Description: "test data"})
	require.NoError(t, err)

	assert.Equal(t, "New Dataset", transfer.DepositionName)
	assert.NotZero(t, transfer.DepositionID)

	created, err := client.GetDeposition("secret-token", transfer.DepositionID)
	require.NoError(t, err)
	assert.Equal(t, "dataset", created.Metadata.UploadType)
	assert.Equal(t, "restricted", created.Metadata.AccessRight)
}

func TestCreateDepositionAndExportFailurePersistsNothing(t *testing.T) {
	sourcePath := writeSourceFile(t)
	transferStor := stor.NewInMemoryTransferStor()
	queue := zrqueue.NewInMemoryTaskQueue()
	client := zenodo.NewMockClient()
	client.SetError(fmt.Errorf("error while creating deposition"))
	submitter := NewSubmitter(transferStor, queue, client, fixedPathResolver(sourcePath))

	_, err := submitter.CreateDepositionAndExport(context.Background(), "pdzierzak", "secret-token", "res-1", "abc.csv", "https://portal/res-1",
		zenodo.DepositionMetadata{Title: "New Dataset"})

	require.Error(t, err)
	assert.Equal(t, 0, transferStor.Count())
	assert.Equal(t, 0, queue.PublishedCount())
}
