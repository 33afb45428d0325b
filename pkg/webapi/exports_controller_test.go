package webapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/openresearchdata/zenodo-relay/pkg/export"
	"github.com/openresearchdata/zenodo-relay/pkg/zenodo"
	"github.com/openresearchdata/zenodo-relay/pkg/zrdb/stor"
	"github.com/openresearchdata/zenodo-relay/pkg/zrdb/zrmodel"
	"github.com/openresearchdata/zenodo-relay/pkg/zrqueue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type controllerTestCase struct {
	e            *echo.Echo
	transferStor *stor.InMemoryTransferStor
	queue        *zrqueue.InMemoryTaskQueue
	client       *zenodo.MockClient
	sourcePath   string
}

func newControllerTestCase(t *testing.T) *controllerTestCase {
	t.Helper()

	tc := &controllerTestCase{
		e:            echo.New(),
		transferStor: stor.NewInMemoryTransferStor(),
		queue:        zrqueue.NewInMemoryTaskQueue(),
		client:       zenodo.NewMockClient(),
	}

	tc.sourcePath = filepath.Join(t.TempDir(), "abc.csv")
	require.NoError(t, os.WriteFile(tc.sourcePath, []byte("a,b,c\n"), 0o644))

	tc.client.SetDeposition(&zenodo.Deposition{
		ID:       120,
		Metadata: zenodo.DepositionMetadata{Title: "Test Dataset"},
		Links:    zenodo.DepositionLinks{Bucket: "https://remote/bucket/X"},
	})

	resolver := func(resourceID, resourceURL string) string { return tc.sourcePath }
	submitter := export.NewSubmitter(tc.transferStor, tc.queue, tc.client, resolver)

	exportsController := NewExportsController(submitter, tc.client)
	transfersController := NewTransfersController(tc.transferStor)

	g := tc.e.Group("/api")
	g.POST("/exports", exportsController.ExportToDeposition)
	g.POST("/depositions", exportsController.CreateDepositionAndExport)
	g.GET("/depositions", exportsController.ListDepositions)
	g.GET("/users/:username/transfers", transfersController.GetTransfersForUser)

	return tc
}

func (tc *controllerTestCase) postJSON(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	tc.e.ServeHTTP(rec, req)
	return rec
}

func TestExportToDepositionEndpoint(t *testing.T) {
	tc := newControllerTestCase(t)

	rec := tc.postJSON("/api/exports",
		`{"username":"pdzierzak","zenodo_token":"secret-token","resource_id":"res-1","resource_url":"https://portal/res-1","filename":"abc.csv","deposition_id":120}`)

	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())

	var transfer zrmodel.Transfer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &transfer))
	assert.Equal(t, zrmodel.TransferStatusPending, transfer.Status)
	assert.Equal(t, "Test Dataset", transfer.DepositionName)
	assert.Equal(t, 1, tc.queue.PublishedCount())
}

func TestExportMissingSourceReturns404(t *testing.T) {
	tc := newControllerTestCase(t)
	require.NoError(t, os.Remove(tc.sourcePath))

	rec := tc.postJSON("/api/exports",
		`{"username":"pdzierzak","zenodo_token":"secret-token","resource_id":"res-1","filename":"abc.csv","deposition_id":120}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 0, tc.transferStor.Count())
	assert.Equal(t, 0, tc.queue.PublishedCount())
}

func TestExportQueueUnavailableReturns503(t *testing.T) {
	tc := newControllerTestCase(t)
	tc.queue.SetPublishError(fmt.Errorf("broker unreachable"))

	rec := tc.postJSON("/api/exports",
		`{"username":"pdzierzak","zenodo_token":"secret-token","resource_id":"res-1","filename":"abc.csv","deposition_id":120}`)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCreateDepositionAndExportEndpoint(t *testing.T) {
	tc := newControllerTestCase(t)

	rec := tc.postJSON("/api/depositions",
		`{"username":"pdzierzak","zenodo_token":"secret-token","resource_id":"res-1","filename":"abc.csv","deposition_name":"New Dataset","deposition_description":"test data"}`)

	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())

	var transfer zrmodel.Transfer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &transfer))
	assert.Equal(t, "New Dataset", transfer.DepositionName)
	assert.NotZero(t, transfer.DepositionID)
}

func TestGetTransfersForUserEndpoint(t *testing.T) {
	tc := newControllerTestCase(t)

	for i := 0; i < 2; i++ {
		_, err := tc.transferStor.CreateTransfer(&zrmodel.Transfer{
			Username: "pdzierzak",
			FilePath: fmt.Sprintf("/data/res/file%d", i),
			Filename: fmt.Sprintf("file%d.csv", i),
		})
		require.NoError(t, err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/users/pdzierzak/transfers", nil)
	rec := httptest.NewRecorder()
	tc.e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var transfers []zrmodel.Transfer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &transfers))
	assert.Len(t, transfers, 2)
}
