package zenodo

import (
	"fmt"
	"io"
)

type MockClient struct {
	err            error
	uploadErr      error
	depositions    map[int]*Deposition
	uploadResponse string
	uploadCount    int
	nextID         int
}

func NewMockClient() *MockClient {
	return &MockClient{depositions: make(map[int]*Deposition), nextID: 1}
}

func (c *MockClient) SetError(err error) {
	c.err = err
}

// SetUploadError makes only UploadFile fail, leaving the metadata calls
// working. Used to drive the upload-failure path in worker tests.
func (c *MockClient) SetUploadError(err error) {
	c.uploadErr = err
}

func (c *MockClient) SetDeposition(deposition *Deposition) {
	c.depositions[deposition.ID] = deposition
}

func (c *MockClient) SetUploadResponse(response string) {
	c.uploadResponse = response
}

// UploadCount reports how many uploads ran; idempotence tests check this
// stays at one across redeliveries.
func (c *MockClient) UploadCount() int {
	return c.uploadCount
}

func (c *MockClient) GetDeposition(token string, depositionID int) (*Deposition, error) {
	if c.err != nil {
		return nil, c.err
	}

	deposition, ok := c.depositions[depositionID]
	if !ok {
		return nil, fmt.Errorf("no such deposition: %d", depositionID)
	}

	return deposition, nil
}

func (c *MockClient) ListDepositions(token string) ([]Deposition, error) {
	if c.err != nil {
		return nil, c.err
	}

	var depositions []Deposition
	for _, d := range c.depositions {
		depositions = append(depositions, *d)
	}

	return depositions, nil
}

func (c *MockClient) CreateDeposition(token string, metadata DepositionMetadata) (*Deposition, error) {
	if c.err != nil {
		return nil, c.err
	}

	deposition := &Deposition{
		ID:       c.nextID,
		Metadata: metadata,
		Links:    DepositionLinks{Bucket: fmt.Sprintf("https://remote/bucket/%d", c.nextID)},
	}
	c.nextID++
	c.depositions[deposition.ID] = deposition

	return deposition, nil
}

func (c *MockClient) UploadFile(token, bucketURL, filename string, body io.Reader) (string, error) {
	if c.err != nil {
		return "", c.err
	}

	if c.uploadErr != nil {
		return "", c.uploadErr
	}

	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", err
	}

	c.uploadCount++
	return c.uploadResponse, nil
}

func (c *MockClient) Err(err error) *MockClient {
	c.err = err
	return c
}
