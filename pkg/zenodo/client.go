// Package zenodo is a client for the Zenodo deposition API. It covers the
// three calls the relay needs: reading deposition metadata (title and bucket
// URL), creating a new deposition, and streaming a file into a deposition's
// bucket.
package zenodo

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
)

// DepositionClient is the interface the submitter and worker are built
// against. Client talks to the live API, MockClient is used in tests.
type DepositionClient interface {
	GetDeposition(token string, depositionID int) (*Deposition, error)
	ListDepositions(token string) ([]Deposition, error)
	CreateDeposition(token string, metadata DepositionMetadata) (*Deposition, error)
	UploadFile(token, bucketURL, filename string, body io.Reader) (string, error)
}

type Deposition struct {
	ID       int                `json:"id"`
	Metadata DepositionMetadata `json:"metadata"`
	Links    DepositionLinks    `json:"links"`
}

type DepositionMetadata struct {
	UploadType  string    `json:"upload_type"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	AccessRight string    `json:"access_right,omitempty"`
	Creators    []Creator `json:"creators,omitempty"`
}

type Creator struct {
	Name        string `json:"name"`
	Affiliation string `json:"affiliation,omitempty"`
}

type DepositionLinks struct {
	Bucket string `json:"bucket"`
	HTML   string `json:"html,omitempty"`
	Self   string `json:"self,omitempty"`
}

type Client struct {
	apiURL string
	c      *resty.Client
}

// NewClient creates a client for the deposition API rooted at apiURL,
// eg https://zenodo.org/api/deposit/depositions.
func NewClient(apiURL string) *Client {
	return &Client{
		apiURL: strings.TrimRight(apiURL, "/"),
		c:      resty.New(),
	}
}

// GetDeposition retrieves a deposition, including its title and the bucket
// URL uploads are streamed to.
func (c *Client) GetDeposition(token string, depositionID int) (*Deposition, error) {
	var deposition Deposition

	resp, err := c.c.R().
		SetHeader("Content-Type", "application/json").
		SetQueryParam("access_token", token).
		SetResult(&deposition).
		Get(fmt.Sprintf("%s/%d", c.apiURL, depositionID))
	if err != nil {
		return nil, err
	}

	if resp.IsError() {
		_, err := ToErrorFromResponse(resp)
		return nil, err
	}

	return &deposition, nil
}

// ListDepositions returns the depositions visible to the given token.
func (c *Client) ListDepositions(token string) ([]Deposition, error) {
	var depositions []Deposition

	resp, err := c.c.R().
		SetQueryParam("access_token", token).
		SetResult(&depositions).
		Get(c.apiURL)
	if err != nil {
		return nil, err
	}

	if resp.IsError() {
		_, err := ToErrorFromResponse(resp)
		return nil, err
	}

	return depositions, nil
}

// CreateDeposition creates a new deposition with the given metadata. The API
// answers 201 with the full deposition on success; anything else is an error.
func (c *Client) CreateDeposition(token string, metadata DepositionMetadata) (*Deposition, error) {
	var deposition Deposition

	resp, err := c.c.R().
		SetHeader("Content-Type", "application/json").
		SetQueryParam("access_token", token).
		SetBody(map[string]interface{}{"metadata": metadata}).
		SetResult(&deposition).
		Post(c.apiURL)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode() != http.StatusCreated {
		_, err := ToErrorFromResponse(resp)
		return nil, err
	}

	return &deposition, nil
}

// UploadFile streams body to {bucketURL}/{filename} and returns the raw
// response text, which callers store as the transfer's audit trail.
func (c *Client) UploadFile(token, bucketURL, filename string, body io.Reader) (string, error) {
	resp, err := c.c.R().
		SetQueryParam("access_token", token).
		SetBody(body).
		Put(fmt.Sprintf("%s/%s", strings.TrimRight(bucketURL, "/"), filename))
	if err != nil {
		return "", err
	}

	if resp.IsError() {
		_, err := ToErrorFromResponse(resp)
		return "", err
	}

	return resp.String(), nil
}
