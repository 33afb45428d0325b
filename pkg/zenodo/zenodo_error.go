package zenodo

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-resty/resty/v2"
)

var ErrZenodoAPI = errors.New("zenodo api")

// ErrorResponse describes the JSON that Zenodo responds with when there is an error in an API call
type ErrorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func ToErrorFromResponse(resp *resty.Response) (*ErrorResponse, error) {
	var errorResponse ErrorResponse
	if err := json.Unmarshal(resp.Body(), &errorResponse); err != nil {
		return nil, errors.Join(ErrZenodoAPI, fmt.Errorf("(HTTP Status: %d)- unable to parse json error response: %s", resp.StatusCode(), err))
	}

	return &errorResponse, errors.Join(ErrZenodoAPI, fmt.Errorf("(HTTP Status: %d)- %s", resp.StatusCode(), errorResponse.Message))
}
