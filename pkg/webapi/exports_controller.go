package webapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/openresearchdata/zenodo-relay/pkg/export"
	"github.com/openresearchdata/zenodo-relay/pkg/zenodo"
	"github.com/pkg/errors"
)

// ExportsController is the front-end facing surface for submitting
// transfers. The caller supplies the username and Zenodo token on each
// request; there is no session state here.
type ExportsController struct {
	submitter    *export.Submitter
	zenodoClient zenodo.DepositionClient
}

func NewExportsController(submitter *export.Submitter, zenodoClient zenodo.DepositionClient) *ExportsController {
	return &ExportsController{submitter: submitter, zenodoClient: zenodoClient}
}

type exportRequest struct {
	Username     string `json:"username"`
	ZenodoToken  string `json:"zenodo_token"`
	ResourceID   string `json:"resource_id"`
	ResourceURL  string `json:"resource_url"`
	Filename     string `json:"filename"`
	DepositionID int    `json:"deposition_id"`
}

func (c *ExportsController) ExportToDeposition(ctx echo.Context) error {
	var req exportRequest

	if err := ctx.Bind(&req); err != nil {
		return err
	}

	transfer, err := c.submitter.ExportToDeposition(ctx.Request().Context(),
		req.Username, req.ZenodoToken, req.ResourceID, req.Filename, req.ResourceURL, req.DepositionID)
	if err != nil {
		return submissionErrorToHTTPError(err)
	}

	return ctx.JSON(http.StatusCreated, transfer)
}

type createDepositionRequest struct {
	Username              string `json:"username"`
	ZenodoToken           string `json:"zenodo_token"`
	ResourceID            string `json:"resource_id"`
	ResourceURL           string `json:"resource_url"`
	Filename              string `json:"filename"`
	DepositionName        string `json:"deposition_name"`
	DepositionDescription string `json:"deposition_description"`
}

func (c *ExportsController) CreateDepositionAndExport(ctx echo.Context) error {
	var req createDepositionRequest

	if err := ctx.Bind(&req); err != nil {
		return err
	}

	transfer, err := c.submitter.CreateDepositionAndExport(ctx.Request().Context(),
		req.Username, req.ZenodoToken, req.ResourceID, req.Filename, req.ResourceURL,
		zenodo.DepositionMetadata{
			Title:       req.DepositionName,
			Description: req.DepositionDescription,
		})
	if err != nil {
		return submissionErrorToHTTPError(err)
	}

	return ctx.JSON(http.StatusCreated, transfer)
}

func (c *ExportsController) ListDepositions(ctx echo.Context) error {
	token := ctx.QueryParam("access_token")
	if token == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "access_token is required")
	}

	depositions, err := c.zenodoClient.ListDepositions(token)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}

	return ctx.JSON(http.StatusOK, depositions)
}

func submissionErrorToHTTPError(err error) error {
	switch {
	case errors.Is(err, export.ErrSourceNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, export.ErrStoreUnavailable), errors.Is(err, export.ErrQueueUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, zenodo.ErrZenodoAPI):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	default:
		return err
	}
}
