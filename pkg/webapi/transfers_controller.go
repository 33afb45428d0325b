package webapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/openresearchdata/zenodo-relay/pkg/zrdb/stor"
)

type TransfersController struct {
	transferStor stor.TransferStor
}

func NewTransfersController(transferStor stor.TransferStor) *TransfersController {
	return &TransfersController{transferStor: transferStor}
}

// GetTransfersForUser returns a user's transfers, newest first. The front
// end polls this for status display; it never blocks on the worker.
func (c *TransfersController) GetTransfersForUser(ctx echo.Context) error {
	username := ctx.Param("username")

	transfers, err := c.transferStor.GetTransfersForUser(username)
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}

	return ctx.JSON(http.StatusOK, transfers)
}
