package cmd

import (
	"github.com/labstack/echo/v4"
	"github.com/openresearchdata/zenodo-relay/pkg/export"
	"github.com/openresearchdata/zenodo-relay/pkg/webapi"
	"github.com/openresearchdata/zenodo-relay/pkg/zenodo"
	"github.com/openresearchdata/zenodo-relay/pkg/zrdb/stor"
)

type RouteOpts struct {
	submitter    *export.Submitter
	transferStor stor.TransferStor
	zenodoClient zenodo.DepositionClient
}

func setupRoutes(e *echo.Echo, opts RouteOpts) {
	g := e.Group("/api")

	exportsController := webapi.NewExportsController(opts.submitter, opts.zenodoClient)
	g.POST("/exports", exportsController.ExportToDeposition)
	g.POST("/depositions", exportsController.CreateDepositionAndExport)
	g.GET("/depositions", exportsController.ListDepositions)

	transfersController := webapi.NewTransfersController(opts.transferStor)
	g.GET("/users/:username/transfers", transfersController.GetTransfersForUser)
}
