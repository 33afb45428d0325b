package cmd

import (
	"os"
	"path/filepath"

	"github.com/apex/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/openresearchdata/zenodo-relay/pkg/config"
	"github.com/openresearchdata/zenodo-relay/pkg/export"
	"github.com/openresearchdata/zenodo-relay/pkg/zenodo"
	"github.com/openresearchdata/zenodo-relay/pkg/zrdb"
	"github.com/openresearchdata/zenodo-relay/pkg/zrdb/stor"
	"github.com/openresearchdata/zenodo-relay/pkg/zrqueue"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "zrapid",
	Short: "Run the zenodo-relay API server",
	Long:  `Run the zenodo-relay API server`,
	Run: func(cmd *cobra.Command, args []string) {
		e := echo.New()
		e.HideBanner = true
		e.HidePort = true
		e.Use(middleware.Recover())

		c := config.MustLoadFromDotenv()

		db := zrdb.MustConnectToDB(zrdb.MakeDSN(c))
		stors := stor.NewGormStors(db)

		queueName := c.GetKeyWithDefault("ZR_QUEUE", "zenodo_upload")
		queue, err := zrqueue.DialAmqpTaskQueue(c.MustGetKey("ZR_AMQP_URL"), queueName)
		if err != nil {
			log.Fatalf("Unable to connect to broker: %s", err)
		}

		zenodoClient := zenodo.NewClient(c.GetKeyWithDefault("ZENODO_API_URL", "https://zenodo.org/api/deposit/depositions"))

		resourcesDir := c.MustGetKey("ZR_RESOURCES_DIR")
		submitter := export.NewSubmitter(stors.TransferStor, queue, zenodoClient, defaultPathResolver(resourcesDir))

		setupRoutes(e, RouteOpts{
			submitter:    submitter,
			transferStor: stors.TransferStor,
			zenodoClient: zenodoClient,
		})

		if err := e.Start(":" + c.GetKeyWithDefault("ZRAPID_PORT", "8090")); err != nil {
			log.Fatalf("Unable to start server: %s", err)
		}
	},
}

// defaultPathResolver maps a resource id to its blob under the portal's
// resources directory, sharded as id[:3]/id[3:6]/id[6:].
func defaultPathResolver(resourcesDir string) export.PathResolverFN {
	return func(resourceID, resourceURL string) string {
		if len(resourceID) < 7 {
			return filepath.Join(resourcesDir, resourceID)
		}
		return filepath.Join(resourcesDir, resourceID[:3], resourceID[3:6], resourceID[6:])
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
