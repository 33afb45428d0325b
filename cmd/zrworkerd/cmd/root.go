package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/openresearchdata/zenodo-relay/pkg/config"
	"github.com/openresearchdata/zenodo-relay/pkg/export"
	"github.com/openresearchdata/zenodo-relay/pkg/monitor"
	"github.com/openresearchdata/zenodo-relay/pkg/zenodo"
	"github.com/openresearchdata/zenodo-relay/pkg/zrdb"
	"github.com/openresearchdata/zenodo-relay/pkg/zrdb/stor"
	"github.com/openresearchdata/zenodo-relay/pkg/zrqueue"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "zrworkerd",
	Short: "Worker daemon that uploads queued transfers to Zenodo",
	Long:  `Worker daemon that uploads queued transfers to Zenodo`,
	Run: func(cmd *cobra.Command, args []string) {
		c := config.MustLoadFromDotenv()
		if err := Run(context.Background(), c); err != nil {
			log.Fatalf("zrworkerd: %s", err)
		}
	},
}

func Run(c context.Context, conf config.Configer) error {
	ctx, cancel := context.WithCancel(c)
	defer cancel()

	db := zrdb.MustConnectToDB(zrdb.MakeDSN(conf))
	stors := stor.NewGormStors(db)

	queueName := conf.GetKeyWithDefault("ZR_QUEUE", "zenodo_upload")
	queue, err := zrqueue.DialAmqpTaskQueue(conf.MustGetKey("ZR_AMQP_URL"), queueName)
	if err != nil {
		return err
	}
	defer queue.Close()

	zenodoClient := zenodo.NewClient(conf.GetKeyWithDefault("ZENODO_API_URL", "https://zenodo.org/api/deposit/depositions"))

	stalePendingAge := time.Duration(conf.GetIntKeyWithDefault("ZR_STALE_PENDING_AGE_MINUTES", 15)) * time.Minute
	pendingMonitor := monitor.NewPendingMonitor(
		monitor.WithTransferStor(stors.TransferStor),
		monitor.WithAllowedPendingAge(stalePendingAge))
	go pendingMonitor.Run(ctx)

	go cancelOnSignal(cancel)

	worker := export.NewWorker(stors.TransferStor, queue, zenodoClient)
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	log.Infof("Shutting down...")

	return nil
}

func cancelOnSignal(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	sig := <-c
	log.Infof("Got %s signal, stopping worker...", sig)
	cancel()
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
