package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rawbytedev/kvview/scan"
	"github.com/rawbytedev/kvview/server"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "serve the browsing API over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		metrics := server.NewMetrics()
		e, err := setup(cmd, scan.WithRestartCounter(metrics.Restarts))
		if err != nil {
			return err
		}
		defer func() { err = e.close(err) }()

		if e.log.IsLevelEnabled(logrus.DebugLevel) {
			gin.SetMode(gin.DebugMode)
		} else {
			gin.SetMode(gin.ReleaseMode)
		}
		banner(e.log)
		e.log.WithFields(logrus.Fields{
			"engine": e.cfg.Store.Engine,
			"dir":    e.cfg.Store.Dir,
			"limit":  e.cfg.ListLimit,
		}).Info("store ready")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return server.New(e.svc, e.log, metrics).Run(ctx, e.cfg.Server.Address())
	},
}

func banner(log logrus.FieldLogger) {
	log.Info("Welcome to kvview!")
	log.Info("Configuration:")
	log.Info("\tport: --port, KVVIEW_SERVER_PORT or PORT. Defaults to 8000.")
	log.Info("\tstore path: --dir, KVVIEW_STORE_DIR or KV_PATH.")
	log.Info("\tengine: --engine or KVVIEW_STORE_ENGINE. Defaults to badger.")
	log.Info("\tpage size: --limit, KVVIEW_LIST_LIMIT or LIST_LIMIT. Defaults to 10.")
}

func init() {
	serveCmd.Flags().String("host", "", "listen host")
	serveCmd.Flags().Int("port", 8000, "listen port")
	serveCmd.Flags().Int("limit", 10, "entries per page")
	rootCmd.AddCommand(serveCmd)
}
