package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/fbz-tec/storexport/internal/server"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the export API over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.close()

		addr := e.cfg.HTTPAddr
		if listenAddr != "" {
			addr = listenAddr
		}
		if !verbose {
			gin.SetMode(gin.ReleaseMode)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return server.New(e.engine, e.registry).Run(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "Listen address (overrides HTTP_ADDR)")
}
