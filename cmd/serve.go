package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/they4kman/sweepd/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the board over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		if !cfg.Debug {
			gin.SetMode(gin.ReleaseMode)
		}

		g, err := newGame(cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logrus.WithFields(logrus.Fields{
			"width":            cfg.Width,
			"height":           cfg.Height,
			"mine_probability": cfg.MineProbability,
			"static_dir":       cfg.StaticDir,
		}).Info("Starting sweepd")

		return server.New(g, server.Options{
			StaticDir: cfg.StaticDir,
			Debug:     cfg.Debug,
		}).Run(ctx, cfg.Addr)
	},
}

func init() {
	flags := serveCmd.Flags()
	flags.StringVar(&flagConfig.Addr, "addr", ":3000", "Address to listen on")
	flags.StringVar(&flagConfig.StaticDir, "static-dir", "", "Directory of the browser client to serve")
	flags.BoolVar(&flagConfig.Debug, "debug", false, "Enable debug routes, including /snapshot")

	rootCmd.AddCommand(serveCmd)
}
