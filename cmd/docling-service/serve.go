// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/docling-service/internal/config"
	"github.com/pdiddy/docling-service/internal/convert"
	"github.com/pdiddy/docling-service/internal/logging"
	"github.com/pdiddy/docling-service/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP conversion service",
	Long: `Serve listens on PORT and exposes GET /, GET /health and POST /convert-pdf.
The service refuses to start without DOCLING_SERVICE_API_KEY (or a
docling-service-api-key file in the secrets directory).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := viper.BindPFlag(config.KeyPort, cmd.Flags().Lookup("port")); err != nil {
			return err
		}

		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			logging.Default().WithError(err).Error("invalid_configuration")
			return err
		}

		logger, err := logging.New(os.Stdout, cfg.LogLevel)
		if err != nil {
			return err
		}
		logger.Info("service_starting",
			"version", version,
			"port", cfg.Port,
			"workers", cfg.Workers,
			"max_file_size", humanize.IBytes(uint64(cfg.MaxFileSize)),
			"conversion_timeout", cfg.ConversionTimeout.String(),
			"api_key_configured", cfg.APIKey != "",
			"allowed_origins", cfg.AllowedOrigins,
			"backend", string(cfg.Conversion.Backend),
		)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		conv, err := convert.New(ctx, cfg.Conversion)
		if err != nil {
			logger.WithError(err).Error("converter_unavailable", "backend", string(cfg.Conversion.Backend))
			return fmt.Errorf("starting converter: %w", err)
		}

		gin.SetMode(gin.ReleaseMode)
		srv := server.New(cfg, conv, logger)
		if err := srv.Run(ctx); err != nil {
			logger.WithError(err).Error("server_error")
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port (overrides PORT)")

	rootCmd.AddCommand(serveCmd)
}

