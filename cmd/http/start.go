package http

import (
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/muthu-2006-p/employeetimesheettracker-sub000/config"
	httpapi "github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/api/http"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/pkg/logs"
)

func NewStartCommand() *cobra.Command {
	var (
		shutdownTimeout time.Duration
		verboseFx       bool
	)

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, err := cmd.Root().PersistentFlags().GetString("config")
			if err != nil {
				return err
			}

			cfg, err := config.ReadConfig(filepath.Dir(cfgPath))
			if err != nil {
				return err
			}

			// Set up structured logger before fx starts so all logs use it.
			logger, flush := logs.New(cfg)
			defer flush()
			slog.SetDefault(logger)

			fxLogger := fx.WithLogger(func() fxevent.Logger { return fxevent.NopLogger })
			if verboseFx {
				fxLogger = fx.WithLogger(func() fxevent.Logger { return &fxevent.SlogLogger{Logger: logger} })
			}

			httpapi.Start(cfg, shutdownTimeout, fxLogger)
			return nil
		},
	}

	cmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 30*time.Second, "Maximum time to wait for graceful shutdown")
	cmd.Flags().BoolVar(&verboseFx, "verbose-fx", false, "Log dependency injection events")

	return cmd
}
