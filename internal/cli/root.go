// Package cli implements the predict command line client.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"signcam/internal/app"
	"signcam/internal/config"
	"signcam/internal/logger"
	"signcam/internal/service/preview"
	"signcam/internal/session"
)

// Version is the application version.
const Version = "0.1.0"

// options are shared by every subcommand.
type options struct {
	baseURL string
	verbose bool

	openers app.OpenerFactory
	cfg     *config.Config
	logger  *logger.Logger
}

// newSession builds a session whose camera is the named source ("" uses the configured one).
func (o *options) newSession(cameraSource string) *session.Session {
	if cameraSource == "" {
		cameraSource = o.cfg.CameraSource
	}
	surface := preview.NewSurface(o.logger)
	opener := o.openers(cameraSource, o.cfg.FrameInterval, o.logger)
	return app.NewSession(o.cfg, opener, surface, o.logger, nil)
}

// NewRootCmd builds the predict command tree. openers resolves --source and CAMERA_SOURCE.
func NewRootCmd(openers app.OpenerFactory) *cobra.Command {
	opts := &options{openers: openers}

	rootCmd := &cobra.Command{
		Use:           "predict",
		Short:         "Classify images and live camera frames with a remote prediction service",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if opts.baseURL != "" {
				cfg.PredictBaseURL = opts.baseURL
			}
			opts.cfg = cfg

			if opts.verbose {
				opts.logger = logger.NewConsole(cmd.ErrOrStderr())
			} else {
				opts.logger = logger.Discard()
			}
			return nil
		},
	}
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "base-url", "", "prediction service base URL (default from PREDICT_BASE_URL or "+config.DefaultBaseURL+")")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log to stderr")

	rootCmd.AddCommand(newUploadCmd(opts), newLiveCmd(opts), newConsoleCmd(opts))
	return rootCmd
}

func Execute(openers app.OpenerFactory) {
	// Ctrl+C cancels the command context, which stops live capture.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd(openers).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
