package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"signcam/internal/session"
)

func newLiveCmd(opts *options) *cobra.Command {
	var (
		cameraSource string
		duration     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "live",
		Short: "Stream camera frames to the prediction service and print each new label",
		Long: "Stream camera frames to the prediction service and print each new label.\n" +
			"Stops on the capture cutoff, after --duration, or on Ctrl+C.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}

			sess := opts.newSession(cameraSource)
			defer sess.Close()
			return runLive(ctx, sess, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&cameraSource, "source", "", `camera source: "webcam" or a directory of images (default from CAMERA_SOURCE)`)
	cmd.Flags().DurationVar(&duration, "duration", 0, "stop after this long (0 waits for the cutoff or Ctrl+C)")
	return cmd
}

// runLive prints label changes until ctx is done or the session leaves live mode by itself.
func runLive(ctx context.Context, sess *session.Session, out io.Writer) error {
	ended := make(chan struct{})
	labels := make(chan string, 16)
	var last *string
	started := false

	sess.Subscribe(func(st session.State) {
		if st.UseLiveVideo {
			started = true
			if st.Prediction.Status == session.StatusSuccess {
				label := st.Prediction.Display()
				if last == nil || *last != label {
					last = &label
					select {
					case labels <- label:
					default:
					}
				}
			}
			return
		}
		if started {
			started = false
			close(ended)
		}
	})

	if err := sess.StartLive(ctx); err != nil {
		return err
	}
	fmt.Fprintf(out, "Live capture started (stream %s)\n", sess.State().StreamID)

	printLabel := func(label string) {
		fmt.Fprintf(out, "[%s] %s\n", time.Now().Format("15:04:05"), label)
	}

	for {
		select {
		case label := <-labels:
			printLabel(label)
		case <-ended:
			for len(labels) > 0 {
				printLabel(<-labels)
			}
			fmt.Fprintln(out, "Live capture stopped")
			return nil
		case <-ctx.Done():
			sess.StopLive()
			fmt.Fprintln(out, "Live capture stopped")
			return nil
		}
	}
}
