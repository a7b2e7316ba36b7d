package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"signcam/internal/session"
)

// ErrPrediction is returned when the service could not classify the image.
var ErrPrediction = errors.New("prediction failed")

func newUploadCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "upload FILE",
		Short: "Send an image file to the prediction service and print the label",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read image: %w", err)
			}

			sess := opts.newSession("")
			defer sess.Close()
			sess.SelectFile(filepath.Base(args[0]), data)

			bar := progressbar.NewOptions(-1,
				progressbar.OptionSetDescription("Predicting"),
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionSpinnerType(14),
				progressbar.OptionClearOnFinish(),
			)

			done := make(chan session.State, 1)
			go func() {
				done <- sess.Submit(cmd.Context())
			}()

			st := waitWithSpinner(bar, done)

			fmt.Fprintln(cmd.OutOrStdout(), st.Prediction.Display())
			if st.Prediction.Status == session.StatusFailure {
				return ErrPrediction
			}
			return nil
		},
	}
}

// waitWithSpinner spins bar until the upload finishes.
func waitWithSpinner(bar *progressbar.ProgressBar, done <-chan session.State) session.State {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case st := <-done:
			bar.Finish()
			return st
		case <-ticker.C:
			bar.Add(1)
		}
	}
}
