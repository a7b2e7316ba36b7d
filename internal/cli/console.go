package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"signcam/internal/camera"
	"signcam/internal/session"
)

const consoleHelp = `Commands:
  select PATH   choose an image file
  submit        send the selected file
  live          start live capture
  stop          stop live capture
  state         print the session state
  quit          leave the console`

func newConsoleCmd(opts *options) *cobra.Command {
	var cameraSource string

	cmd := &cobra.Command{
		Use:   "console",
		Short: "Interactive session: select and submit files, toggle live capture",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rl, err := readline.NewEx(&readline.Config{
				Prompt:          "> ",
				InterruptPrompt: "^C",
				EOFPrompt:       "quit",
			})
			if err != nil {
				return err
			}
			defer func() {
				_ = rl.Close()
			}()

			sess := opts.newSession(cameraSource)
			defer sess.Close()

			c := newConsole(sess, rl.Stdout())
			fmt.Fprintln(c.out, consoleHelp)
			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) {
					continue
				}
				if err != nil { // io.EOF
					return nil
				}
				if c.exec(cmd.Context(), line) {
					return nil
				}
			}
		},
	}

	cmd.Flags().StringVar(&cameraSource, "source", "", `camera source: "webcam" or a directory of images (default from CAMERA_SOURCE)`)
	return cmd
}

// console runs one command line at a time against a session.
type console struct {
	sess *session.Session

	mu  sync.Mutex
	out io.Writer
}

func newConsole(sess *session.Session, out io.Writer) *console {
	c := &console{sess: sess, out: out}

	wasLive := false
	last := ""
	sess.Subscribe(func(st session.State) {
		switch {
		case st.UseLiveVideo && st.Prediction.Status == session.StatusSuccess:
			if label := st.Prediction.Display(); label != last {
				last = label
				c.println("prediction: " + label)
			}
		case !st.UseLiveVideo && wasLive:
			last = ""
			c.println("live capture stopped")
		}
		wasLive = st.UseLiveVideo
	})
	return c
}

func (c *console) println(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, s)
}

// exec runs line and reports whether the console should exit.
func (c *console) exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	switch fields[0] {
	case "select":
		if len(fields) < 2 {
			c.println("usage: select PATH")
			return false
		}
		path := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "select"))
		data, err := os.ReadFile(path)
		if err != nil {
			c.println(fmt.Sprintf("cannot read %s: %v", path, err))
			return false
		}
		c.sess.SelectFile(filepath.Base(path), data)
		c.println("selected " + filepath.Base(path))

	case "submit":
		st := c.sess.State()
		switch {
		case st.UseLiveVideo:
			c.println("stop live capture first")
		case st.SelectedFile == nil:
			c.println("no file selected")
		default:
			st = c.sess.Submit(ctx)
			c.println("prediction: " + st.Prediction.Display())
		}

	case "live":
		if err := c.sess.StartLive(ctx); err != nil {
			if errors.Is(err, camera.ErrPermissionDenied) {
				c.println("camera access denied")
			} else {
				c.println(fmt.Sprintf("camera unavailable: %v", err))
			}
			return false
		}
		c.println("live capture started")

	case "stop":
		c.sess.StopLive()

	case "state":
		data, err := json.MarshalIndent(c.sess.State().View(), "", "  ")
		if err != nil {
			c.println(err.Error())
			return false
		}
		c.println(string(data))

	case "help":
		c.println(consoleHelp)

	case "quit", "exit":
		return true

	default:
		c.println(fmt.Sprintf("unknown command %q, try help", fields[0]))
	}
	return false
}
