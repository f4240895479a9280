package run

import (
	"bytes"
	"fmt"
	"io"

	"github.com/imi-tools/imirun/internal/errors"
	"github.com/imi-tools/imirun/pkg/sshutil"
)

// completionMarkers end a log follow: either the posterior simulation has
// been reached or the tool announced its own exit.
var completionMarkers = []string{"Posterior", "IMI ended"}

// markerWriter passes log output through to dst while scanning complete
// lines for completion markers. The first match fires done exactly once.
type markerWriter struct {
	dst   io.Writer
	line  bytes.Buffer
	done  func()
	fired bool
}

func (w *markerWriter) Write(p []byte) (int, error) {
	n, err := w.dst.Write(p)
	if err != nil {
		return n, err
	}
	w.line.Write(p)
	for {
		idx := bytes.IndexByte(w.line.Bytes(), '\n')
		if idx < 0 {
			break
		}
		line := w.line.Next(idx + 1)
		w.scan(line)
	}
	return len(p), nil
}

func (w *markerWriter) scan(line []byte) {
	if w.fired {
		return
	}
	for _, m := range completionMarkers {
		if bytes.Contains(line, []byte(m)) {
			w.fired = true
			w.done()
			return
		}
	}
}

// Tail streams a remote log file to out until the connection drops or the
// user interrupts. lines>0 seeds the tail with that much history.
func Tail(r sshutil.Runner, imiDir, logfile string, lines int, out io.Writer) error {
	cmd := fmt.Sprintf("tail -n %d -f %s/%s", lines, imiDir, logfile)
	log.Debug("remote: %s", cmd)
	if _, err := r.ExecStream(cmd, out, out); err != nil {
		return errors.WrapWithCode(err, errors.ErrSSH,
			"Tailing "+logfile+" failed",
			"Check the file exists on the instance (the run may not have started yet)")
	}
	return nil
}

// Follow tails the run log and, when a completion marker appears, fires
// onComplete and tears the tail down. `tail -f` never exits on its own, so
// teardown closes the SSH connection out from under it; the resulting
// stream error is expected and swallowed.
func Follow(r sshutil.Runner, imiDir, logfile string, out io.Writer, onComplete func()) error {
	w := &markerWriter{dst: out, done: func() {
		onComplete()
		r.Close() //nolint:errcheck // tearing down a tail we no longer need
	}}

	cmd := fmt.Sprintf("tail -n 1000 -f %s/%s", imiDir, logfile)
	log.Debug("remote: %s", cmd)

	_, err := r.ExecStream(cmd, w, out)
	if w.fired {
		return nil
	}
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrSSH,
			"Following the run log failed",
			"Re-attach with: imirun log")
	}
	return nil
}
