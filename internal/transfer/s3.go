package transfer

import (
	"fmt"
	"strings"

	"github.com/imi-tools/imirun/internal/errors"
	"github.com/imi-tools/imirun/pkg/sshutil"
)

// BuildS3PullCommand builds the remote command that streams a run archive
// from object storage straight into the instance's output directory. The
// download runs inside a detached tmux session so the SSH connection can
// drop without killing it.
func BuildS3PullCommand(s3Base, runName, outputDir string) string {
	s3Base = strings.TrimSuffix(s3Base, "/")
	dest := outputDir + "/" + runName
	stream := fmt.Sprintf("aws s3 cp %s/%s/%s.tar.gz - | tar -xz -C %s",
		s3Base, runName, runName, dest)
	return fmt.Sprintf("mkdir -p %s && %s", dest, sshutil.TmuxWrap("s3sync", stream))
}

// PullFromS3 kicks off a remote-side download of a run archive from object
// storage. It returns once the tmux session is started; the transfer itself
// continues on the instance.
func PullFromS3(r sshutil.Runner, s3Base, runName, outputDir string) error {
	if runName == "" {
		return errors.New(errors.ErrTransfer,
			"A run name is required to pull from S3",
			"Pass the run name: imirun copy_from_s3 <run_name>")
	}

	cmd := BuildS3PullCommand(s3Base, runName, outputDir)
	log.Debug("remote: %s", cmd)

	_, stderr, code, err := r.Exec(cmd)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrTransfer,
			"Starting the S3 download on the instance failed",
			"Check the instance is reachable and tmux is installed (imirun instance_setup)")
	}
	if code != 0 {
		return errors.New(errors.ErrTransfer,
			fmt.Sprintf("Starting the S3 download failed (exit %d): %s", code, strings.TrimSpace(string(stderr))),
			"Check the instance has the aws CLI and tmux installed")
	}
	return nil
}
