// Package transfer moves files between the local machine, the remote
// instance, and object storage. It shells out to scp and rsync rather than
// re-implementing them: incremental transfer, compression, and partial-file
// handling come for free from tools every operator already has.
package transfer

import (
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/imi-tools/imirun/internal/errors"
	"github.com/imi-tools/imirun/internal/logger"
)

// Target identifies the remote end of a transfer.
type Target struct {
	User    string // SSH login user (e.g. ubuntu)
	Host    string // public DNS or IP
	KeyPath string // private key for -i
}

// UserHost returns the user@host form scp and rsync expect.
func (t Target) UserHost() string {
	return t.User + "@" + t.Host
}

var log = logger.NewEnvLogger("[transfer]")

// FindScp locates the scp binary.
func FindScp() (string, error) {
	path, err := exec.LookPath("scp")
	if err != nil {
		return "", errors.New(errors.ErrTransfer,
			"scp isn't installed locally",
			"It ships with OpenSSH: apt install openssh-client (Linux) or it's already on macOS")
	}
	return path, nil
}

// FindRsync locates the rsync binary.
func FindRsync() (string, error) {
	path, err := exec.LookPath("rsync")
	if err != nil {
		return "", errors.New(errors.ErrTransfer,
			"rsync isn't installed locally",
			"Grab it with: brew install rsync (macOS) or apt install rsync (Linux)")
	}
	return path, nil
}

// BuildScpArgs constructs scp arguments for a single file copy in either
// direction. Exported for testing command construction without running scp.
func BuildScpArgs(t Target, src, dst string) []string {
	return []string{
		"-i", t.KeyPath,
		"-o", "BatchMode=yes",
		"-o", "StrictHostKeyChecking=accept-new",
		src, dst,
	}
}

// BuildRsyncArgs constructs rsync arguments for pulling a remote directory.
// Exported for testing command construction without running rsync.
func BuildRsyncArgs(t Target, remoteDir, localDir string) []string {
	if !strings.HasSuffix(remoteDir, "/") {
		remoteDir += "/"
	}
	if !strings.HasSuffix(localDir, "/") {
		localDir += "/"
	}
	sshCmd := fmt.Sprintf("ssh -i %s -o BatchMode=yes -o StrictHostKeyChecking=accept-new", t.KeyPath)
	return []string{
		"-azP",
		"-e", sshCmd,
		t.UserHost() + ":" + remoteDir,
		localDir,
	}
}

// Push copies a local file to the remote instance.
func Push(t Target, localPath, remotePath string) error {
	scpPath, err := FindScp()
	if err != nil {
		return err
	}
	args := BuildScpArgs(t, localPath, t.UserHost()+":"+remotePath)
	return runTool(scpPath, args, "Copying "+localPath+" to the instance failed")
}

// Pull copies a remote file to local storage.
func Pull(t Target, remotePath, localPath string) error {
	scpPath, err := FindScp()
	if err != nil {
		return err
	}
	args := BuildScpArgs(t, t.UserHost()+":"+remotePath, localPath)
	return runTool(scpPath, args, "Copying "+remotePath+" from the instance failed")
}

// PullDir mirrors a remote directory into localDir with rsync.
// Progress output streams to progress when non-nil.
func PullDir(t Target, remoteDir, localDir string, progress io.Writer) error {
	rsyncPath, err := FindRsync()
	if err != nil {
		return err
	}

	args := BuildRsyncArgs(t, remoteDir, localDir)
	cmd := exec.Command(rsyncPath, args...)
	if progress != nil {
		cmd.Stdout = progress
		cmd.Stderr = progress
	}

	log.Debug("rsync %s", strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		return errors.WrapWithCode(err, errors.ErrTransfer,
			"Syncing "+remoteDir+" from the instance failed",
			"Check the remote path exists and the instance is reachable")
	}
	return nil
}

// runTool runs an external transfer command and wraps failures with its
// combined output, so the operator sees exactly what the tool said.
func runTool(path string, args []string, failMsg string) error {
	cmd := exec.Command(path, args...)
	log.Debug("%s %s", path, strings.Join(args, " "))

	output, err := cmd.CombinedOutput()
	if err != nil {
		cause := err
		if len(output) > 0 {
			cause = fmt.Errorf("%s: %s", err, strings.TrimSpace(string(output)))
		}
		return errors.WrapWithCode(cause, errors.ErrTransfer, failMsg,
			"Check the paths and that the instance is reachable")
	}
	return nil
}
