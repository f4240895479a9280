package sshutil

import (
	"fmt"
	"strings"
)

// TmuxWrap wraps a shell command in a detached tmux session so it survives
// the SSH connection closing. Single quotes inside the command are escaped
// for the surrounding quoting.
func TmuxWrap(sessionName, cmd string) string {
	escaped := strings.ReplaceAll(cmd, "'", `'\''`)
	return fmt.Sprintf("tmux new-session -d -s %s '%s'", sessionName, escaped)
}
