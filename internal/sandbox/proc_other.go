//go:build !unix

package sandbox

import "os/exec"

func configureProcess(cmd *exec.Cmd) {
	cmd.Cancel = func() error {
		return cmd.Process.Kill()
	}
}

func killGroup(cmd *exec.Cmd) error {
	return nil
}
