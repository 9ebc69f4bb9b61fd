package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// RunExtension attempts to find and execute an external hld-<subcommand> binary.
// The configuration is passed to it as HLD_* environment variables.
//
// It returns (true, exitCode) if an extension was found and executed,
// and (false, 0) if no extension was found.
func RunExtension(cfg *Config, subcommand string, args []string) (bool, int) {
	name := "hld-" + subcommand

	path, err := exec.LookPath(name)
	if err != nil {
		return false, 0
	}

	cmd := exec.Command(path, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), cfg.Env()...)

	if err := cmd.Run(); err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return true, exitError.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "Error executing external command %q: %v\n", name, err)
		return true, 1
	}
	return true, 0
}
