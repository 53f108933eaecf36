// Package integrationtests runs the compiled dfilter binary end to end. The
// tests only run with DFILTER_INTEGRATION_TEST_RUN_MODE=yes and expect the
// binary at ../dfilter (go build -o dfilter ./cmd/dfilter).
package integrationtests

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"testing"
)

const binary = "../dfilter"

func skipIfNotIntegrationTest(t *testing.T) {
	t.Helper()
	if os.Getenv("DFILTER_INTEGRATION_TEST_RUN_MODE") != "yes" {
		t.Skip("Skipping, DFILTER_INTEGRATION_TEST_RUN_MODE is not 'yes'")
	}
}

// runCommand runs the binary and writes its stdout to stdoutFile. Stderr is
// logged.
func runCommand(ctx context.Context, t *testing.T, stdoutFile string, args ...string) (int, error) {
	t.Helper()
	if _, err := os.Stat(binary); err != nil {
		return 0, fmt.Errorf("no such executable '%s', please compile first: %v", binary, err)
	}

	fd, err := os.Create(stdoutFile)
	if err != nil {
		return 0, err
	}
	defer fd.Close()

	t.Log("Running command", binary, strings.Join(args, " "))
	var stderr strings.Builder
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdout = fd
	cmd.Stderr = &stderr
	err = cmd.Run()
	if stderr.Len() > 0 {
		t.Log(stderr.String())
	}
	t.Log("Done running command!", err)

	return exitCodeFromError(err), err
}

func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	if exitError, ok := err.(*exec.ExitError); ok {
		ws := exitError.Sys().(syscall.WaitStatus)
		return ws.ExitStatus()
	}
	return -1
}
