package signal

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminationCancels(t *testing.T) {
	parent, stop := context.WithCancel(context.Background())
	defer stop()
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	interruptCh(parent, cancel, func() {})
	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGTERM))

	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("context not cancelled after SIGTERM")
	}
}

func TestSecondInterruptCancels(t *testing.T) {
	parent, stop := context.WithCancel(context.Background())
	defer stop()
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	statsCh := interruptCh(parent, cancel, func() {})
	hints := make(chan string, 1)
	go func() { hints <- <-statsCh }()
	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGINT))

	select {
	case hint := <-hints:
		assert.Contains(t, hint, "Ctrl+C")
	case <-time.After(5 * time.Second):
		t.Fatal("no stats request after SIGINT")
	}
	assert.NoError(t, ctx.Err())

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGINT))
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("context not cancelled after second SIGINT")
	}
}
