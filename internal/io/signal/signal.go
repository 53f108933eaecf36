// Package signal maps process signals to context cancellation for the CLI.
package signal

import (
	"context"
	"os"
	gosignal "os/signal"
	"syscall"
	"time"

	"github.com/mimecast/dfilter/internal/constants"
)

// InterruptChWithCancel returns a channel for "please print stats" signalling.
// A second Ctrl+C within constants.InterruptTimeout, or a termination signal,
// calls cancel. The process is forced to exit if it is still running
// constants.ShutdownGracePeriod later.
func InterruptChWithCancel(ctx context.Context, cancel context.CancelFunc) <-chan string {
	return interruptCh(ctx, cancel, func() { os.Exit(1) })
}

func interruptCh(ctx context.Context, cancel context.CancelFunc, exit func()) <-chan string {
	sigIntCh := make(chan os.Signal, 10)
	gosignal.Notify(sigIntCh, os.Interrupt)
	sigOtherCh := make(chan os.Signal, 10)
	gosignal.Notify(sigOtherCh, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
	statsCh := make(chan string)

	shutdown := func() {
		cancel()
		go func() {
			time.Sleep(constants.ShutdownGracePeriod)
			exit()
		}()
	}

	go func() {
		defer gosignal.Stop(sigIntCh)
		defer gosignal.Stop(sigOtherCh)
		for {
			select {
			case <-sigIntCh:
				select {
				case statsCh <- "Hint: Hit Ctrl+C again to exit":
					select {
					case <-sigIntCh:
						shutdown()
						return
					case <-time.After(constants.InterruptTimeout):
					case <-ctx.Done():
						return
					}
				default:
					// Nobody is listening for stats.
					shutdown()
					return
				}
			case <-sigOtherCh:
				shutdown()
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return statsCh
}
