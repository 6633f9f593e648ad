package collector

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
)

// SetupSignalHandler returns a context cancelled on the first SIGTERM or
// SIGINT, after calling onSignal if given. The collector stops at the next
// match boundary. A second signal exits immediately.
func SetupSignalHandler(parent context.Context, onSignal func()) context.Context {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		select {
		case sig := <-sigCh:
			log.Printf("[Signal] Received %v, finishing current match...", sig)
		case <-parent.Done():
			signal.Stop(sigCh)
			cancel()
			return
		}

		if onSignal != nil {
			onSignal()
		}
		cancel()

		sig := <-sigCh
		log.Printf("[Signal] Received second %v, forcing exit", sig)
		os.Exit(1)
	}()

	return ctx
}
