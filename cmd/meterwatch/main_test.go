package main

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"
)

func TestGracefulShutdown(t *testing.T) {
	// We can't easily exercise the full main() function, but we can verify
	// that the shutdown signal plumbing works as expected.
	sig := make(chan os.Signal, 1)
	done := make(chan bool, 1)

	go func() {
		<-sig
		done <- true
	}()

	sig <- syscall.SIGTERM

	select {
	case <-done:
		// signal was received
	case <-time.After(1 * time.Second):
		t.Error("signal handler did not receive signal")
	}
}

func TestShutdownContextTimeout(t *testing.T) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	select {
	case <-shutdownCtx.Done():
		// expected - context timed out
	case <-time.After(200 * time.Millisecond):
		t.Error("context did not timeout as expected")
	}
}
