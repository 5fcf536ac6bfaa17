package main

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/flashguard/internal/cliconfig"
)

func TestRun_CanceledBeforeConnect(t *testing.T) {
	cfg := cliconfig.DefaultConfig()
	cfg.Token = "test-token"
	cfg.ChannelID = "123"

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- run(ctx, zerolog.New(io.Discard), cfg) }()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("run() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("run() kept retrying after the context was canceled")
	}
}
