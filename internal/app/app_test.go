package app

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/minepilot/minepilot/internal/config"
	"github.com/minepilot/minepilot/internal/database"
)

func TestStartShutsDownOnContextCancel(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	cfg := config.Default()
	cfg.Addr = "127.0.0.1:0"
	cfg.MemoryFile = filepath.Join(t.TempDir(), "memory.json")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- New(log, cfg, database.Migrations).Start(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after context cancellation")
	}
}
