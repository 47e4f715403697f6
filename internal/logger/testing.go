package logger

import (
	"bytes"
	"sync"
	"time"
)

// SyncBuffer is a goroutine-safe bytes.Buffer for capturing log output in tests
type SyncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *SyncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *SyncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// NewTestLogger returns a debug-level Logger that writes into a SyncBuffer
func NewTestLogger() (Logger, *SyncBuffer) {
	buf := &SyncBuffer{}
	return NewSlogLogger(buf, LogLevelDebug, time.UTC), buf
}
