package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"

	"github.com/Riboost-Studio/theater-pos-agent/internal/model"
)

// testLogger drops debug lines: receipt cleanup logs at debug level from
// a timer that may fire after the test returned.
func testLogger(t *testing.T) *zap.SugaredLogger {
	return testZapLogger(t).Sugar()
}

func testZapLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t, zaptest.Level(zapcore.InfoLevel))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type spoolCall struct {
	Path    string
	Printer model.PrinterConfig
	Data    []byte
}

// fakeSpooler records every submission. fail decides per call whether
// the submission errors.
type fakeSpooler struct {
	mu    sync.Mutex
	calls []spoolCall
	fail  func(cfg model.PrinterConfig) error
}

func (s *fakeSpooler) Submit(_ context.Context, path string, cfg model.PrinterConfig) error {
	data, _ := os.ReadFile(path)
	s.mu.Lock()
	s.calls = append(s.calls, spoolCall{Path: path, Printer: cfg, Data: data})
	fail := s.fail
	s.mu.Unlock()
	if fail != nil {
		return fail(cfg)
	}
	return nil
}

func (s *fakeSpooler) Calls() []spoolCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]spoolCall(nil), s.calls...)
}

// removals counts scheduled file deletions and still removes the file.
type removals struct {
	mu    sync.Mutex
	paths []string
	done  chan string
}

func newRemovals() *removals {
	return &removals{done: make(chan string, 64)}
}

func (r *removals) Remove(path string) error {
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
	err := os.Remove(path)
	r.done <- path
	return err
}

func (r *removals) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

// wait blocks until n deletions happened or the timeout expires.
func (r *removals) wait(t *testing.T, n int) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for i := 0; i < n; i++ {
		select {
		case <-r.done:
		case <-deadline:
			t.Fatalf("expected %d deletions, got %d", n, i)
		}
	}
}

func newTestEngine(t *testing.T, sp Spooler, rm *removals) *ReceiptEngine {
	return &ReceiptEngine{
		Renderer:     HTMLRenderer{},
		Spooler:      sp,
		App:          model.AppInfo{Name: "Theater POS Agent", Author: "Riboost Studio"},
		WorkDir:      t.TempDir(),
		CleanupDelay: 10 * time.Millisecond,
		Location:     time.UTC,
		Remove:       rm.Remove,
	}
}

func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

var errPrinterOffline = errors.New("printer offline")
