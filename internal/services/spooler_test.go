package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Riboost-Studio/theater-pos-agent/internal/model"
)

func TestSpoolerCommand(t *testing.T) {
	tests := []struct {
		goos, printer string
		wantName      string
		wantArgs      []string
	}{
		{"linux", "Counter 1", "lp", []string{"-d", "Counter 1", "/tmp/r.pdf"}},
		{"darwin", "", "lp", []string{"/tmp/r.pdf"}},
		{"windows", "", "powershell", []string{"-NoProfile", "-NonInteractive", "-Command",
			"Start-Process -FilePath '/tmp/r.pdf' -Verb Print -Wait"}},
		{"windows", "Bob's POS", "powershell", []string{"-NoProfile", "-NonInteractive", "-Command",
			`Start-Process -FilePath '/tmp/r.pdf' -Verb PrintTo -ArgumentList '"Bob''s POS"' -Wait`}},
	}
	for _, tt := range tests {
		s := &SystemSpooler{GOOS: tt.goos}
		name, args := s.Command("/tmp/r.pdf", tt.printer)
		if name != tt.wantName || strings.Join(args, "|") != strings.Join(tt.wantArgs, "|") {
			t.Errorf("%s/%q: got %s %q, want %s %q", tt.goos, tt.printer, name, args, tt.wantName, tt.wantArgs)
		}
	}
}

func TestSystemSpooler_Submit(t *testing.T) {
	var gotName string
	var gotArgs []string
	s := &SystemSpooler{
		GOOS: "linux",
		Exec: func(_ context.Context, name string, args ...string) ([]byte, error) {
			gotName, gotArgs = name, args
			return []byte("request id is Counter-1 (1 file(s))"), nil
		},
	}
	if err := s.Submit(context.Background(), "/tmp/r.pdf", model.PrinterConfig{PrinterName: "Counter 1"}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if gotName != "lp" || len(gotArgs) != 3 {
		t.Fatalf("unexpected command %s %v", gotName, gotArgs)
	}

	s.Exec = func(context.Context, string, ...string) ([]byte, error) {
		return []byte("lp: The printer or class does not exist.\n"), errors.New("exit status 1")
	}
	err := s.Submit(context.Background(), "/tmp/r.pdf", model.PrinterConfig{PrinterName: "Nope"})
	if err == nil || !strings.Contains(err.Error(), "does not exist") {
		t.Fatalf("expected spooler output in error, got %v", err)
	}
}
