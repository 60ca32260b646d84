package services

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/Riboost-Studio/theater-pos-agent/internal/model"
)

// Spooler submits a rendered receipt file to the OS print queue.
type Spooler interface {
	Submit(ctx context.Context, path string, cfg model.PrinterConfig) error
}

// SystemSpooler hands files to "lp" on Unix and to the shell's print
// verb on Windows. An empty printer name selects the OS default printer.
type SystemSpooler struct {
	GOOS string
	Exec func(ctx context.Context, name string, args ...string) ([]byte, error)
}

func NewSystemSpooler() *SystemSpooler {
	return &SystemSpooler{GOOS: runtime.GOOS, Exec: execCombined}
}

func execCombined(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

func (s *SystemSpooler) Submit(ctx context.Context, path string, cfg model.PrinterConfig) error {
	name, args := s.Command(path, cfg.PrinterName)
	out, err := s.Exec(ctx, name, args...)
	if err != nil {
		return fmt.Errorf("%s: %v: %s", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Command returns the program and arguments used to print path.
func (s *SystemSpooler) Command(path, printer string) (string, []string) {
	if s.GOOS == "windows" {
		script := "Start-Process -FilePath " + psQuote(path) + " -Verb Print -Wait"
		if printer != "" {
			script = "Start-Process -FilePath " + psQuote(path) +
				" -Verb PrintTo -ArgumentList " + psQuote(`"`+printer+`"`) + " -Wait"
		}
		return "powershell", []string{"-NoProfile", "-NonInteractive", "-Command", script}
	}

	args := []string{}
	if printer != "" {
		args = append(args, "-d", printer)
	}
	return "lp", append(args, path)
}

func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
