package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Riboost-Studio/theater-pos-agent/internal/model"
)

const (
	receiptPrefix       = "receipt-"
	defaultCleanupDelay = 3 * time.Second
	spoolTimeout        = 60 * time.Second
)

// ReceiptEngine turns an order into a printed receipt.
type ReceiptEngine struct {
	Renderer Renderer
	Spooler  Spooler
	App      model.AppInfo

	// WorkDir holds the transient receipt files.
	WorkDir string
	// CleanupDelay gives the spooler time to read the file before it
	// is removed.
	CleanupDelay time.Duration
	Location     *time.Location

	Now    func() time.Time
	Remove func(path string) error
}

func (e *ReceiptEngine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Print renders the order, writes it into WorkDir and submits it. If
// the configured printer fails the job is retried once on the OS
// default printer. The file is removed CleanupDelay after the attempt
// whatever the outcome.
func (e *ReceiptEngine) Print(ctx context.Context, o model.Order, b model.TheaterBinding, logger *zap.SugaredLogger) error {
	now := e.now()
	receipt := BuildReceipt(o, b.Name, e.App, now, e.Location)

	doc, err := e.Renderer.Render(ctx, receipt)
	if err != nil {
		return fmt.Errorf("%w: rendering receipt: %v", ErrPrint, err)
	}

	if err := os.MkdirAll(e.WorkDir, 0755); err != nil {
		return fmt.Errorf("%w: creating work dir: %v", ErrPrint, err)
	}
	path := filepath.Join(e.WorkDir, fmt.Sprintf("%s%d-%s.%s", receiptPrefix, now.UnixNano(), uuid.NewString(), doc.Ext))
	if err := os.WriteFile(path, doc.Data, 0644); err != nil {
		e.scheduleCleanup(path, logger)
		return fmt.Errorf("%w: writing receipt: %v", ErrPrint, err)
	}
	defer e.scheduleCleanup(path, logger)
	logger.Infof("Receipt generated: %s", path)

	if b.Printer.Driver != "" && b.Printer.Driver != model.PrinterDriverSystem {
		logger.Warnf("Unknown printer driver %q, using the system spooler", b.Printer.Driver)
	}

	// shutdown should not kill a job the spooler is already reading
	printCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), spoolTimeout)
	defer cancel()

	err = e.Spooler.Submit(printCtx, path, b.Printer)
	if err == nil {
		logger.Infof("Order %s sent to printer %q", receipt.InvoiceID, b.Printer.PrinterName)
		return nil
	}
	logger.Warnf("Print on %q failed: %v. Retrying on the default printer...", b.Printer.PrinterName, err)

	if err := e.Spooler.Submit(printCtx, path, b.Printer.WithDefaultPrinter()); err != nil {
		return fmt.Errorf("%w: %v", ErrPrint, err)
	}
	logger.Infof("Order %s sent to the default printer", receipt.InvoiceID)
	return nil
}

// SweepStale removes receipt files left in WorkDir by a previous run
// whose cleanup timers never fired. It returns how many were removed.
func (e *ReceiptEngine) SweepStale(logger *zap.SugaredLogger) int {
	paths, err := filepath.Glob(filepath.Join(e.WorkDir, receiptPrefix+"*"))
	if err != nil {
		logger.Warnf("Listing stale receipts failed: %v", err)
		return 0
	}
	removed := 0
	for _, path := range paths {
		if err := e.remover()(path); err != nil {
			logger.Warnf("Stale receipt %s not deleted: %v", path, err)
			continue
		}
		removed++
	}
	if removed > 0 {
		logger.Infof("Removed %d stale receipt files from %s", removed, e.WorkDir)
	}
	return removed
}

func (e *ReceiptEngine) remover() func(string) error {
	if e.Remove != nil {
		return e.Remove
	}
	return os.Remove
}

func (e *ReceiptEngine) scheduleCleanup(path string, logger *zap.SugaredLogger) {
	remove := e.remover()
	delay := e.CleanupDelay
	if delay <= 0 {
		delay = defaultCleanupDelay
	}
	time.AfterFunc(delay, func() {
		if err := remove(path); err != nil {
			logger.Debugf("Tmp file not deleted: %v", err)
			return
		}
		logger.Debugf("Tmp file deleted.")
	})
}
