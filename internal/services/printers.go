package services

import (
	"context"
	"net/url"

	"go.uber.org/zap"

	"github.com/Riboost-Studio/theater-pos-agent/internal/model"
)

// --- Printer Settings ---

type PrinterConfigFetcher struct {
	API *Client
}

// Fetch returns the printer preferences for a binding. Any failure
// yields the default printer; it never stops the binding from starting.
func (f *PrinterConfigFetcher) Fetch(ctx context.Context, b model.TheaterBinding, logger *zap.SugaredLogger) model.PrinterConfig {
	path := "/api/settings/pos-printer?theaterId=" + url.QueryEscape(b.TheaterID)
	resp, err := f.API.getJSON(ctx, path, b.Session.Token)
	if err != nil {
		logger.Warnf("Printer settings unavailable (%v), using default printer", err)
		return model.DefaultPrinterConfig()
	}

	cfg := resp.Obj("data.config")
	if cfg == nil {
		logger.Warnf("Printer settings missing from response, using default printer")
		return model.DefaultPrinterConfig()
	}

	pc := model.PrinterConfig{
		Driver:      cfg.Str("driver"),
		PrinterName: cfg.Str("printerName"),
	}
	if pc.Driver == "" {
		pc.Driver = model.PrinterDriverSystem
	}
	logger.Infof("Printer config: driver=%s printer=%q", pc.Driver, pc.PrinterName)
	return pc
}
