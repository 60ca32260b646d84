package services

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/jung-kurt/gofpdf"
)

const (
	rollWidthMM   = 80.0
	rollMarginMM  = 4.0
	mmPerInch     = 25.4
	chromeTimeout = 30 * time.Second
)

// Document is a rendered receipt ready to be written to disk.
type Document struct {
	Data []byte
	Ext  string
}

type Renderer interface {
	Render(ctx context.Context, r Receipt) (Document, error)
}

// HTMLRenderer hands the spooler the receipt layout as-is.
type HTMLRenderer struct{}

func (HTMLRenderer) Render(_ context.Context, r Receipt) (Document, error) {
	html, err := RenderHTML(r)
	if err != nil {
		return Document{}, err
	}
	return Document{Data: html, Ext: "html"}, nil
}

// ChromeRenderer prints the receipt layout to an 80 mm PDF with
// headless Chrome.
type ChromeRenderer struct {
	ExecPath string // empty lets chromedp find Chrome
	Timeout  time.Duration
}

func (c ChromeRenderer) Render(ctx context.Context, r Receipt) (Document, error) {
	html, err := RenderHTML(r)
	if err != nil {
		return Document{}, err
	}

	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
	)
	if c.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(c.ExecPath))
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = chromeTimeout
	}
	ctx, cancelTimeout := context.WithTimeout(ctx, timeout)
	defer cancelTimeout()

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()
	cdpCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	var pdfBytes []byte
	err = chromedp.Run(cdpCtx,
		// Load HTML directly using data URL
		chromedp.Navigate("data:text/html,"+urlEncode(string(html))),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(rollWidthMM / mmPerInch).
				WithPaperHeight(rollHeightMM(r) / mmPerInch).
				WithMarginTop(0).
				WithMarginBottom(0).
				WithMarginLeft(0).
				WithMarginRight(0).
				Do(ctx)
			if err != nil {
				return err
			}
			pdfBytes = buf
			return nil
		}),
	)
	if err != nil {
		return Document{}, fmt.Errorf("failed generating pdf: %w", err)
	}
	return Document{Data: pdfBytes, Ext: "pdf"}, nil
}

// Helper for encoding HTML into a data URL
func urlEncode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// rollHeightMM estimates the paper length a receipt needs. Chrome
// continues on a second page when it is short.
func rollHeightMM(r Receipt) float64 {
	return 110 + 6*float64(len(r.Lines)) + 4*float64(len(r.Contact))
}

// PDFRenderer draws the receipt directly with gofpdf. It needs no
// browser and is used when Chrome is not installed.
type PDFRenderer struct{}

func (PDFRenderer) Render(_ context.Context, r Receipt) (Document, error) {
	pdf := layoutPDF(r, pdfHeightMM(r))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return Document{}, fmt.Errorf("failed generating pdf: %w", err)
	}
	return Document{Data: buf.Bytes(), Ext: "pdf"}, nil
}

// pdfHeightMM lays the receipt out once on a scratch page and returns
// the length actually used, wrapped lines included.
func pdfHeightMM(r Receipt) float64 {
	scratch := layoutPDF(r, rollHeightMM(r))
	return scratch.GetY() + rollMarginMM
}

// layoutPDF draws the receipt on a single page of the given height.
// Page breaks are off, so content below heightMM is cut.
func layoutPDF(r Receipt, heightMM float64) *gofpdf.Fpdf {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "mm",
		Size:    gofpdf.SizeType{Wd: rollWidthMM, Ht: heightMM},
	})
	pdf.SetMargins(rollMarginMM, rollMarginMM, rollMarginMM)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	// core fonts are cp1252 and have no rupee glyph
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	money := func(v float64) string {
		return tr(strings.Replace(FormatMoney(v), currencyGlyph, "Rs.", 1))
	}
	width := rollWidthMM - 2*rollMarginMM
	rule := func() {
		y := pdf.GetY() + 1
		pdf.Line(rollMarginMM, y, rollWidthMM-rollMarginMM, y)
		pdf.SetY(y + 2)
	}

	// Header
	pdf.SetFont("Arial", "B", 12)
	pdf.MultiCell(width, 5, tr(r.TheaterName), "", "C", false)
	pdf.SetFont("Arial", "", 7)
	for _, line := range r.Contact {
		pdf.MultiCell(width, 3.5, tr(line), "", "C", false)
	}
	rule()

	pdf.SetFont("Arial", "", 8)
	for _, kv := range [][2]string{
		{"Invoice", r.InvoiceID},
		{"Date", r.Date},
		{"Customer", r.Customer},
		{"Payment", r.PaymentMethod},
	} {
		pdf.CellFormat(width, 4, tr(kv[0]+": "+kv[1]), "", 1, "L", false, 0, "")
	}
	rule()

	// Items
	cols := []float64{34, 8, 15, 15}
	pdf.SetFont("Arial", "B", 8)
	for i, h := range []string{"Item", "Qty", "Rate", "Total"} {
		align := "R"
		if i == 0 {
			align = "L"
		} else if i == 1 {
			align = "C"
		}
		pdf.CellFormat(cols[i], 4, h, "", 0, align, false, 0, "")
	}
	pdf.Ln(5)

	pdf.SetFont("Arial", "", 8)
	for _, line := range r.Lines {
		nameLines := pdf.SplitText(tr(line.Name), cols[0])
		if len(nameLines) == 0 {
			nameLines = []string{""}
		}
		pdf.CellFormat(cols[0], 4, nameLines[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(cols[1], 4, formatQty(line.Quantity), "", 0, "C", false, 0, "")
		pdf.CellFormat(cols[2], 4, money(line.Rate), "", 0, "R", false, 0, "")
		pdf.CellFormat(cols[3], 4, money(line.Total), "", 1, "R", false, 0, "")
		for _, extra := range nameLines[1:] {
			pdf.CellFormat(cols[0], 4, extra, "", 1, "L", false, 0, "")
		}
	}
	rule()

	// Summary
	summary := func(label string, v float64) {
		pdf.CellFormat(width-25, 4, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(25, 4, money(v), "", 1, "R", false, 0, "")
	}
	if r.Subtotal > 0 {
		summary("Subtotal", r.Subtotal)
	}
	if r.Tax > 0 {
		summary("CGST", r.CGST)
		summary("SGST", r.SGST)
	}
	if r.Discount > 0 {
		summary("Discount", -r.Discount)
	}
	pdf.SetFont("Arial", "B", 10)
	summary("Grand Total", r.GrandTotal)
	rule()

	// Footer
	pdf.SetFont("Arial", "", 7)
	for _, line := range []string{"Thank you for your order!", r.PoweredBy, "Generated: " + r.GeneratedAt} {
		pdf.CellFormat(width, 3.5, tr(line), "", 1, "C", false, 0, "")
	}
	return pdf
}
