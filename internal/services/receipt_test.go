package services

import (
	"bytes"
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/Riboost-Studio/theater-pos-agent/internal/model"
)

var testApp = model.AppInfo{Name: "Theater POS Agent", Version: "test", Author: "Riboost Studio"}

func popcornOrder() model.Order {
	return model.NormalizeOrder(model.UnwrapOrder(model.Doc{
		"data": map[string]interface{}{
			"orderNumber": "N1",
			"payment":     map[string]interface{}{"method": "Cash", "status": "Completed"},
			"pricing":     map[string]interface{}{"total": 236.0, "tax": 36.0, "discount": 0.0},
			"items": []interface{}{
				map[string]interface{}{"productName": "Popcorn", "quantity": 2.0, "unitPrice": 100.0, "originalQuantity": "Large"},
			},
			"createdAt": "2024-03-05T14:07:00Z",
		},
	}))
}

func TestBuildReceipt_PopcornOrder(t *testing.T) {
	now := time.Date(2024, 3, 5, 14, 10, 30, 0, time.UTC)
	r := BuildReceipt(popcornOrder(), "PVR", testApp, now, time.UTC)

	if r.TheaterName != "PVR" {
		t.Errorf("TheaterName = %q", r.TheaterName)
	}
	if r.InvoiceID != "N1" || r.Customer != "Customer" || r.PaymentMethod != "CASH" {
		t.Errorf("unexpected header fields %+v", r)
	}
	if r.Date != "05/03/2024, 02:07 pm" {
		t.Errorf("Date = %q", r.Date)
	}
	if r.GeneratedAt != "05/03/2024, 02:10:30 pm" {
		t.Errorf("GeneratedAt = %q", r.GeneratedAt)
	}
	if len(r.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(r.Lines))
	}
	line := r.Lines[0]
	if line.Name != "Popcorn (Large)" || line.Quantity != 2 || line.Rate != 100 || line.Total != 200 {
		t.Errorf("unexpected line %+v", line)
	}
	if r.Subtotal != 200 || r.CGST != 18 || r.SGST != 18 || r.GrandTotal != 236 {
		t.Errorf("unexpected totals %+v", r)
	}
	if r.PoweredBy != "Powered by Riboost Studio" {
		t.Errorf("PoweredBy = %q", r.PoweredBy)
	}
}

func TestBuildReceipt_TaxSplitAndTotals(t *testing.T) {
	for _, tc := range []struct{ total, tax float64 }{
		{236, 36},
		{100.01, 0.01},
		{1999.99, 305.09},
		{50, 0},
	} {
		o := model.Order{Pricing: model.Pricing{Total: tc.total, Tax: tc.tax}}
		r := BuildReceipt(o, "X", testApp, time.Now(), time.UTC)
		if r.GrandTotal != tc.total {
			t.Errorf("grand total %v, want %v", r.GrandTotal, tc.total)
		}
		if r.CGST+r.SGST != tc.tax {
			t.Errorf("cgst+sgst = %v, want %v", r.CGST+r.SGST, tc.tax)
		}
		if math.Abs(r.Subtotal+r.Tax-r.GrandTotal) > 1e-9 {
			t.Errorf("subtotal %v + tax %v != %v", r.Subtotal, r.Tax, r.GrandTotal)
		}
	}
}

func TestBuildReceipt_TheaterContact(t *testing.T) {
	o := model.Order{
		Theater: model.Theater{
			Name:  "INOX Nariman Point",
			Phone: "+91 22 1234 5678",
			GST:   "27ABCDE1234F1Z5",
		},
		Payment: model.Payment{Method: "upi"},
	}
	r := BuildReceipt(o, "fallback", testApp, time.Now(), nil)
	if r.TheaterName != "INOX Nariman Point" {
		t.Errorf("TheaterName = %q", r.TheaterName)
	}
	want := []string{"Phone: +91 22 1234 5678", "GST: 27ABCDE1234F1Z5"}
	if strings.Join(r.Contact, "|") != strings.Join(want, "|") {
		t.Errorf("Contact = %q, want %q", r.Contact, want)
	}
	if r.PaymentMethod != "UPI" {
		t.Errorf("PaymentMethod = %q", r.PaymentMethod)
	}
}

func TestFormatMoney(t *testing.T) {
	tests := map[float64]string{
		0:      "₹0.00",
		100:    "₹100.00",
		18.5:   "₹18.50",
		-12.5:  "-₹12.50",
	}
	for in, want := range tests {
		if got := FormatMoney(in); got != want {
			t.Errorf("FormatMoney(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestRenderHTML(t *testing.T) {
	now := time.Date(2024, 3, 5, 14, 10, 30, 0, time.UTC)
	r := BuildReceipt(popcornOrder(), "PVR", testApp, now, time.UTC)
	r.Discount = 10

	html, err := RenderHTML(r)
	if err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	out := string(html)
	for _, want := range []string{
		"PVR",
		"N1",
		"05/03/2024, 02:07 pm",
		"CASH",
		"Popcorn (Large)",
		"₹100.00",
		"₹200.00",
		"₹18.00",
		"₹236.00",
		"-₹10.00",
		"Thank you for your order!",
		"Powered by Riboost Studio",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered receipt is missing %q", want)
		}
	}
}

func TestRenderHTML_OmitsZeroSummaryRows(t *testing.T) {
	r := BuildReceipt(model.Order{Pricing: model.Pricing{Total: 50}}, "PVR", testApp, time.Now(), time.UTC)
	html, err := RenderHTML(r)
	if err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	for _, absent := range []string{"CGST", "SGST", "Discount"} {
		if strings.Contains(string(html), absent) {
			t.Errorf("receipt without tax or discount should not show %s", absent)
		}
	}
}

func TestPDFRenderer(t *testing.T) {
	r := BuildReceipt(popcornOrder(), "PVR", testApp, time.Now(), time.UTC)
	doc, err := PDFRenderer{}.Render(context.Background(), r)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if doc.Ext != "pdf" {
		t.Errorf("Ext = %q", doc.Ext)
	}
	if !bytes.HasPrefix(doc.Data, []byte("%PDF")) {
		t.Errorf("output is not a PDF")
	}
}

func TestPDFRenderer_WrappedNamesFitThePage(t *testing.T) {
	long := BuildReceipt(model.Order{Pricing: model.Pricing{Total: 1000, Tax: 100}}, "PVR", testApp, time.Now(), time.UTC)
	short := long
	for i := 0; i < 10; i++ {
		long.Lines = append(long.Lines, ReceiptLine{
			Name: "Caramel Popcorn Jumbo Tub With Extra Butter Combo (Large)", Quantity: 1, Rate: 100, Total: 100,
		})
		short.Lines = append(short.Lines, ReceiptLine{Name: "Popcorn", Quantity: 1, Rate: 100, Total: 100})
	}

	h := pdfHeightMM(long)
	if h <= rollHeightMM(long) {
		t.Fatalf("height %.1fmm does not account for wrapped names (estimate %.1fmm)", h, rollHeightMM(long))
	}
	if extra := h - pdfHeightMM(short); extra < 10*4 {
		t.Errorf("wrapped names added only %.1fmm", extra)
	}

	pdf := layoutPDF(long, h)
	if _, pageH := pdf.GetPageSize(); pdf.GetY() > pageH {
		t.Fatalf("content ends at %.1fmm on a %.1fmm page", pdf.GetY(), pageH)
	}
	if pdf.PageNo() != 1 {
		t.Errorf("expected a single page, got %d", pdf.PageNo())
	}

	doc, err := PDFRenderer{}.Render(context.Background(), long)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.HasPrefix(doc.Data, []byte("%PDF")) {
		t.Errorf("output is not a PDF")
	}
}
