package services

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Riboost-Studio/theater-pos-agent/internal/model"
)

const (
	currencyGlyph = "₹"

	// en-IN, year numeric, month/day/hour/minute 2-digit, 12 hour clock
	receiptDateLayout   = "02/01/2006, 03:04 pm"
	generatedDateLayout = "02/01/2006, 03:04:05 pm"
)

var receiptLocale = language.MustParse("en-IN")

//go:embed templates/receipt.html
var receiptHTML string

// Receipt is everything printed on one ticket, already derived from the
// order. Amounts are kept numeric; formatting happens at render time.
type Receipt struct {
	TheaterName   string
	Contact       []string
	InvoiceID     string
	Date          string
	Customer      string
	PaymentMethod string
	Lines         []ReceiptLine
	Subtotal      float64
	Tax           float64
	CGST          float64
	SGST          float64
	Discount      float64
	GrandTotal    float64
	PoweredBy     string
	GeneratedAt   string
}

type ReceiptLine struct {
	Name     string // includes the size label, e.g. "Popcorn (Large)"
	Quantity float64
	Rate     float64
	Total    float64
}

// BuildReceipt derives the printable receipt. fallbackName is used when
// the order carries no theater name.
func BuildReceipt(o model.Order, fallbackName string, app model.AppInfo, now time.Time, loc *time.Location) Receipt {
	if loc == nil {
		loc = time.Local
	}

	r := Receipt{
		TheaterName:   firstNonEmpty(o.Theater.Name, fallbackName),
		InvoiceID:     o.OrderNumber,
		Customer:      firstNonEmpty(o.CustomerName, "Customer"),
		PaymentMethod: cases.Upper(receiptLocale).String(firstNonEmpty(strings.TrimSpace(o.Payment.Method), "cash")),
		GrandTotal:    o.Pricing.Total,
		Tax:           o.Pricing.Tax,
		Discount:      o.Pricing.Discount,
		PoweredBy:     app.PoweredBy(),
		GeneratedAt:   now.In(loc).Format(generatedDateLayout),
	}
	r.Subtotal = r.GrandTotal - r.Tax
	r.CGST = r.Tax / 2
	r.SGST = r.Tax / 2

	placed := o.CreatedAt
	if placed.IsZero() {
		placed = now
	}
	r.Date = placed.In(loc).Format(receiptDateLayout)

	t := o.Theater
	if t.Address != "" {
		r.Contact = append(r.Contact, t.Address)
	}
	if t.Phone != "" {
		r.Contact = append(r.Contact, "Phone: "+t.Phone)
	}
	if t.Email != "" {
		r.Contact = append(r.Contact, "Email: "+t.Email)
	}
	if t.FSSAI != "" {
		r.Contact = append(r.Contact, "FSSAI: "+t.FSSAI)
	}
	if t.GST != "" {
		r.Contact = append(r.Contact, "GST: "+t.GST)
	}

	for _, it := range o.Items {
		name := it.Name
		if it.Size != "" {
			name = fmt.Sprintf("%s (%s)", it.Name, it.Size)
		}
		r.Lines = append(r.Lines, ReceiptLine{
			Name:     name,
			Quantity: it.Quantity,
			Rate:     it.UnitPrice,
			Total:    it.Total,
		})
	}
	return r
}

// FormatMoney renders an amount with two decimals and the rupee glyph.
func FormatMoney(v float64) string {
	if v < 0 {
		return "-" + currencyGlyph + fmt.Sprintf("%.2f", -v)
	}
	return currencyGlyph + fmt.Sprintf("%.2f", v)
}

func formatQty(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}

// Define Helper functions for the template
var templateFuncs = template.FuncMap{
	"formatMoney": FormatMoney,
	"formatQty":   formatQty,
	"negate":      func(v float64) float64 { return -v },
}

var receiptTemplate = template.Must(template.New("receipt.html").Funcs(templateFuncs).Parse(receiptHTML))

// RenderHTML executes the receipt layout.
func RenderHTML(r Receipt) ([]byte, error) {
	var htmlBuffer bytes.Buffer
	if err := receiptTemplate.Execute(&htmlBuffer, r); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}
	return htmlBuffer.Bytes(), nil
}
