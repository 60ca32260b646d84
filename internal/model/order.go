package model

import (
	"strings"
	"time"
)

// --- Order Structures (normalized from the backend's loose JSON) ---

type Order struct {
	ID           string
	OrderNumber  string
	CustomerName string
	Items        []OrderItem
	Pricing      Pricing
	Payment      Payment
	Theater      Theater
	CreatedAt    time.Time // zero when the backend did not send one
}

type OrderItem struct {
	Name      string
	Size      string
	Quantity  float64
	UnitPrice float64
	Total     float64
}

type Pricing struct {
	Total    float64
	Tax      float64
	Discount float64
}

type Payment struct {
	Method string
	Status string
}

type Theater struct {
	Name    string
	Address string
	Phone   string
	Email   string
	FSSAI   string
	GST     string
}

// UnwrapOrder picks the order object out of a response body. The backend
// returns it under "data", under "order", or at the root.
func UnwrapOrder(body Doc) Doc {
	if d := body.Obj("data"); d != nil {
		if inner := d.Obj("order"); inner != nil {
			return inner
		}
		return d
	}
	if o := body.Obj("order"); o != nil {
		return o
	}
	return body
}

// NormalizeOrder is the single place where the order's fallback chains
// live. Each field takes the first present source, in order:
//
//	orderNumber   orderNumber, orderId, _id, id
//	customer      customerName, customerInfo.name, customer.name
//	items         items, products
//	total         pricing.total, totalAmount, total
//	tax           pricing.tax, tax, pricing.gst, gst
//	discount      pricing.discount, discount
//	method        payment.method, paymentMethod, payment.mode
//	status        payment.status, paymentStatus, status
//	createdAt     createdAt, timestamps.createdAt, orderDate
//
// Per item:
//
//	name          productName, name, product.name, menuItem.name
//	quantity      quantity (missing or <= 0 means 1)
//	unit price    unitPrice, price, 0
//	line total    totalPrice, total, quantity * unit price
//
// Zero prices count as missing in the unit price and line total chains.
//	size          originalQuantity, size, productSize, sizeLabel,
//	              variant.option, variants[0].option
func NormalizeOrder(d Doc) Order {
	o := Order{
		ID:           d.Str("_id", "id"),
		OrderNumber:  d.Str("orderNumber", "orderId", "_id", "id"),
		CustomerName: d.Str("customerName", "customerInfo.name", "customer.name"),
		Payment: Payment{
			Method: d.Str("payment.method", "paymentMethod", "payment.mode"),
			Status: d.Str("payment.status", "paymentStatus", "status"),
		},
		Theater: normalizeTheater(d.Obj("theater")),
	}

	o.Pricing.Total, _ = d.Num("pricing.total", "totalAmount", "total")
	o.Pricing.Tax, _ = d.Num("pricing.tax", "tax", "pricing.gst", "gst")
	o.Pricing.Discount, _ = d.Num("pricing.discount", "discount")

	if ts := d.Str("createdAt", "timestamps.createdAt", "orderDate"); ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			o.CreatedAt = t
		}
	}

	items := d.List("items")
	if items == nil {
		items = d.List("products")
	}
	for _, raw := range items {
		m, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		o.Items = append(o.Items, normalizeItem(Doc(m)))
	}
	return o
}

func normalizeItem(d Doc) OrderItem {
	it := OrderItem{
		Name: d.Str("productName", "name", "product.name", "menuItem.name"),
		Size: d.Str("originalQuantity", "size", "productSize", "sizeLabel", "variant.option", "variants.0.option"),
	}
	if it.Name == "" {
		it.Name = "Item"
	}
	if q, ok := d.Num("quantity"); ok && q > 0 {
		it.Quantity = q
	} else {
		it.Quantity = 1
	}
	it.UnitPrice, _ = d.NumNonZero("unitPrice", "price")
	if t, ok := d.NumNonZero("totalPrice", "total"); ok {
		it.Total = t
	} else {
		it.Total = it.Quantity * it.UnitPrice
	}
	return it
}

func normalizeTheater(d Doc) Theater {
	if d == nil {
		return Theater{}
	}
	t := Theater{
		Name:  d.Str("name", "theaterName"),
		Phone: d.Str("phone", "contact.phone", "contactNumber"),
		Email: d.Str("email", "contact.email"),
		FSSAI: d.Str("fssaiNumber", "fssai", "fssaiLicense"),
		GST:   d.Str("gstNumber", "gstin", "gst"),
	}
	if addr := d.Obj("address"); addr != nil {
		var parts []string
		for _, key := range []string{"street", "line1", "area", "city", "state", "pincode", "zipCode"} {
			if v := addr.Str(key); v != "" {
				parts = append(parts, v)
			}
		}
		t.Address = strings.Join(parts, ", ")
	} else {
		t.Address = d.Str("address")
	}
	return t
}

// CashEquivalent reports whether the order was paid at the counter.
func (o Order) CashEquivalent() bool {
	switch strings.ToLower(strings.TrimSpace(o.Payment.Method)) {
	case "cash", "cod":
		return true
	}
	return false
}

// Settled reports whether the payment status is completed or paid.
func (o Order) Settled() bool {
	switch strings.ToLower(strings.TrimSpace(o.Payment.Status)) {
	case "completed", "paid":
		return true
	}
	return false
}
