package model

import (
	"bytes"
	"encoding/json"
	"strings"
)

type EventType string

const (
	EventConnected EventType = "connected"
	EventPosOrder  EventType = "pos_order"
)

type OrderEvent string

const (
	OrderPaid    OrderEvent = "paid"
	OrderCreated OrderEvent = "created"
)

// --- Stream Messages ---

// StreamEvent is the payload of one SSE "data:" line.
type StreamEvent struct {
	Type    EventType  `json:"type"`
	OrderID FlexString `json:"orderId,omitempty"`
	Event   OrderEvent `json:"event,omitempty"`
}

// FlexString decodes from either a JSON string or a JSON number.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(strings.TrimSpace(n.String()))
	return nil
}

func (f FlexString) String() string { return string(f) }
