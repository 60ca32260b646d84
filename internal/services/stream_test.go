package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Riboost-Studio/theater-pos-agent/internal/model"
)

func testBinding(theaterID, token string) model.TheaterBinding {
	return model.TheaterBinding{
		TheaterID: theaterID,
		Name:      "A",
		Session:   model.Session{Token: token, TheaterID: theaterID, Label: "A"},
		Printer:   model.DefaultPrinterConfig(),
	}
}

func TestSubscriber_DeliversOrders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/pos-stream/TH1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("token"); got != "T+/=" {
			t.Errorf("unexpected token %q", got)
		}
		if got := r.Header.Get("Accept"); got != "text/event-stream" {
			t.Errorf("unexpected Accept %q", got)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"type\":\"connected\"}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"heartbeat\"}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"pos_order\",\"orderId\":\"O1\",\"event\":\"paid\"}\n\n")
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan model.StreamEvent, 4)
	sub := &Subscriber{
		API:        NewClient(srv.URL),
		Binding:    testBinding("TH1", "T+/="),
		Sink:       func(ev model.StreamEvent) { events <- ev },
		Logger:     testLogger(t),
		RetryDelay: -1,
	}

	done := make(chan error, 1)
	go func() { done <- sub.Run(ctx) }()

	select {
	case ev := <-events:
		if ev.OrderID != "O1" || ev.Event != model.OrderPaid {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no event delivered")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected nil on cancellation, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("subscriber did not stop")
	}
	if len(events) != 0 {
		t.Fatalf("only pos_order events reach the sink, got %d more", len(events))
	}
}

func TestSubscriber_ReloginAfterConsecutiveFailures(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	core, logs := observer.New(zapcore.WarnLevel)
	sub := &Subscriber{
		API:        NewClient(srv.URL),
		Binding:    testBinding("TH1", "T"),
		Sink:       func(model.StreamEvent) { t.Error("no events expected") },
		Logger:     zap.New(core).Sugar(),
		RetryDelay: -1,
	}

	err := sub.Run(context.Background())
	if !errors.Is(err, ErrRelogin) {
		t.Fatalf("expected ErrRelogin, got %v", err)
	}
	if got := attempts.Load(); got != 50 {
		t.Fatalf("expected 50 attempts before relogin, got %d", got)
	}
	if logs.FilterMessageSnippet("scheduling full relogin").Len() != 1 {
		t.Fatalf("expected one relogin warning, got %v", logs.All())
	}
}

func TestSubscriber_SuccessfulConnectResetsFailures(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 3 {
			w.Header().Set("Content-Type", "text/event-stream")
			w.WriteHeader(http.StatusOK)
			return
		}
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	sub := &Subscriber{
		API:          NewClient(srv.URL),
		Binding:      testBinding("TH1", "T"),
		Sink:         func(model.StreamEvent) {},
		Logger:       testLogger(t),
		RetryDelay:   -1,
		ReloginAfter: 3,
	}

	if err := sub.Run(context.Background()); !errors.Is(err, ErrRelogin) {
		t.Fatalf("expected ErrRelogin, got %v", err)
	}
	// fail, fail, open+EOF (counter back to 1), fail, fail
	if got := attempts.Load(); got != 5 {
		t.Fatalf("expected 5 attempts, got %d", got)
	}
}

func TestSubscriber_StopsDuringBackoff(t *testing.T) {
	var mu sync.Mutex
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sub := &Subscriber{
		API:     NewClient(srv.URL),
		Binding: testBinding("TH1", "T"),
		Sink:    func(model.StreamEvent) {},
		Logger:  testLogger(t),
	}

	done := make(chan error, 1)
	go func() { done <- sub.Run(ctx) }()

	eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls == 1
	}, "first attempt never made")
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected nil, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber kept waiting out the 5s backoff")
	}
}
