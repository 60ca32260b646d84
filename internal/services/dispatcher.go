package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Riboost-Studio/theater-pos-agent/internal/model"
)

const defaultQueueSize = 256

// Dispatcher decides which stream events become receipts.
type Dispatcher struct {
	API    *Client
	Engine *ReceiptEngine
}

// Handle processes one event for a binding. Errors end in the log; the
// caller never sees them. The same order arriving twice prints twice.
func (d *Dispatcher) Handle(ctx context.Context, ev model.StreamEvent, b model.TheaterBinding, logger *zap.SugaredLogger) {
	guard(logger, "order dispatch", func() {
		if err := d.handle(ctx, ev, b, logger); err != nil {
			logger.Errorf("Order %s (%s) not printed: %v", ev.OrderID, ev.Event, err)
		}
	})
}

func (d *Dispatcher) handle(ctx context.Context, ev model.StreamEvent, b model.TheaterBinding, logger *zap.SugaredLogger) error {
	if ev.Event != model.OrderPaid && ev.Event != model.OrderCreated {
		logger.Debugf("Ignoring order %s event %q", ev.OrderID, ev.Event)
		return nil
	}
	if ev.OrderID == "" {
		return fmt.Errorf("event without orderId")
	}

	resp, err := d.API.getJSON(ctx, orderPath(b.TheaterID, ev.OrderID.String()), b.Session.Token)
	if err != nil {
		return fmt.Errorf("fetching order: %w", err)
	}
	order := model.NormalizeOrder(model.UnwrapOrder(resp))

	if ev.Event == model.OrderCreated && !(order.CashEquivalent() && order.Settled()) {
		logger.Infof("Skipping created order %s: payment %q / %q is not a settled cash order",
			ev.OrderID, order.Payment.Method, order.Payment.Status)
		return nil
	}

	logger.Infof("Processing order %s (%s)", firstNonEmpty(order.OrderNumber, ev.OrderID.String()), ev.Event)
	return d.Engine.Print(ctx, order, b, logger)
}

// Worker processes a binding's events one at a time in arrival order,
// so a slow print does not stall the stream reader.
type Worker struct {
	queue chan model.StreamEvent
}

func NewWorker(size int) *Worker {
	if size <= 0 {
		size = defaultQueueSize
	}
	return &Worker{queue: make(chan model.StreamEvent, size)}
}

// Enqueue blocks only while the queue is full. It reports false if ctx
// ended first.
func (w *Worker) Enqueue(ctx context.Context, ev model.StreamEvent) bool {
	select {
	case w.queue <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// Run handles queued events until ctx is cancelled. It returns the
// number of events still queued at that point, which are discarded.
func (w *Worker) Run(ctx context.Context, handle func(context.Context, model.StreamEvent)) int {
	for ctx.Err() == nil {
		select {
		case <-ctx.Done():
		case ev := <-w.queue:
			handle(ctx, ev)
		}
	}
	return w.discard()
}

func (w *Worker) discard() int {
	n := 0
	for {
		select {
		case <-w.queue:
			n++
		default:
			return n
		}
	}
}
