package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Riboost-Studio/theater-pos-agent/internal/model"
)

const (
	defaultRetryDelay   = 5 * time.Second
	defaultReloginAfter = 50
)

// --- SSE Subscriber Logic ---

// Subscriber holds one theater's order stream open and hands pos_order
// events to Sink in arrival order.
type Subscriber struct {
	API     *Client
	Binding model.TheaterBinding
	Sink    func(model.StreamEvent)
	Logger  *zap.SugaredLogger

	RetryDelay   time.Duration // 0 means 5s, negative means retry immediately
	ReloginAfter int           // consecutive failures before giving up on the session
}

// Run reconnects until ctx is cancelled (returns nil) or the stream has
// failed ReloginAfter times in a row (returns ErrRelogin). The failure
// counter resets whenever the server answers with stream headers.
func (s *Subscriber) Run(ctx context.Context) error {
	retryDelay := s.RetryDelay
	if retryDelay < 0 {
		retryDelay = 0
	} else if retryDelay == 0 {
		retryDelay = defaultRetryDelay
	}
	reloginAfter := s.ReloginAfter
	if reloginAfter <= 0 {
		reloginAfter = defaultReloginAfter
	}

	s.Logger.Infof("Connecting to order stream...")
	retries := 0
	for {
		err := s.connect(ctx, func() { retries = 0 })
		if ctx.Err() != nil {
			return nil
		}

		retries++
		if retries%reloginAfter == 0 {
			s.Logger.Warnf("Order stream failed %d times in a row (%v), scheduling full relogin", retries, err)
			return fmt.Errorf("%w: %d consecutive stream failures", ErrRelogin, retries)
		}

		s.Logger.Infof("Disconnected (%v). Reconnecting in %s... (retry %d)", err, retryDelay, retries)
		if !sleepCtx(ctx, retryDelay) {
			return nil
		}
	}
}

// connect runs one connection attempt to completion. onOpen is called
// once the server has answered with 2xx headers.
func (s *Subscriber) connect(ctx context.Context, onOpen func()) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.API.streamURL(s.Binding.TheaterID, s.Binding.Session.Token), nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStream, err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := s.API.Stream.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %v", ErrStream, &APIError{Status: resp.StatusCode, Body: string(body)})
	}

	onOpen()
	s.Logger.Infof("Connected.")

	err = readEvents(resp.Body, s.Logger, s.route)
	return fmt.Errorf("%w: %v", ErrStream, err)
}

func (s *Subscriber) route(ev model.StreamEvent) {
	switch ev.Type {
	case model.EventConnected:
		s.Logger.Infof("Order stream confirmed by server.")

	case model.EventPosOrder:
		s.Logger.Infof("Received order %s (%s)", ev.OrderID, ev.Event)
		s.Sink(ev)

	default:
		s.Logger.Debugf("Ignoring stream message type %q", ev.Type)
	}
}

// sleepCtx waits for d and reports false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
