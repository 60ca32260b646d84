package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Riboost-Studio/theater-pos-agent/internal/model"
)

const (
	defaultReloginDelay = 10 * time.Second
	defaultHeartbeat    = 10 * time.Minute
)

// Agent runs one supervisor per configured credential. A supervisor
// logs in, resolves its theaters and keeps one subscriber and one
// receipt worker per theater until the process stops or a subscriber
// asks for a full relogin.
type Agent struct {
	Config     model.RuntimeConfig
	API        *Client
	Auth       *Authenticator
	Theaters   *TheaterResolver
	Printers   *PrinterConfigFetcher
	Dispatcher *Dispatcher
	Logger     *zap.Logger

	RetryDelay   time.Duration
	ReloginAfter int
	ReloginDelay time.Duration
	QueueSize    int
	Heartbeat    time.Duration

	active atomic.Int64
}

// NewAgent wires the backend-facing components around engine.
func NewAgent(cfg model.RuntimeConfig, engine *ReceiptEngine, logger *zap.Logger) *Agent {
	api := NewClient(cfg.BackendURL)
	return &Agent{
		Config:       cfg,
		API:          api,
		Auth:         &Authenticator{API: api},
		Theaters:     &TheaterResolver{API: api},
		Printers:     &PrinterConfigFetcher{API: api},
		Dispatcher:   &Dispatcher{API: api, Engine: engine},
		Logger:       logger,
		RetryDelay:   defaultRetryDelay,
		ReloginAfter: defaultReloginAfter,
		ReloginDelay: defaultReloginDelay,
		QueueSize:    defaultQueueSize,
		Heartbeat:    defaultHeartbeat,
	}
}

// ActiveBindings is the number of theaters currently being served.
func (a *Agent) ActiveBindings() int {
	return int(a.active.Load())
}

// Run blocks until ctx is cancelled, even if every supervisor has
// already given up.
func (a *Agent) Run(ctx context.Context) {
	root := a.Logger.Sugar()
	root.Infof("Starting %d supervisors against %s", len(a.Config.Agents), a.Config.BackendURL)

	var wg sync.WaitGroup
	for _, cred := range a.Config.Agents {
		wg.Add(1)
		go func(cred model.AgentCredential) {
			defer wg.Done()
			logger := a.Logger.Named(cred.Label).Sugar()
			guard(logger, "supervisor", func() { a.supervise(ctx, cred, logger) })
		}(cred)
	}

	var tick <-chan time.Time
	if a.Heartbeat > 0 {
		ticker := time.NewTicker(a.Heartbeat)
		defer ticker.Stop()
		tick = ticker.C
	}
	for {
		select {
		case <-ctx.Done():
			root.Infof("Shutting down...")
			wg.Wait()
			return
		case <-tick:
			root.Infof("Agent alive, serving %d theaters", a.ActiveBindings())
		}
	}
}

func (a *Agent) supervise(ctx context.Context, cred model.AgentCredential, logger *zap.SugaredLogger) {
	relogin := false
	for {
		if relogin {
			logger.Infof("Full relogin in %s...", a.ReloginDelay)
			if !sleepCtx(ctx, a.ReloginDelay) {
				return
			}
		}

		bindings, err := a.establish(ctx, cred, logger)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			if !relogin {
				logger.Errorf("Supervisor stopped: %v", err)
				return
			}
			logger.Errorf("Relogin failed: %v", err)
			continue
		}

		a.serve(ctx, cred, bindings, logger)
		if ctx.Err() != nil {
			return
		}
		relogin = true
	}
}

// establish authenticates, resolves the theaters and fetches each
// theater's printer settings.
func (a *Agent) establish(ctx context.Context, cred model.AgentCredential, logger *zap.SugaredLogger) ([]model.TheaterBinding, error) {
	logger.Infof("Logging in as %s...", cred.Username)
	session, err := a.Auth.Authenticate(ctx, cred, logger)
	if err != nil {
		return nil, err
	}
	logger.Infof("Logged in (theater: %q)", session.TheaterID)

	bindings, err := a.Theaters.Resolve(ctx, session, logger)
	if err != nil {
		return nil, err
	}
	for i := range bindings {
		bindings[i].Printer = a.Printers.Fetch(ctx, bindings[i], a.bindingLogger(bindings[i]))
	}
	return bindings, nil
}

func (a *Agent) bindingLogger(b model.TheaterBinding) *zap.SugaredLogger {
	return a.Logger.Named(b.Label()).Sugar()
}

// serve runs one generation of subscribers. It returns when ctx is
// cancelled or when any subscriber gives up, after every task of the
// generation has stopped.
func (a *Agent) serve(ctx context.Context, cred model.AgentCredential, bindings []model.TheaterBinding, logger *zap.SugaredLogger) {
	genCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	giveUp := make(chan error, len(bindings))
	var wg sync.WaitGroup

	a.active.Add(int64(len(bindings)))
	defer a.active.Add(-int64(len(bindings)))

	for _, b := range bindings {
		blogger := a.bindingLogger(b)
		worker := NewWorker(a.QueueSize)
		sub := &Subscriber{
			API:          a.API,
			Binding:      b,
			Sink:         func(ev model.StreamEvent) { worker.Enqueue(genCtx, ev) },
			Logger:       blogger,
			RetryDelay:   a.RetryDelay,
			ReloginAfter: a.ReloginAfter,
		}

		wg.Add(2)
		go func(b model.TheaterBinding) {
			defer wg.Done()
			guard(blogger, "receipt worker", func() {
				dropped := worker.Run(genCtx, func(ctx context.Context, ev model.StreamEvent) {
					a.Dispatcher.Handle(ctx, ev, b, blogger)
				})
				if dropped > 0 {
					blogger.Warnf("Discarded %d queued orders after the stream stopped", dropped)
				}
			})
		}(b)
		go func() {
			defer wg.Done()
			var err error
			guard(blogger, "stream subscriber", func() { err = sub.Run(genCtx) })
			if genCtx.Err() != nil {
				return
			}
			if err == nil {
				err = errors.New("subscriber stopped unexpectedly")
			}
			giveUp <- err
		}()
	}

	logger.Infof("Serving %d theaters for %s", len(bindings), cred.Label)

	select {
	case <-ctx.Done():
	case err := <-giveUp:
		logger.Warnf("Tearing down %d subscribers: %v", len(bindings), err)
	}
	cancel()
	wg.Wait()
}
