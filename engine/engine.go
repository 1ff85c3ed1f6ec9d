package engine

import (
	"log"
	"time"

	"hairops/config"
	"hairops/dispatch"
	"hairops/messaging"
	"hairops/notify"
	"hairops/optimizer"
	"hairops/store"
)

type LogFunc func(format string, args ...any)

type Config struct {
	AppConfig  *config.Config
	ConfigPath string
	DB         *store.DB
	Optimizer  *optimizer.Client
	Feed       *notify.Feed
	MsgClient  *messaging.Client
	LogFunc    LogFunc
	Debug      bool
}

// Engine wires the store, optimizer client, notification fan-out and
// messaging together, and owns the event bus everything publishes on.
type Engine struct {
	cfg           *config.Config
	configPath    string
	db            *store.DB
	optimizer     *optimizer.Client
	feed          *notify.Feed
	msgClient     *messaging.Client
	dispatcher    *dispatch.Dispatcher
	ingestor      *dispatch.Ingestor
	notifier      *notify.Notifier
	Events        *EventBus
	logFn         LogFunc
	stopChan      chan struct{}
	optConnected  bool
	msgConnected  bool
}

func New(c Config) *Engine {
	logFn := c.LogFunc
	if logFn == nil {
		logFn = log.Printf
	}
	return &Engine{
		cfg:        c.AppConfig,
		configPath: c.ConfigPath,
		db:         c.DB,
		optimizer:  c.Optimizer,
		feed:       c.Feed,
		msgClient:  c.MsgClient,
		Events:     NewEventBus(),
		logFn:      logFn,
		stopChan:   make(chan struct{}),
	}
}

func (e *Engine) Start() {
	de := &dispatchEmitter{bus: e.Events}
	ne := &notifyEmitter{bus: e.Events}

	e.notifier = notify.NewNotifier(e.db, e.feed, e.cfg.Messaging.NotificationsTopic, ne)
	e.dispatcher = dispatch.NewDispatcher(e.db, e.optimizer, de)
	e.ingestor = dispatch.NewIngestor(e.db, de, e.notifier)

	e.wireEventHandlers()

	e.checkConnectionStatus()
	go e.connectionHealthLoop()

	e.logFn("engine: started")
}

func (e *Engine) Stop() {
	select {
	case e.stopChan <- struct{}{}:
	default:
	}
	e.logFn("engine: stopped")
}

// Accessors
func (e *Engine) DB() *store.DB                    { return e.db }
func (e *Engine) AppConfig() *config.Config        { return e.cfg }
func (e *Engine) ConfigPath() string               { return e.configPath }
func (e *Engine) Dispatcher() *dispatch.Dispatcher { return e.dispatcher }
func (e *Engine) Ingestor() *dispatch.Ingestor     { return e.ingestor }
func (e *Engine) Notifier() *notify.Notifier       { return e.notifier }
func (e *Engine) Feed() *notify.Feed               { return e.feed }
func (e *Engine) Optimizer() *optimizer.Client     { return e.optimizer }
func (e *Engine) MsgClient() *messaging.Client     { return e.msgClient }

// OptimizerConnected reports the last observed optimizer health.
func (e *Engine) OptimizerConnected() bool { return e.optConnected }

func (e *Engine) checkConnectionStatus() {
	if err := e.optimizer.Ping(); err == nil {
		if !e.optConnected {
			e.optConnected = true
			e.Events.Emit(Event{Type: EventOptimizerConnected, Payload: ConnectionEvent{Detail: "optimizer connected at " + e.optimizer.BaseURL()}})
		}
	} else {
		if e.optConnected {
			e.optConnected = false
			e.Events.Emit(Event{Type: EventOptimizerDisconnected, Payload: ConnectionEvent{Detail: err.Error()}})
		}
	}

	if e.msgClient != nil {
		if e.msgClient.IsConnected() {
			if !e.msgConnected {
				e.msgConnected = true
				e.Events.Emit(Event{Type: EventMessagingConnected, Payload: ConnectionEvent{Detail: "messaging connected"}})
			}
		} else {
			if e.msgConnected {
				e.msgConnected = false
				e.Events.Emit(Event{Type: EventMessagingDisconnected, Payload: ConnectionEvent{Detail: "messaging disconnected"}})
			}
		}
	}
}

func (e *Engine) connectionHealthLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-e.stopChan:
			return
		case <-ticker.C:
			e.checkConnectionStatus()
		}
	}
}

// ReconfigureOptimizer applies optimizer config changes live.
func (e *Engine) ReconfigureOptimizer() {
	e.optimizer.Reconfigure(e.cfg.Optimizer.BaseURL, e.cfg.Optimizer.RequestPath, e.cfg.Optimizer.Timeout)
	e.logFn("engine: optimizer reconfigured (%s)", e.cfg.Optimizer.BaseURL)
	e.checkConnectionStatus()
}

// ReconfigureMessaging reconnects messaging with current config.
func (e *Engine) ReconfigureMessaging() {
	if e.msgClient == nil {
		return
	}
	if err := e.msgClient.Reconfigure(&e.cfg.Messaging); err != nil {
		e.logFn("engine: messaging reconfigure error: %v", err)
	} else {
		e.logFn("engine: messaging reconfigured")
	}
	e.checkConnectionStatus()
}
