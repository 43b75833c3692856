// Package engine owns the process-wide state shared by every schema compile
// and document check: the logger, the metrics and the serialization lock.
//
// The state is initialized lazily, exactly once, on first use. It is torn
// down at most once, and only from the process exit path of the command.
// The library never calls Shutdown.
package engine

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jacoelho/xsdgate/internal/metrics"
)

var (
	// ErrAlreadyInitialized is returned by Configure once the state is live.
	ErrAlreadyInitialized = errors.New("xsd engine already initialized")
	// ErrClosed is returned by Ensure and Do after Shutdown.
	ErrClosed = errors.New("xsd engine shut down")
)

// Config is the process-wide engine configuration.
type Config struct {
	Logger log.Logger
	// Registerer receives the engine collectors. Nil leaves them unregistered.
	Registerer prometheus.Registerer
}

type state struct {
	logger  log.Logger
	metrics *metrics.Metrics
	reg     prometheus.Registerer
}

type guard struct {
	mu          sync.Mutex
	initOnce    sync.Once
	closeOnce   sync.Once
	cfgMu       sync.Mutex
	cfg         Config
	st          *state
	initialized atomic.Bool
	closed      atomic.Bool
}

var g guard

// Configure sets the configuration used by the one-time initialization.
// It fails once the state has been initialized.
func Configure(cfg Config) error {
	g.cfgMu.Lock()
	defer g.cfgMu.Unlock()
	if g.closed.Load() {
		return ErrClosed
	}
	if g.initialized.Load() {
		return ErrAlreadyInitialized
	}
	g.cfg = cfg
	return nil
}

// Ensure initializes the process-wide state on first call. Concurrent
// callers block until initialization completes.
func Ensure() error {
	if g.closed.Load() {
		return ErrClosed
	}
	g.initOnce.Do(initialize)
	if g.closed.Load() {
		return ErrClosed
	}
	return nil
}

func initialize() {
	g.cfgMu.Lock()
	defer g.cfgMu.Unlock()

	cfg := g.cfg
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	g.st = &state{
		logger:  log.With(logger, "component", "xsd-engine"),
		metrics: metrics.New(cfg.Registerer),
		reg:     cfg.Registerer,
	}
	g.initialized.Store(true)
	level.Debug(g.st.logger).Log("msg", "xsd engine initialized")
}

// Do runs fn while holding the process-wide engine lock.
func Do(fn func() error) error {
	if err := Ensure(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed.Load() {
		return ErrClosed
	}
	return fn()
}

// Logger returns the engine logger. It initializes the state if needed.
func Logger() log.Logger {
	if Ensure() != nil || g.st == nil {
		return log.NewNopLogger()
	}
	return g.st.logger
}

// Metrics returns the process-wide metrics. It initializes the state if needed.
// After Shutdown it returns unregistered collectors.
func Metrics() *metrics.Metrics {
	if Ensure() != nil || g.st == nil {
		return detached
	}
	return g.st.metrics
}

var detached = metrics.New(nil)

// Initialized reports whether the state has been initialized.
func Initialized() bool {
	return g.initialized.Load()
}

// Shutdown tears the state down. Only the first call has an effect.
// It waits for in-flight locked work to finish.
func Shutdown() {
	g.closeOnce.Do(func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		g.cfgMu.Lock()
		defer g.cfgMu.Unlock()
		g.closed.Store(true)
		if g.st == nil {
			return
		}
		level.Debug(g.st.logger).Log("msg", "xsd engine shut down")
		g.st.metrics.Unregister(g.st.reg)
	})
}
