package database

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/forgo/storefront/api/internal/logger"
	"github.com/forgo/storefront/api/internal/metrics"
)

// State is the connection lifecycle state.
type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
	Failed
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Conn is the live handle produced by a Dialer.
type Conn interface {
	Close(ctx context.Context) error
}

// Dialer opens a new connection. It is called at most once per attempt.
type Dialer[C Conn] func(ctx context.Context, cfg Config) (C, error)

// ManagerConfig holds the dependencies of a Manager.
type ManagerConfig[C Conn] struct {
	Config  Config
	Dial    Dialer[C]
	Logger  logger.Logger
	Metrics *metrics.Metrics
}

// Manager owns the process-wide connection and its state machine.
// It is safe for concurrent use.
type Manager[C Conn] struct {
	cfg     Config
	dial    Dialer[C]
	log     logger.Logger
	metrics *metrics.Metrics

	// flight is the shared pending attempt; all callers during one
	// attempt receive the same result from it.
	flight singleflight.Group

	mu      sync.RWMutex
	state   State
	conn    C
	lastErr error
	// pending is closed when the current attempt has settled.
	pending chan struct{}
}

const flightKey = "connect"

// NewManager creates a manager in the Disconnected state. Nothing is dialed
// until Connect is called.
func NewManager[C Conn](cfg ManagerConfig[C]) *Manager[C] {
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	m := &Manager[C]{
		cfg:     cfg.Config,
		dial:    cfg.Dial,
		log:     cfg.Logger,
		metrics: cfg.Metrics,
		state:   Disconnected,
	}
	m.metrics.ConnectionState(int(Disconnected))
	return m
}

// Connect establishes the shared connection if it is not already established.
//
// Connected managers return nil without contacting the store. While an
// attempt is in flight, further callers wait for it and get its result.
// If ctx ends first the caller stops waiting and gets ctx.Err(); the attempt
// itself keeps running, bounded by Config.ConnectTimeout.
func (m *Manager[C]) Connect(ctx context.Context) error {
	if m.State() == Connected {
		return nil
	}

	ch := m.flight.DoChan(flightKey, func() (interface{}, error) {
		return nil, m.attempt(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// attempt runs inside the single flight. A panicking dialer fails the
// attempt instead of crashing the process.
func (m *Manager[C]) attempt(ctx context.Context) (err error) {
	m.mu.Lock()
	if m.state == Connected {
		// A previous flight finished between the caller's state check and
		// joining this one.
		m.mu.Unlock()
		return nil
	}
	m.state = Connecting
	done := make(chan struct{})
	m.pending = done
	m.mu.Unlock()

	defer close(done)
	defer func() {
		if r := recover(); r != nil {
			err = m.fail(fmt.Errorf("%w: dialer panicked: %v", ErrConnectivity, r))
		}
	}()
	m.metrics.ConnectionState(int(Connecting))
	m.metrics.ConnectAttempt(metrics.ResultStarted)

	if err := m.cfg.Validate(); err != nil {
		return m.fail(err)
	}
	if m.dial == nil {
		return m.fail(fmt.Errorf("%w: no dialer configured", ErrConfiguration))
	}

	m.log.Infow("connecting to database", "endpoint", m.cfg.RedactedEndpoint(), "namespace", m.cfg.Namespace)

	dialCtx, cancel := context.WithTimeout(ctx, m.cfg.connectTimeout())
	defer cancel()

	conn, err := m.dial(dialCtx, m.cfg)
	if err != nil {
		if !errors.Is(err, ErrConfiguration) && !errors.Is(err, ErrConnectivity) {
			err = fmt.Errorf("%w: %v", ErrConnectivity, err)
		}
		return m.fail(err)
	}

	m.mu.Lock()
	m.state = Connected
	m.conn = conn
	m.lastErr = nil
	m.mu.Unlock()

	m.metrics.ConnectionState(int(Connected))
	m.metrics.ConnectAttempt(metrics.ResultSuccess)
	m.log.Infow("database connected", "endpoint", m.cfg.RedactedEndpoint(), "database", m.cfg.Database)
	return nil
}

func (m *Manager[C]) fail(err error) error {
	m.mu.Lock()
	m.state = Failed
	m.lastErr = err
	m.mu.Unlock()

	m.metrics.ConnectionState(int(Failed))
	m.metrics.ConnectAttempt(metrics.ResultFailure)
	m.log.Errorw("database connection failed", "error", err)
	return err
}

// State returns the current connection state.
func (m *Manager[C]) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// LastError returns the error of the most recent failed attempt, or nil.
func (m *Manager[C]) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

// Conn returns the live handle, or ErrNotConnected.
func (m *Manager[C]) Conn() (C, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state != Connected {
		var zero C
		return zero, ErrNotConnected
	}
	return m.conn, nil
}

// Close releases the handle and returns the manager to Disconnected.
// A later Connect dials again. If an attempt is in flight, Close waits for
// it to settle so a handle it produces is released too.
func (m *Manager[C]) Close(ctx context.Context) error {
	m.mu.Lock()
	if m.state == Connecting {
		pending := m.pending
		m.mu.Unlock()

		select {
		case <-pending:
		case <-ctx.Done():
			return ctx.Err()
		}
		m.mu.Lock()
	}
	if m.state != Connected {
		m.mu.Unlock()
		return nil
	}
	conn := m.conn
	var zero C
	m.conn = zero
	m.state = Disconnected
	m.mu.Unlock()

	m.metrics.ConnectionState(int(Disconnected))
	if err := conn.Close(ctx); err != nil {
		return fmt.Errorf("%w: close failed: %v", ErrConnectivity, err)
	}
	m.log.Infow("database connection closed")
	return nil
}
