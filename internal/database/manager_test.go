package database

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/storefront/api/internal/metrics"
)

// ============================================================================
// Test Helpers
// ============================================================================

type fakeConn struct {
	closed   atomic.Bool
	closeErr error
}

func (c *fakeConn) Close(ctx context.Context) error {
	c.closed.Store(true)
	return c.closeErr
}

// fakeDialer counts calls. When gate is set, each dial blocks until the gate
// is closed; entered receives one value per dial that reached the gate.
type fakeDialer struct {
	calls   atomic.Int32
	errs    []error
	gate    chan struct{}
	entered chan struct{}

	mu    sync.Mutex
	conns []*fakeConn
}

func (d *fakeDialer) Dial(ctx context.Context, cfg Config) (*fakeConn, error) {
	n := int(d.calls.Add(1))

	if d.gate != nil {
		if d.entered != nil {
			d.entered <- struct{}{}
		}
		<-d.gate
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n <= len(d.errs) && d.errs[n-1] != nil {
		return nil, d.errs[n-1]
	}

	conn := &fakeConn{}
	d.mu.Lock()
	d.conns = append(d.conns, conn)
	d.mu.Unlock()
	return conn, nil
}

func validConfig() Config {
	return Config{
		Endpoint:  "ws://localhost:8000/rpc",
		Namespace: "storefront",
		Database:  "test",
	}
}

func newTestManager(cfg Config, d *fakeDialer) *Manager[*fakeConn] {
	return NewManager(ManagerConfig[*fakeConn]{
		Config: cfg,
		Dial:   d.Dial,
	})
}

// ============================================================================
// State Tests
// ============================================================================

func TestState_String(t *testing.T) {
	t.Parallel()

	tests := map[State]string{
		Disconnected: "disconnected",
		Connecting:   "connecting",
		Connected:    "connected",
		Failed:       "failed",
		State(42):    "state(42)",
	}
	for state, want := range tests {
		assert.Equal(t, want, state.String())
	}
}

func TestNewManager_StartsDisconnected(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{}
	m := newTestManager(validConfig(), d)

	assert.Equal(t, Disconnected, m.State())
	assert.NoError(t, m.LastError())
	assert.Zero(t, d.calls.Load())

	_, err := m.Conn()
	assert.ErrorIs(t, err, ErrNotConnected)
}

// ============================================================================
// Connect Tests
// ============================================================================

func TestConnect_Success_TransitionsToConnected(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{}
	m := newTestManager(validConfig(), d)

	require.NoError(t, m.Connect(context.Background()))

	assert.Equal(t, Connected, m.State())
	conn, err := m.Conn()
	require.NoError(t, err)
	assert.Same(t, d.conns[0], conn)
}

func TestConnect_WhenConnected_IsIdempotent(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{}
	m := newTestManager(validConfig(), d)
	ctx := context.Background()

	require.NoError(t, m.Connect(ctx))
	require.NoError(t, m.Connect(ctx))
	require.NoError(t, m.Connect(ctx))

	assert.Equal(t, int32(1), d.calls.Load(), "connected manager must not dial again")

	first, _ := m.Conn()
	assert.Same(t, d.conns[0], first, "handle must not be recreated while connected")
}

func TestConnect_ConcurrentCallers_ShareOneAttempt(t *testing.T) {
	t.Parallel()

	const callers = 50
	d := &fakeDialer{
		gate:    make(chan struct{}),
		entered: make(chan struct{}, callers),
	}
	m := newTestManager(validConfig(), d)

	start := make(chan struct{})
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = m.Connect(context.Background())
		}(i)
	}

	close(start)
	<-d.entered
	assert.Equal(t, Connecting, m.State())
	// Give the remaining callers time to join the in-flight attempt.
	time.Sleep(50 * time.Millisecond)
	close(d.gate)
	wg.Wait()

	assert.Equal(t, int32(1), d.calls.Load(), "exactly one dial for concurrent callers")
	for i, err := range errs {
		assert.NoError(t, err, "caller %d", i)
	}
	assert.Equal(t, Connected, m.State())
}

func TestConnect_ConcurrentCallers_ShareSameFailure(t *testing.T) {
	t.Parallel()

	const callers = 20
	dialErr := errors.New("connection refused")
	d := &fakeDialer{
		errs:    []error{dialErr},
		gate:    make(chan struct{}),
		entered: make(chan struct{}, callers),
	}
	m := newTestManager(validConfig(), d)

	start := make(chan struct{})
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = m.Connect(context.Background())
		}(i)
	}

	close(start)
	<-d.entered
	time.Sleep(50 * time.Millisecond)
	close(d.gate)
	wg.Wait()

	assert.Equal(t, int32(1), d.calls.Load())
	for i, err := range errs {
		assert.ErrorIs(t, err, ErrConnectivity, "caller %d", i)
		assert.Same(t, errs[0], err, "caller %d must observe the same outcome", i)
	}
	assert.Equal(t, Failed, m.State())
}

func TestConnect_DialError_ClassifiedAsConnectivity(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{errs: []error{errors.New("i/o timeout")}}
	m := newTestManager(validConfig(), d)

	err := m.Connect(context.Background())

	assert.ErrorIs(t, err, ErrConnectivity)
	assert.NotErrorIs(t, err, ErrConfiguration)
	assert.Contains(t, err.Error(), "i/o timeout")
	assert.Equal(t, Failed, m.State())
	assert.Equal(t, err, m.LastError())
}

func TestConnect_MissingEndpoint_ClassifiedAsConfiguration(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{}
	cfg := validConfig()
	cfg.Endpoint = ""
	m := newTestManager(cfg, d)

	err := m.Connect(context.Background())

	assert.ErrorIs(t, err, ErrConfiguration)
	assert.NotErrorIs(t, err, ErrConnectivity)
	assert.Zero(t, d.calls.Load(), "must not dial with a missing endpoint")
	assert.Equal(t, Failed, m.State())
}

func TestConnect_MalformedEndpoint_ClassifiedAsConfiguration(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{}
	cfg := validConfig()
	cfg.Endpoint = "not a url"
	m := newTestManager(cfg, d)

	assert.ErrorIs(t, m.Connect(context.Background()), ErrConfiguration)
	assert.Zero(t, d.calls.Load())
}

func TestConnect_DialerReturnsConfigurationError_KeepsClassification(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{errs: []error{ErrConfiguration}}
	m := newTestManager(validConfig(), d)

	err := m.Connect(context.Background())

	assert.ErrorIs(t, err, ErrConfiguration)
	assert.NotErrorIs(t, err, ErrConnectivity)
}

func TestConnect_NilDialer_ClassifiedAsConfiguration(t *testing.T) {
	t.Parallel()

	m := NewManager(ManagerConfig[*fakeConn]{Config: validConfig()})

	assert.ErrorIs(t, m.Connect(context.Background()), ErrConfiguration)
}

func TestConnect_AfterFailure_Retries(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{errs: []error{errors.New("connection refused")}}
	m := newTestManager(validConfig(), d)
	ctx := context.Background()

	require.ErrorIs(t, m.Connect(ctx), ErrConnectivity)
	require.Equal(t, Failed, m.State())

	require.NoError(t, m.Connect(ctx))
	assert.Equal(t, Connected, m.State())
	assert.NoError(t, m.LastError())

	require.NoError(t, m.Connect(ctx))
	assert.Equal(t, int32(2), d.calls.Load(), "recovered manager is idempotent again")
}

func TestConnect_CallerContextEnds_AttemptContinues(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{
		gate:    make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	m := newTestManager(validConfig(), d)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- m.Connect(ctx) }()

	<-d.entered
	assert.ErrorIs(t, <-done, context.DeadlineExceeded)

	close(d.gate)
	require.NoError(t, m.Connect(context.Background()))

	assert.Equal(t, int32(1), d.calls.Load(), "the abandoned wait must not abort the shared attempt")
	assert.Equal(t, Connected, m.State())
}

func TestConnect_DialerPanics_FailsWithConnectivity(t *testing.T) {
	t.Parallel()

	m := NewManager(ManagerConfig[*fakeConn]{
		Config: validConfig(),
		Dial: func(ctx context.Context, cfg Config) (*fakeConn, error) {
			panic("driver bug")
		},
	})

	err := m.Connect(context.Background())

	assert.ErrorIs(t, err, ErrConnectivity)
	assert.Contains(t, err.Error(), "driver bug")
	assert.Equal(t, Failed, m.State())
	assert.Equal(t, err, m.LastError())
}

// ============================================================================
// Close Tests
// ============================================================================

func TestClose_ReleasesHandleAndAllowsReconnect(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{}
	m := newTestManager(validConfig(), d)
	ctx := context.Background()

	require.NoError(t, m.Connect(ctx))
	require.NoError(t, m.Close(ctx))

	assert.True(t, d.conns[0].closed.Load())
	assert.Equal(t, Disconnected, m.State())
	_, err := m.Conn()
	assert.ErrorIs(t, err, ErrNotConnected)

	require.NoError(t, m.Connect(ctx))
	assert.Equal(t, int32(2), d.calls.Load())
}

func TestClose_WhileConnecting_WaitsAndReleasesHandle(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{
		gate:    make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	m := newTestManager(validConfig(), d)

	connected := make(chan error, 1)
	go func() { connected <- m.Connect(context.Background()) }()
	<-d.entered

	closed := make(chan error, 1)
	go func() { closed <- m.Close(context.Background()) }()

	select {
	case <-closed:
		t.Fatal("Close returned before the in-flight attempt settled")
	case <-time.After(50 * time.Millisecond):
	}

	close(d.gate)
	require.NoError(t, <-connected)
	require.NoError(t, <-closed)

	require.Len(t, d.conns, 1)
	assert.True(t, d.conns[0].closed.Load(), "handle from the in-flight attempt must be closed")
	assert.Equal(t, Disconnected, m.State())
}

func TestClose_WhileConnecting_ContextEnds(t *testing.T) {
	t.Parallel()

	d := &fakeDialer{
		gate:    make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	m := newTestManager(validConfig(), d)

	connected := make(chan error, 1)
	go func() { connected <- m.Connect(context.Background()) }()
	<-d.entered

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, m.Close(ctx), context.DeadlineExceeded)

	close(d.gate)
	require.NoError(t, <-connected)
	assert.Equal(t, Connected, m.State())
}

func TestClose_WhenNotConnected_IsNoop(t *testing.T) {
	t.Parallel()

	m := newTestManager(validConfig(), &fakeDialer{})

	assert.NoError(t, m.Close(context.Background()))
	assert.Equal(t, Disconnected, m.State())
}

// ============================================================================
// Metrics Tests
// ============================================================================

func TestConnect_RecordsMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	d := &fakeDialer{errs: []error{errors.New("refused")}}
	m := NewManager(ManagerConfig[*fakeConn]{
		Config:  validConfig(),
		Dial:    d.Dial,
		Metrics: metrics.New(reg),
	})
	ctx := context.Background()

	_ = m.Connect(ctx)
	require.NoError(t, m.Connect(ctx))
	require.NoError(t, m.Connect(ctx))

	expected := `
# HELP storefront_db_connect_attempts_total Database connection attempts by result.
# TYPE storefront_db_connect_attempts_total counter
storefront_db_connect_attempts_total{result="failure"} 1
storefront_db_connect_attempts_total{result="started"} 2
storefront_db_connect_attempts_total{result="success"} 1
# HELP storefront_db_connection_state Connection state: 0 disconnected, 1 connecting, 2 connected, 3 failed.
# TYPE storefront_db_connection_state gauge
storefront_db_connection_state 2
`
	err := testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"storefront_db_connect_attempts_total", "storefront_db_connection_state")
	assert.NoError(t, err)
}
