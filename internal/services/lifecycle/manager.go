package lifecycle

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// ShutdownFunc tears down one component.
type ShutdownFunc func(ctx context.Context) error

type teardown struct {
	name string
	fn   ShutdownFunc
}

// Manager owns the teardown order of the server's components. Components
// register as they come up and are stopped in reverse, so the HTTP server
// drains before the stores it depends on close.
type Manager struct {
	timeout time.Duration
	logger  *zap.Logger

	mu        sync.Mutex
	teardowns []teardown
}

func New(timeout time.Duration, logger *zap.Logger) *Manager {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		timeout: timeout,
		logger:  logger,
	}
}

// Register adds a named teardown. A nil fn is ignored.
func (m *Manager) Register(name string, fn ShutdownFunc) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teardowns = append(m.teardowns, teardown{name: name, fn: fn})
}

// Shutdown stops every registered component in reverse registration order
// within the configured timeout. A failing teardown is logged and does not
// stop the rest. Calling Shutdown again is a no-op.
func (m *Manager) Shutdown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	m.mu.Lock()
	pending := m.teardowns
	m.teardowns = nil
	m.mu.Unlock()

	var result error
	for i := len(pending) - 1; i >= 0; i-- {
		td := pending[i]
		if err := td.fn(ctx); err != nil {
			m.logger.Error("teardown failed", zap.String("component", td.name), zap.Error(err))
			result = errors.Join(result, err)
			continue
		}
		m.logger.Info("component stopped", zap.String("component", td.name))
	}
	return result
}

// Listen invokes cancel once SIGTERM or SIGINT arrives.
func (m *Manager) Listen(cancel context.CancelFunc) {
	if cancel == nil {
		return
	}
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		defer signal.Stop(sigCh)
		sig := <-sigCh
		m.logger.Info("shutdown signal received", zap.String("signal", sig.String()))
		cancel()
	}()
}
