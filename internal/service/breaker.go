package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/proscan/docsync/internal/config"
	"github.com/proscan/docsync/internal/logger"
)

// Remote service names tracked by the circuit breaker.
const (
	ServiceBackend       = "backend"
	ServiceObjectStorage = "object_storage"
)

const (
	defaultFailureThreshold = 5
	defaultRecoveryTimeout  = 60 * time.Second
	defaultOperationTimeout = 30 * time.Second
)

// CircuitState is the health state of one remote service's circuit.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "halfOpen"
	default:
		return "closed"
	}
}

// circuitRecord lives for the process lifetime: created on first use of a
// service name, never removed.
type circuitRecord struct {
	state         CircuitState
	failures      int
	lastFailure   time.Time
	trialInFlight bool
}

// CircuitBreaker tracks per-remote-service health and fails fast while a
// service is degraded. Operations run through Execute; while a circuit is
// open every call is rejected with ErrCircuitOpen without touching the
// network.
type CircuitBreaker struct {
	mu      sync.Mutex
	clock   Clock
	logger  *logger.Logger
	records map[string]*circuitRecord

	failureThreshold int
	recoveryTimeout  time.Duration
	operationTimeout time.Duration
}

// NewCircuitBreaker builds a breaker from cfg, applying defaults for zero
// values (threshold 5, recovery 60s, per-operation timeout 30s).
func NewCircuitBreaker(cfg config.Sync, clock Clock, log *logger.Logger) *CircuitBreaker {
	threshold := cfg.FailureThreshold
	if threshold <= 0 {
		threshold = defaultFailureThreshold
	}
	recovery := cfg.RecoveryTimeout
	if recovery <= 0 {
		recovery = defaultRecoveryTimeout
	}
	opTimeout := cfg.OperationTimeout
	if opTimeout <= 0 {
		opTimeout = defaultOperationTimeout
	}

	return &CircuitBreaker{
		clock:            clock,
		logger:           log,
		records:          make(map[string]*circuitRecord),
		failureThreshold: threshold,
		recoveryTimeout:  recovery,
		operationTimeout: opTimeout,
	}
}

// Execute runs fn against the named service, subject to the circuit state
// and the per-operation timeout. A timeout counts as a failure for the
// circuit. In half-open state exactly one trial call is admitted; its
// outcome decides whether the circuit closes again or re-opens.
func (b *CircuitBreaker) Execute(ctx context.Context, service string, fn func(ctx context.Context) error) error {
	if err := b.allow(service); err != nil {
		return err
	}

	opCtx, cancel := context.WithTimeout(ctx, b.operationTimeout)
	defer cancel()

	err := fn(opCtx)
	if err != nil && errors.Is(opCtx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("operation timed out after %s: %w", b.operationTimeout, err)
	}

	b.record(service, err)
	return err
}

// State returns the current circuit state for the service, accounting for
// recovery-timeout expiry on open circuits.
func (b *CircuitBreaker) State(service string) CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec := b.get(service)
	if rec.state == CircuitOpen && b.clock.Now().Sub(rec.lastFailure) >= b.recoveryTimeout {
		return CircuitHalfOpen
	}
	return rec.state
}

func (b *CircuitBreaker) allow(service string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec := b.get(service)
	switch rec.state {
	case CircuitClosed:
		return nil

	case CircuitOpen:
		if b.clock.Now().Sub(rec.lastFailure) < b.recoveryTimeout {
			return fmt.Errorf("%w: %s", ErrCircuitOpen, service)
		}
		rec.state = CircuitHalfOpen
		rec.trialInFlight = true
		b.logger.Info().Str("service", service).Msg("circuit half-open, admitting trial call")
		return nil

	default: // half-open: one trial at a time
		if rec.trialInFlight {
			return fmt.Errorf("%w: %s", ErrCircuitOpen, service)
		}
		rec.trialInFlight = true
		return nil
	}
}

func (b *CircuitBreaker) record(service string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec := b.get(service)
	rec.trialInFlight = false

	if err == nil {
		if rec.state != CircuitClosed {
			b.logger.Info().Str("service", service).Msg("circuit closed")
		}
		rec.state = CircuitClosed
		rec.failures = 0
		return
	}

	rec.lastFailure = b.clock.Now()
	if rec.state == CircuitHalfOpen {
		rec.state = CircuitOpen
		b.logger.Warn().Str("service", service).Msg("trial call failed, circuit re-opened")
		return
	}

	rec.failures++
	if rec.failures >= b.failureThreshold {
		rec.state = CircuitOpen
		b.logger.Warn().
			Str("service", service).
			Int("failures", rec.failures).
			Msg("failure threshold reached, circuit opened")
	}
}

func (b *CircuitBreaker) get(service string) *circuitRecord {
	rec, ok := b.records[service]
	if !ok {
		rec = &circuitRecord{state: CircuitClosed}
		b.records[service] = rec
	}
	return rec
}
