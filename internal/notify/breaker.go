package notify

import (
	"context"
	"errors"
	"sync"
	"time"
)

type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

var ErrBreakerOpen = errors.New("notification sink circuit breaker is open")

type BreakerConfig struct {
	MaxFailures      int           `json:"max_failures"`
	Timeout          time.Duration `json:"timeout"`
	HalfOpenMaxCalls int           `json:"half_open_max_calls"`
}

func DefaultBreakerConfig() *BreakerConfig {
	return &BreakerConfig{
		MaxFailures:      5,
		Timeout:          30 * time.Second,
		HalfOpenMaxCalls: 3,
	}
}

// BreakerSink wraps another sink with a circuit breaker so a dead broker
// cannot slow the write path down: once the breaker opens, Notify fails fast
// until the timeout elapses and a few probe calls succeed again.
type BreakerSink struct {
	next Sink

	mu              sync.RWMutex
	state           breakerState
	failureCount    int
	successCount    int
	lastFailureTime time.Time

	maxFailures      int
	timeout          time.Duration
	halfOpenMaxCalls int
}

func NewBreakerSink(next Sink, config *BreakerConfig) *BreakerSink {
	if config == nil {
		config = DefaultBreakerConfig()
	}

	return &BreakerSink{
		next:             next,
		state:            breakerClosed,
		maxFailures:      config.MaxFailures,
		timeout:          config.Timeout,
		halfOpenMaxCalls: config.HalfOpenMaxCalls,
	}
}

func (s *BreakerSink) Notify(ctx context.Context, externalUserID int64, message string) error {
	if !s.allow() {
		return ErrBreakerOpen
	}

	if err := s.next.Notify(ctx, externalUserID, message); err != nil {
		s.recordFailure()
		return err
	}

	s.recordSuccess()
	return nil
}

func (s *BreakerSink) allow() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case breakerClosed:
		return true
	case breakerOpen:
		if time.Since(s.lastFailureTime) >= s.timeout {
			s.state = breakerHalfOpen
			s.successCount = 0
			return true
		}
		return false
	case breakerHalfOpen:
		return s.successCount < s.halfOpenMaxCalls
	default:
		return false
	}
}

func (s *BreakerSink) recordFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failureCount++
	s.lastFailureTime = time.Now()

	switch s.state {
	case breakerClosed:
		if s.failureCount >= s.maxFailures {
			s.state = breakerOpen
		}
	case breakerHalfOpen:
		s.state = breakerOpen
		s.successCount = 0
	}
}

func (s *BreakerSink) recordSuccess() {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case breakerClosed:
		s.failureCount = 0
	case breakerHalfOpen:
		s.successCount++
		if s.successCount >= s.halfOpenMaxCalls {
			s.state = breakerClosed
			s.failureCount = 0
		}
	}
}
