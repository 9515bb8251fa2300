package email

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Scenario enumerates the supported mock behaviours. The default scenario
// is success unless overridden via headers or options.
type Scenario string

const (
	ScenarioSuccess Scenario = "success"
	ScenarioFailure Scenario = "failure"
	ScenarioTimeout Scenario = "timeout"

	headerScenario = "X-Mock-Provider-Scenario"
	headerLatency  = "X-Mock-Provider-Latency"
)

// MockOption customizes the behaviour of the mock provider at
// construction time.
type MockOption func(*MockProvider)

// WithMockLatencyRange overrides the default latency range used when
// simulating work. Negative values are clamped to zero and if max < min
// it is coerced to min to keep behaviour deterministic.
func WithMockLatencyRange(min, max time.Duration) MockOption {
	return func(p *MockProvider) {
		if min < 0 {
			min = 0
		}
		if max < min {
			max = min
		}
		p.minLatency = min
		p.maxLatency = max
	}
}

// WithMockDefaultScenario configures the default behaviour when a payload
// does not specify an explicit scenario via headers.
func WithMockDefaultScenario(s Scenario) MockOption {
	return func(p *MockProvider) {
		p.defaultScenario = s
	}
}

// WithMockRandomSeed swaps the RNG seed used when generating provider
// identifiers.
func WithMockRandomSeed(seed int64) MockOption {
	return func(p *MockProvider) {
		p.rnd = rand.New(rand.NewSource(seed)) // #nosec G404 -- deterministic seed for tests.
	}
}

// WithMockClock overrides the clock used for timestamps.
func WithMockClock(now func() time.Time) MockOption {
	return func(p *MockProvider) {
		if now != nil {
			p.now = now
		}
	}
}

// MockProvider implements a deterministic email provider suitable for
// local development and automated testing. Behaviour can be controlled
// via options and per-request headers without making real network calls.
// It records every Send so tests can assert how often (and whether) the
// provider was invoked.
type MockProvider struct {
	logger          zerolog.Logger
	minLatency      time.Duration
	maxLatency      time.Duration
	defaultScenario Scenario
	now             func() time.Time

	mu       sync.Mutex
	rnd      *rand.Rand
	calls    int
	lastSent *Payload
}

// NewMockProvider constructs a mock provider instance with sensible
// defaults. By default it emits successes with zero latency.
func NewMockProvider(logger zerolog.Logger, opts ...MockOption) *MockProvider {
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}

	p := &MockProvider{
		logger:          logger,
		defaultScenario: ScenarioSuccess,
		now:             time.Now,
		rnd:             rand.New(rand.NewSource(time.Now().UnixNano())), // #nosec G404
	}

	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	return p
}

// Calls returns the number of Send invocations recorded so far.
func (p *MockProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// LastPayload returns the payload from the most recent Send, or nil when
// no send has happened yet.
func (p *MockProvider) LastPayload() *Payload {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastSent
}

// Send simulates delivering the supplied payload, returning a
// deterministic response. The behaviour is controllable via the
// X-Mock-Provider-* headers.
func (p *MockProvider) Send(ctx context.Context, payload *Payload) (*RawResponse, error) {
	if payload == nil {
		return nil, errors.New("mock provider: payload is required")
	}
	if strings.TrimSpace(payload.To.Email) == "" {
		return nil, errors.New("mock provider: recipient address is required")
	}

	p.record(payload)

	if latency := p.sampleLatency(payload); latency > 0 {
		if err := p.sleep(ctx, latency); err != nil {
			return nil, err
		}
	}

	scenario := p.resolveScenario(payload)
	p.logger.Debug().
		Str("provider", "mock").
		Str("scenario", string(scenario)).
		Str("message_id", payload.MessageID).
		Msg("mock email provider invoked")

	switch scenario {
	case ScenarioFailure:
		resp := p.baseResponse(payload, 401, "mock: invalid api key")
		return resp, fmt.Errorf("mock provider: api returned status %d", resp.Code)
	case ScenarioTimeout:
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(p.maxLatency + p.minLatency + 50*time.Millisecond):
			return nil, context.DeadlineExceeded
		}
	default:
		return p.baseResponse(payload, 201, "mock: message queued"), nil
	}
}

func (p *MockProvider) record(payload *Payload) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	clone := *payload
	p.lastSent = &clone
}

func (p *MockProvider) resolveScenario(payload *Payload) Scenario {
	value, ok := pickHeader(payload.Headers, headerScenario)
	if !ok || value == "" {
		return p.defaultScenario
	}

	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(ScenarioFailure):
		return ScenarioFailure
	case string(ScenarioTimeout):
		return ScenarioTimeout
	default:
		return ScenarioSuccess
	}
}

func (p *MockProvider) sampleLatency(payload *Payload) time.Duration {
	if value, ok := pickHeader(payload.Headers, headerLatency); ok && value != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && d >= 0 {
			return d
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.maxLatency <= p.minLatency {
		return p.minLatency
	}

	delta := p.maxLatency - p.minLatency
	return p.minLatency + time.Duration(p.rnd.Int63n(int64(delta)+1))
}

func (p *MockProvider) baseResponse(payload *Payload, code int, body string) *RawResponse {
	respID := payload.MessageID
	if respID == "" {
		respID = p.nextID()
	}

	return &RawResponse{
		ID:        respID,
		Code:      code,
		Body:      body,
		Timestamp: p.now(),
	}
}

func (p *MockProvider) nextID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return fmt.Sprintf("mock-%08x", p.rnd.Uint32())
}

func (p *MockProvider) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func pickHeader(headers map[string]string, key string) (string, bool) {
	for k, v := range headers {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}
