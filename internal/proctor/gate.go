package proctor

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultCheckLatency is how long the simulated identity check takes.
const DefaultCheckLatency = 3 * time.Second

// Status texts surfaced to the client while authentication runs.
const (
	StatusIdle      = ""
	StatusSearching = "Looking for face..."
	StatusVerified  = "Identity verification successful"
	StatusFailed    = "Identity verification failed"
)

// ErrVerificationFailed is returned when the verify policy rejects the
// candidate. The user may retry by authenticating again.
var ErrVerificationFailed = errors.New("identity verification failed")

// VerifyPolicy decides the outcome of the simulated identity check. The
// production policy is a coin flip; tests substitute fixed outcomes.
type VerifyPolicy func() bool

// RandomPolicy passes with probability 0.5.
func RandomPolicy(rng *rand.Rand) VerifyPolicy {
	return func() bool { return rng.Intn(2) == 0 }
}

// AlwaysPass is a VerifyPolicy that clears every candidate.
func AlwaysPass() bool { return true }

// AlwaysFail is a VerifyPolicy that rejects every candidate.
func AlwaysFail() bool { return false }

// Gate performs the pre-exam identity check and owns the in-exam environment
// lock. The identity check is an explicit mock behind a replaceable policy,
// not real biometric logic.
type Gate struct {
	mu         sync.Mutex
	camera     Camera
	fullscreen Fullscreen
	verify     VerifyPolicy
	latency    time.Duration
	log        zerolog.Logger

	cleared bool
	status  string
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithLatency overrides the simulated check duration.
func WithLatency(d time.Duration) GateOption {
	return func(g *Gate) { g.latency = d }
}

// NewGate creates a Gate around the given capture and lock capabilities.
func NewGate(camera Camera, fullscreen Fullscreen, verify VerifyPolicy, log zerolog.Logger, opts ...GateOption) *Gate {
	g := &Gate{
		camera:     camera,
		fullscreen: fullscreen,
		verify:     verify,
		latency:    DefaultCheckLatency,
		log:        log.With().Str("component", "proctor_gate").Logger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Authenticate runs the simulated identity check: acquire the camera,
// hold it for the check latency, consult the verify policy, and release the
// stream on every exit path. On success the gate is marked cleared.
func (g *Gate) Authenticate(ctx context.Context) error {
	if !g.camera.SecureContext() {
		g.setStatus(StatusFailed)
		return ErrInsecureContext
	}

	stream, err := g.camera.Acquire(ctx)
	if err != nil {
		// A cancelled context is the caller backing out, not a device
		// failure. Keep it distinct from CAMERA_UNAVAILABLE.
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			g.setStatus(StatusIdle)
			return err
		}
		g.setStatus(StatusFailed)
		if errors.Is(err, ErrCameraUnavailable) {
			return err
		}
		return errors.Join(ErrCameraUnavailable, err)
	}
	defer stream.Stop()

	g.setStatus(StatusSearching)

	select {
	case <-ctx.Done():
		g.setStatus(StatusIdle)
		return ctx.Err()
	case <-time.After(g.latency):
	}

	if !g.verify() {
		g.setStatus(StatusFailed)
		g.log.Info().Msg("identity check rejected")
		return ErrVerificationFailed
	}

	g.mu.Lock()
	g.cleared = true
	g.status = StatusVerified
	g.mu.Unlock()

	g.log.Info().Msg("identity check passed")
	return nil
}

// Cleared reports whether the identity check has passed.
func (g *Gate) Cleared() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cleared
}

// Status returns the current user-facing status text.
func (g *Gate) Status() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status
}

// RequestFullscreen engages the environment lock.
func (g *Gate) RequestFullscreen() error { return g.fullscreen.Request() }

// ExitFullscreen releases the environment lock.
func (g *Gate) ExitFullscreen() error { return g.fullscreen.Exit() }

// Reset clears the identity clearance and status.
func (g *Gate) Reset() {
	g.mu.Lock()
	g.cleared = false
	g.status = StatusIdle
	g.mu.Unlock()
}

func (g *Gate) setStatus(s string) {
	g.mu.Lock()
	g.status = s
	g.mu.Unlock()
}
