package proctor

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newSeededRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func newTestGate(camera *SimCamera, policy VerifyPolicy) *Gate {
	return NewGate(camera, NopFullscreen{}, policy, zerolog.Nop(), WithLatency(0))
}

func TestAuthenticateSuccess(t *testing.T) {
	camera := NewSimCamera()
	g := newTestGate(camera, AlwaysPass)

	if err := g.Authenticate(context.Background()); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if !g.Cleared() {
		t.Error("gate not cleared after successful check")
	}
	if g.Status() != StatusVerified {
		t.Errorf("status = %q, want %q", g.Status(), StatusVerified)
	}
	if camera.LastStream == nil || !camera.LastStream.Stopped {
		t.Error("camera stream not released after success")
	}
}

func TestAuthenticateFailureReleasesStream(t *testing.T) {
	camera := NewSimCamera()
	g := newTestGate(camera, AlwaysFail)

	err := g.Authenticate(context.Background())
	if !errors.Is(err, ErrVerificationFailed) {
		t.Fatalf("err = %v, want ErrVerificationFailed", err)
	}
	if g.Cleared() {
		t.Error("gate cleared despite failed check")
	}
	if g.Status() != StatusFailed {
		t.Errorf("status = %q, want %q", g.Status(), StatusFailed)
	}
	if camera.LastStream == nil || !camera.LastStream.Stopped {
		t.Error("camera stream not released after failure")
	}
}

func TestAuthenticateInsecureContext(t *testing.T) {
	camera := &SimCamera{Secure: false}
	g := newTestGate(camera, AlwaysPass)

	if err := g.Authenticate(context.Background()); !errors.Is(err, ErrInsecureContext) {
		t.Fatalf("err = %v, want ErrInsecureContext", err)
	}
	if g.Cleared() {
		t.Error("gate cleared despite insecure context")
	}
}

func TestAuthenticateCameraUnavailable(t *testing.T) {
	camera := &SimCamera{Secure: true, AcquireErr: ErrCameraUnavailable}
	g := newTestGate(camera, AlwaysPass)

	if err := g.Authenticate(context.Background()); !errors.Is(err, ErrCameraUnavailable) {
		t.Fatalf("err = %v, want ErrCameraUnavailable", err)
	}
}

func TestAuthenticateCancelledBeforeAcquire(t *testing.T) {
	camera := NewSimCamera()
	g := NewGate(camera, NopFullscreen{}, AlwaysPass, zerolog.Nop(), WithLatency(time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := g.Authenticate(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if errors.Is(err, ErrCameraUnavailable) {
		t.Error("cancellation reported as camera unavailability")
	}
	if camera.LastStream != nil {
		t.Error("stream acquired despite cancelled context")
	}
	if g.Status() != StatusIdle {
		t.Errorf("status = %q, want %q", g.Status(), StatusIdle)
	}
	if g.Cleared() {
		t.Error("gate cleared after cancelled check")
	}
}

func TestAuthenticateCancelledMidCheck(t *testing.T) {
	camera := NewSimCamera()
	g := NewGate(camera, NopFullscreen{}, AlwaysPass, zerolog.Nop(), WithLatency(time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := g.Authenticate(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if camera.LastStream == nil || !camera.LastStream.Stopped {
		t.Error("camera stream not released on cancellation")
	}
	if g.Status() != StatusIdle {
		t.Errorf("status = %q, want %q", g.Status(), StatusIdle)
	}
	if g.Cleared() {
		t.Error("gate cleared after cancelled check")
	}
}

func TestGateReset(t *testing.T) {
	g := newTestGate(NewSimCamera(), AlwaysPass)
	if err := g.Authenticate(context.Background()); err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	g.Reset()

	if g.Cleared() {
		t.Error("gate still cleared after reset")
	}
	if g.Status() != StatusIdle {
		t.Errorf("status = %q, want empty", g.Status())
	}
}

func TestRandomPolicyBothOutcomes(t *testing.T) {
	// A coin-flip policy must be able to produce both outcomes.
	passes, fails := 0, 0
	for seed := int64(0); seed < 20; seed++ {
		policy := RandomPolicy(newSeededRand(seed))
		if policy() {
			passes++
		} else {
			fails++
		}
	}
	if passes == 0 || fails == 0 {
		t.Errorf("random policy produced %d passes and %d fails over 20 seeds", passes, fails)
	}
}
