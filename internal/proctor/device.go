package proctor

import (
	"context"
	"errors"
)

// Sentinel errors for camera acquisition.
var (
	// ErrInsecureContext means the camera was requested outside a secure
	// context. Fatal to the authenticate call but retryable by the user.
	ErrInsecureContext = errors.New("camera requires a secure context")

	// ErrCameraUnavailable means permission was denied or no device exists.
	ErrCameraUnavailable = errors.New("camera unavailable")
)

// Stream is an acquired camera media stream. Stop releases all tracks and
// must be called on every exit path.
type Stream interface {
	Stop()
}

// Camera abstracts media capture so the gate never talks to real hardware.
type Camera interface {
	// SecureContext reports whether capture is allowed at all.
	SecureContext() bool
	// Acquire opens the stream or fails with ErrCameraUnavailable.
	Acquire(ctx context.Context) (Stream, error)
}

// Fullscreen abstracts the environment lock. In the server deployment the
// implementation relays request/exit instructions to the connected client.
type Fullscreen interface {
	Request() error
	Exit() error
}

// ─── Simulated implementations ──────────────────────────────────────

// SimStream is a no-op Stream that records whether it was released.
type SimStream struct {
	Stopped bool
}

func (s *SimStream) Stop() { s.Stopped = true }

// SimCamera is a configurable Camera for the simulated check and for tests.
type SimCamera struct {
	Secure     bool
	AcquireErr error
	LastStream *SimStream
}

// NewSimCamera returns a camera in a secure context that always acquires.
func NewSimCamera() *SimCamera {
	return &SimCamera{Secure: true}
}

func (c *SimCamera) SecureContext() bool { return c.Secure }

func (c *SimCamera) Acquire(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.AcquireErr != nil {
		return nil, c.AcquireErr
	}
	c.LastStream = &SimStream{}
	return c.LastStream, nil
}

// NopFullscreen satisfies Fullscreen where no client is attached.
type NopFullscreen struct{}

func (NopFullscreen) Request() error { return nil }
func (NopFullscreen) Exit() error    { return nil }

// FullscreenFunc adapts request/exit callbacks into a Fullscreen.
type FullscreenFunc struct {
	OnRequest func() error
	OnExit    func() error
}

func (f FullscreenFunc) Request() error {
	if f.OnRequest == nil {
		return nil
	}
	return f.OnRequest()
}

func (f FullscreenFunc) Exit() error {
	if f.OnExit == nil {
		return nil
	}
	return f.OnExit()
}
