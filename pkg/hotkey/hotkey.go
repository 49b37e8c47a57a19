// Package hotkey abstracts the global boost shortcut.
//
// Capturing the shortcut on macOS requires a CGEventTap, which only works
// from an accessibility-entitled native build. This tree ships the listener
// contract plus a noop fallback; the entitled build plugs in its own Listener.
package hotkey

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// DefaultBinding is the advertised global shortcut.
const DefaultBinding = "Ctrl+R"

// Listener waits for the global boost shortcut.
type Listener interface {
	// Supported reports whether this listener can receive key events here.
	Supported() bool
	// Run blocks until ctx is done, calling fire once per shortcut press.
	Run(ctx context.Context, fire func()) error
}

// NoopListener is the fallback for builds without event tap access. It never
// fires.
type NoopListener struct {
	logger *log.Logger
}

func NewNoopListener(logger *log.Logger) *NoopListener {
	return &NoopListener{logger: logger}
}

func (l *NoopListener) Supported() bool {
	return false
}

func (l *NoopListener) Run(ctx context.Context, fire func()) error {
	l.logger.Warnf("Global hotkey capture is not available in this build, the %s binding stays inactive", DefaultBinding)
	<-ctx.Done()
	return ctx.Err()
}

// MockListener fires on demand. Tests and the interactive session use it to
// drive the boost path without an event tap.
type MockListener struct {
	trigger chan struct{}
}

func NewMockListener() *MockListener {
	return &MockListener{trigger: make(chan struct{}, 1)}
}

// Trigger simulates one shortcut press.
func (m *MockListener) Trigger() {
	m.trigger <- struct{}{}
}

func (m *MockListener) Supported() bool {
	return true
}

func (m *MockListener) Run(ctx context.Context, fire func()) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.trigger:
			fire()
		}
	}
}
