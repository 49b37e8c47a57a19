package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/ink1ing/rambooster/pkg/launchagent"
	"github.com/ink1ing/rambooster/pkg/memstats"
	"github.com/ink1ing/rambooster/pkg/remedy"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func testLogger() *log.Logger {
	logger := log.New()
	logger.SetLevel(log.ErrorLevel)
	return logger
}

func TestUserMessageCommandNotFound(t *testing.T) {
	msg := userMessage(remedy.ErrCommandNotFound)
	assert.Contains(t, msg, "purge binary not found")
	assert.Contains(t, msg, "xcode-select --install")
}

func TestUserMessagePermissionDenied(t *testing.T) {
	msg := userMessage(&remedy.ExecutionFailedError{ExitCode: 1})
	assert.Contains(t, msg, "elevated privileges")
	assert.Contains(t, msg, "rambo setup")
	assert.Contains(t, msg, "--request-permission")
}

func TestUserMessageOtherExitCode(t *testing.T) {
	msg := userMessage(&remedy.ExecutionFailedError{ExitCode: 2})
	assert.Equal(t, "purge exited with status 2", msg)
}

func TestUserMessageStatsError(t *testing.T) {
	msg := userMessage(&memstats.StatsError{Err: errors.New("vm_stat unavailable")})
	assert.Contains(t, msg, "could not read memory counters")
	assert.Contains(t, msg, "vm_stat unavailable")
}

func TestUserMessageLaunchAgent(t *testing.T) {
	assert.Contains(t, userMessage(launchagent.ErrNotInstalled), "rambo daemon install")
	assert.Contains(t, userMessage(launchagent.ErrUnsupported), "macOS")
}

func TestUserMessagePassthrough(t *testing.T) {
	assert.Equal(t, "boom", userMessage(errors.New("boom")))
}

func TestTruncateName(t *testing.T) {
	assert.Equal(t, "Finder", truncateName("Finder"))
	got := truncateName("com.apple.WebKit.WebContent.Helper")
	assert.Equal(t, "com.apple.WebKit.WebCon...", got)
	assert.Len(t, got, 26)
}

func TestConfirm(t *testing.T) {
	assert.True(t, confirm(strings.NewReader("y\n"), "go?"))
	assert.True(t, confirm(strings.NewReader("YES\n"), "go?"))
	assert.True(t, confirm(strings.NewReader("y"), "go?"))
	assert.False(t, confirm(strings.NewReader("n\n"), "go?"))
	assert.False(t, confirm(strings.NewReader("\n"), "go?"))
	assert.False(t, confirm(strings.NewReader(""), "go?"))
}
