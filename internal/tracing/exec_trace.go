// Package tracing records Go runtime execution traces of single CLI runs.
package tracing

import (
	"os"
	"path/filepath"
	"runtime/trace"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	envEnable = "FEEDSYNC_EXECTRACE"
	envScope  = "FEEDSYNC_EXECTRACE_SCOPE"
	envDir    = "FEEDSYNC_EXECTRACE_DIR"
)

var (
	mu     sync.Mutex
	active bool
)

// Enabled reports whether a trace was requested for scope.
// FEEDSYNC_EXECTRACE=1 enables tracing, FEEDSYNC_EXECTRACE_SCOPE limits it to one scope
// (a command name such as "fetch").
func Enabled(scope string) bool {
	if os.Getenv(envEnable) != "1" {
		return false
	}
	wanted := os.Getenv(envScope)
	return wanted == "" || wanted == scope
}

// Start begins an execution trace for scope and returns the function that finishes it.
// Only one trace runs at a time; when disabled or busy the stop function does nothing.
func Start(scope, runID string) (stop func()) {
	if !Enabled(scope) || !acquire() {
		return func() {}
	}

	startedAt := time.Now()
	dir := os.Getenv(envDir)
	if dir == "" {
		dir = "traces"
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("Failed to create traces directory; skipping exec trace")
		release()
		return func() {}
	}

	name := filepath.Join(dir, scope+"-"+runID+"-"+startedAt.UTC().Format("20060102T150405Z")+".out")
	f, err := os.Create(name)
	if err != nil {
		log.Warn().Err(err).Str("file", name).Msg("Failed to create exec trace file")
		release()
		return func() {}
	}

	if err := trace.Start(f); err != nil {
		_ = f.Close()
		log.Warn().Err(err).Str("file", name).Msg("Failed to start exec trace")
		release()
		return func() {}
	}

	log.Info().Str("scope", scope).Str("run_id", runID).Str("file", name).Msg("Go exec trace started")

	var once sync.Once
	return func() {
		once.Do(func() {
			trace.Stop()
			_ = f.Close()
			release()
			log.Info().
				Str("scope", scope).
				Dur("duration", time.Since(startedAt)).
				Str("file", name).
				Msg("Go exec trace stopped")
		})
	}
}

// Active reports whether a trace is being recorded.
func Active() bool {
	mu.Lock()
	defer mu.Unlock()
	return active
}

func acquire() bool {
	mu.Lock()
	defer mu.Unlock()
	if active {
		log.Debug().Msg("Exec trace already active, skipping")
		return false
	}
	active = true
	return true
}

func release() {
	mu.Lock()
	active = false
	mu.Unlock()
}
