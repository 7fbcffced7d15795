package app

import (
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// HotReloader polls the running binary's modification time and reports when
// a newer build lands, so a development session can offer to restart itself.
type HotReloader struct {
	execPath string
	baseline time.Time
	interval time.Duration
	stopCh   chan struct{}

	onNewBinary func() // newer binary detected; called once, from the poll goroutine
	onTick      func() // every poll, regardless of outcome
}

// NewHotReloader creates a reloader watching the current executable.
// Returns nil if the executable cannot be resolved or statted.
func NewHotReloader(interval time.Duration) *HotReloader {
	execPath, err := os.Executable()
	if err != nil {
		return nil
	}

	// go build replaces the file behind the symlink, so resolve it first or
	// the stat would keep watching the old target.
	if realPath, err := filepath.EvalSymlinks(execPath); err == nil {
		execPath = realPath
	}

	info, err := os.Stat(execPath)
	if err != nil {
		return nil
	}

	return &HotReloader{
		execPath: execPath,
		baseline: info.ModTime(),
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// OnNewBinary sets the callback invoked when a newer binary is detected.
// It fires from the poll goroutine; the receiver is responsible for any UI
// thread hand-off.
func (h *HotReloader) OnNewBinary(callback func()) {
	h.onNewBinary = callback
}

// OnTick sets a callback invoked on every poll. Useful for piggybacking
// periodic work like preference autosave on the existing timer.
func (h *HotReloader) OnTick(callback func()) {
	h.onTick = callback
}

// Start begins polling in a background goroutine.
func (h *HotReloader) Start() {
	// Fresh channel in case this is a restart after ResetBaseline.
	h.stopCh = make(chan struct{})
	go h.pollLoop()
}

// Stop ends the poll goroutine.
func (h *HotReloader) Stop() {
	close(h.stopCh)
}

func (h *HotReloader) pollLoop() {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.stopCh:
			return
		case <-ticker.C:
			if h.onTick != nil {
				h.onTick()
			}
			if h.updated() && h.onNewBinary != nil {
				h.onNewBinary()
				// Fire once; the receiver restarts us via Start if declined.
				return
			}
		}
	}
}

// updated reports whether the binary is newer than the baseline.
func (h *HotReloader) updated() bool {
	info, err := os.Stat(h.execPath)
	if err != nil {
		return false
	}
	return info.ModTime().After(h.baseline)
}

// ExecPath returns the path of the watched binary.
func (h *HotReloader) ExecPath() string {
	return h.execPath
}

// Baseline returns the modification time the watcher compares against.
func (h *HotReloader) Baseline() time.Time {
	return h.baseline
}

// ResetBaseline adopts the current binary as the baseline. Call when the
// user declines a restart, so the same build is not offered again.
func (h *HotReloader) ResetBaseline() {
	if info, err := os.Stat(h.execPath); err == nil {
		h.baseline = info.ModTime()
	}
}

// Restart replaces the current process with a fresh instance of the watched
// binary. Does not return on success.
func (h *HotReloader) Restart() error {
	return RestartProcess(h.execPath)
}

// RestartProcess execs the given binary in place of the current process,
// keeping arguments and environment. Does not return on success.
func RestartProcess(execPath string) error {
	return syscall.Exec(execPath, os.Args, os.Environ())
}
