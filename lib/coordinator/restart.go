// Copyright 2026 The SRR Authors
// SPDX-License-Identifier: Apache-2.0

package coordinator

import (
	"log/slog"
	"syscall"
	"time"
)

// scheduleRestart runs the delayed host restart: a one-second
// countdown for observability, then the hook. It runs on its own
// goroutine, spawned after the operator reply has been produced.
func (w *Worker) scheduleRestart() {
	seconds := int(w.delay / time.Second)
	for i := seconds; i > 0; i-- {
		w.logger.Info("rebooting", "seconds_remaining", i)
		w.clock.Sleep(time.Second)
	}
	w.logger.Info("reboot")
	w.restart()
}

// defaultRestart flushes filesystem buffers and stops there. Wiring
// the actual reboot to the OS is deployment-specific and lives
// outside the engine.
func defaultRestart(logger *slog.Logger) RestartFunc {
	return func() {
		syscall.Sync()
		logger.Warn("host restart requested but no restart hook is configured")
	}
}
