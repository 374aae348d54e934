// Package reminder is the Reminder Daemon: a periodic scanner that invokes
// the Window Manager for every user with an open window and dispatches due
// reminders.
package reminder

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jobmate/alertpipeline/internal/window"
)

const scanLimit = 500

// Daemon runs window.Manager.ScanAndSendReminders on a fixed cadence until
// its context is cancelled (spec §4.8: 5-minute cadence, cooperative
// cancellation per DESIGN NOTES §9).
type Daemon struct {
	manager *window.Manager
	cadence time.Duration
	logger  *zap.Logger
}

func New(manager *window.Manager, cadence time.Duration, logger *zap.Logger) *Daemon {
	if cadence <= 0 {
		cadence = 5 * time.Minute
	}
	return &Daemon{manager: manager, cadence: cadence, logger: logger}
}

// Run blocks, scanning every cadence, until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) {
	ticker := time.NewTicker(d.cadence)
	defer ticker.Stop()

	d.scanOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("reminder daemon stopped")
			return
		case <-ticker.C:
			d.scanOnce(ctx)
		}
	}
}

func (d *Daemon) scanOnce(ctx context.Context) {
	sent, err := d.manager.ScanAndSendReminders(ctx, 0, scanLimit)
	if err != nil {
		d.logger.Error("reminder scan failed", zap.Error(err))
		return
	}
	if sent > 0 {
		d.logger.Info("reminder scan complete", zap.Int("sent", sent))
	}
}
