package systemd

import (
	"context"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"github.com/b0bbywan/go-odio-btmedia/config"
	"github.com/b0bbywan/go-odio-btmedia/logger"
)

// Notifier reports service state to systemd through sd_notify. It is a no-op
// when disabled or when the process was not started by systemd.
type Notifier struct {
	enabled  bool
	notify   func(unsetEnvironment bool, state string) (bool, error)
	watchdog func(unsetEnvironment bool) (time.Duration, error)
}

func NewNotifier(cfg *config.SystemdConfig) *Notifier {
	return &Notifier{
		enabled:  cfg != nil && cfg.Notify,
		notify:   daemon.SdNotify,
		watchdog: daemon.SdWatchdogEnabled,
	}
}

func (n *Notifier) Ready() {
	n.send(daemon.SdNotifyReady)
}

func (n *Notifier) Stopping() {
	n.send(daemon.SdNotifyStopping)
}

// Status sets the free-form status line shown by systemctl status.
func (n *Notifier) Status(msg string) {
	n.send("STATUS=" + msg)
}

// StartWatchdog pings the watchdog at half its interval until ctx is done.
func (n *Notifier) StartWatchdog(ctx context.Context) {
	if !n.enabled {
		return
	}
	interval, err := n.watchdog(false)
	if err != nil {
		logger.Warn("[systemd] watchdog check failed: %v", err)
		return
	}
	if interval <= 0 {
		return
	}

	logger.Debug("[systemd] watchdog every %s", interval/2)
	go func() {
		ticker := time.NewTicker(interval / 2)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n.send(daemon.SdNotifyWatchdog)
			}
		}
	}()
}

func (n *Notifier) send(state string) {
	if n == nil || !n.enabled {
		return
	}
	sent, err := n.notify(false, state)
	switch {
	case err != nil:
		logger.Warn("[systemd] sd_notify %q failed: %v", state, err)
	case !sent:
		logger.Debug("[systemd] not running under systemd, %q not sent", state)
	}
}
