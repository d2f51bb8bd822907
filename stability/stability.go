// Package stability decides when a page is quiet enough to be audited.
package stability

import (
	"context"
	"log/slog"
	"time"

	"github.com/foomo/auditwalker/driver"
)

const (
	DefaultNetworkIdleTimeout = 8 * time.Second
	DefaultSettleDelay        = 2 * time.Second
)

type Outcome string

const (
	OutcomeNetworkIdle Outcome = "network-idle"
	// OutcomeFallback network never went idle, waited for load plus settle delay
	OutcomeFallback Outcome = "fallback"
)

type Waiter struct {
	NetworkIdleTimeout time.Duration
	SettleDelay        time.Duration
	// Sleep defaults to a context aware timer
	Sleep  func(ctx context.Context, d time.Duration)
	Logger *slog.Logger
}

func NewWaiter(networkIdleTimeout, settleDelay time.Duration, logger *slog.Logger) *Waiter {
	if networkIdleTimeout <= 0 {
		networkIdleTimeout = DefaultNetworkIdleTimeout
	}
	if settleDelay <= 0 {
		settleDelay = DefaultSettleDelay
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Waiter{
		NetworkIdleTimeout: networkIdleTimeout,
		SettleDelay:        settleDelay,
		Sleep:              sleep,
		Logger:             logger,
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// Goto navigates and waits for the page to become stable
func (w *Waiter) Goto(ctx context.Context, page driver.Navigator, url string) (Outcome, error) {
	if err := page.Navigate(ctx, url); err != nil {
		return "", err
	}
	return w.WaitForStable(ctx, page)
}

// WaitForStable pages holding long lived connections never go idle, they
// fall back to the load signal and a fixed settle delay instead of failing.
// The returned error only reflects a cancelled ctx.
func (w *Waiter) WaitForStable(ctx context.Context, page driver.Navigator) (Outcome, error) {
	errIdle := page.WaitNetworkIdle(ctx, w.NetworkIdleTimeout)
	if errIdle == nil {
		return OutcomeNetworkIdle, nil
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	w.Logger.Debug("network did not go idle, falling back", "timeout", w.NetworkIdleTimeout, "error", errIdle)
	if errLoad := page.WaitLoad(ctx); errLoad != nil {
		w.Logger.Debug("wait for load failed", "error", errLoad)
	}
	w.Sleep(ctx, w.SettleDelay)
	return OutcomeFallback, ctx.Err()
}

// WaitForVisible reports whether selector became visible within timeout,
// it never fails so callers can skip optional ui
func WaitForVisible(ctx context.Context, page driver.Querier, selector string, timeout time.Duration) bool {
	return waitForVisible(ctx, page, selector, timeout, 100*time.Millisecond)
}

func waitForVisible(ctx context.Context, page driver.Querier, selector string, timeout, interval time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		visible, err := page.Visible(ctx, selector)
		if err == nil && visible {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}
