// Package browser runs the audit against Chrome through go-rod: launch or
// connect, one page per visit, page events mapped onto driver observers.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/foomo/auditwalker/config"
	"github.com/foomo/auditwalker/driver"
	"github.com/foomo/auditwalker/vo"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

type Config struct {
	// RemoteURL of a running Chrome, empty launches a local one
	RemoteURL string
	// Bin chrome binary, empty lets the launcher find or download one
	Bin     string
	Headful bool
	Logger  *slog.Logger
}

func (c *Config) defaults() {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// ConfigFrom the browser section of the audit config
func ConfigFrom(c config.Browser, logger *slog.Logger) Config {
	return Config{
		RemoteURL: c.RemoteURL,
		Bin:       c.Bin,
		Headful:   c.Headful,
		Logger:    logger,
	}
}

type Manager struct {
	cfg     Config
	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	closed  bool
}

func NewManager(cfg Config) *Manager {
	cfg.defaults()
	return &Manager{cfg: cfg}
}

// Start launches Chrome or connects to the remote instance
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return fmt.Errorf("browser: manager is closed")
	}
	if m.browser != nil {
		return nil
	}
	log := m.cfg.Logger
	wsURL := m.cfg.RemoteURL
	if wsURL != "" {
		log.Info("browser: connecting to remote", "url", wsURL)
	} else {
		l := launcher.New().Context(ctx).Headless(!m.cfg.Headful)
		if m.cfg.Bin != "" {
			l = l.Bin(m.cfg.Bin)
		}
		u, err := l.Launch()
		if err != nil {
			return fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		m.lnch = l
		log.Info("browser: launched local chrome", "url", wsURL, "headful", m.cfg.Headful)
	}
	b := rod.New().Context(ctx).ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		m.cleanup()
		return fmt.Errorf("browser: connect: %w", err)
	}
	m.browser = b
	return nil
}

// PageOptions of a visit
type PageOptions struct {
	Viewport  vo.Viewport
	BaseURL   string
	Session   config.Session
	UserAgent string
}

// NewPage opens a fresh page sized to the viewport, the session cookie is
// only set when configured
func (m *Manager) NewPage(ctx context.Context, opts PageOptions) (driver.Page, error) {
	m.mu.Lock()
	b := m.browser
	m.mu.Unlock()
	if b == nil {
		return nil, fmt.Errorf("browser: no active browser")
	}
	rp, err := b.Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		return nil, fmt.Errorf("browser: create page: %w", err)
	}
	if err := setup(rp, opts); err != nil {
		rp.Close()
		return nil, err
	}
	return newPage(rp, m.cfg.Logger), nil
}

func setup(rp *rod.Page, opts PageOptions) error {
	scale := 1.0
	if opts.Viewport.Mobile {
		scale = 3
	}
	if err := rp.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             opts.Viewport.Width,
		Height:            opts.Viewport.Height,
		DeviceScaleFactor: scale,
		Mobile:            opts.Viewport.Mobile,
	}); err != nil {
		return fmt.Errorf("browser: viewport %s: %w", opts.Viewport.Name, err)
	}
	if opts.UserAgent != "" {
		if err := rp.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: opts.UserAgent}); err != nil {
			return fmt.Errorf("browser: user agent: %w", err)
		}
	}
	if opts.Session.Enabled() {
		if err := rp.SetCookies([]*proto.NetworkCookieParam{{
			Name:  opts.Session.CookieName,
			Value: opts.Session.CookieValue,
			URL:   opts.BaseURL,
			Path:  "/",
		}}); err != nil {
			return fmt.Errorf("browser: session cookie: %w", err)
		}
	}
	return nil
}

func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return m.cleanup()
}

func (m *Manager) cleanup() error {
	var err error
	if m.browser != nil {
		err = m.browser.Close()
		m.browser = nil
	}
	if m.lnch != nil {
		m.lnch.Cleanup()
		m.lnch = nil
	}
	return err
}
