// Package collectors captures runtime signals of a page visit: console
// errors, uncaught exceptions and failed network responses.
package collectors

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/foomo/auditwalker/driver"
	"github.com/foomo/auditwalker/vo"
)

// Collectors accumulates signals of exactly one visit
type Collectors struct {
	mu            sync.Mutex
	consoleErrors []string
	pageErrors    []string
	networkErrors []vo.NetworkError
	suppressed4xx int
}

// Setup registers observers on the page. Create one per visit, never share
// it across routes.
func Setup(page driver.Events, allow Allowlist, logger *slog.Logger) *Collectors {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Collectors{}
	page.OnConsole(func(msg driver.ConsoleMessage) {
		if msg.Type != "error" || allow.IgnoreConsole(msg.Text) {
			return
		}
		c.mu.Lock()
		c.consoleErrors = append(c.consoleErrors, msg.Text)
		c.mu.Unlock()
	})
	page.OnPageError(func(message string) {
		if allow.IgnoreConsole(message) {
			return
		}
		c.mu.Lock()
		c.pageErrors = append(c.pageErrors, message)
		c.mu.Unlock()
	})
	page.OnResponse(func(resp driver.Response) {
		if allow.IgnoreResponse(resp.URL, resp.Status) {
			if resp.Status >= 400 && resp.Status < 500 && containsAny(resp.URL, allow.Network4xx) {
				logger.Debug("suppressed expected 4xx", "url", resp.URL, "status", resp.Status)
				c.mu.Lock()
				c.suppressed4xx++
				c.mu.Unlock()
			}
			return
		}
		c.mu.Lock()
		c.networkErrors = append(c.networkErrors, vo.NetworkError{URL: resp.URL, Status: resp.Status})
		c.mu.Unlock()
	})
	return c
}

func (c *Collectors) ConsoleErrors() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string{}, c.consoleErrors...)
}

func (c *Collectors) PageErrors() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string{}, c.pageErrors...)
}

func (c *Collectors) NetworkErrors() []vo.NetworkError {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]vo.NetworkError{}, c.networkErrors...)
}

// Suppressed4xx number of 4xx responses hidden by the 4xx allowlist
func (c *Collectors) Suppressed4xx() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.suppressed4xx
}

// CollectedError every signal captured during a visit
type CollectedError struct {
	Route         string
	ConsoleErrors []string
	PageErrors    []string
	NetworkErrors []vo.NetworkError
}

func (e *CollectedError) Error() string {
	lines := []string{fmt.Sprintf("%s: runtime errors during visit", e.Route)}
	section := func(name string, items []string) {
		if len(items) == 0 {
			return
		}
		lines = append(lines, fmt.Sprintf("  %s (%d):", name, len(items)))
		for _, item := range items {
			lines = append(lines, "    - "+item)
		}
	}
	network := make([]string, len(e.NetworkErrors))
	for i, ne := range e.NetworkErrors {
		network[i] = ne.String()
	}
	section("console errors", e.ConsoleErrors)
	section("uncaught exceptions", e.PageErrors)
	section("network errors", network)
	return strings.Join(lines, "\n")
}

// AssertNoErrors nil if nothing was collected, otherwise an error listing
// every captured item
func AssertNoErrors(c *Collectors, route string) error {
	e := &CollectedError{
		Route:         route,
		ConsoleErrors: c.ConsoleErrors(),
		PageErrors:    c.PageErrors(),
		NetworkErrors: c.NetworkErrors(),
	}
	if len(e.ConsoleErrors)+len(e.PageErrors)+len(e.NetworkErrors) == 0 {
		return nil
	}
	return e
}
