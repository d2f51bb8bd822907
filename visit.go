package auditwalker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/foomo/auditwalker/artifacts"
	"github.com/foomo/auditwalker/collectors"
	"github.com/foomo/auditwalker/config"
	"github.com/foomo/auditwalker/driver"
	"github.com/foomo/auditwalker/fixtures"
	"github.com/foomo/auditwalker/invariants"
	"github.com/foomo/auditwalker/stability"
	"github.com/foomo/auditwalker/vo"
)

// SkippedNoSession reason for authenticated routes without a session cookie
const SkippedNoSession = "requires a session, set " + config.EnvSessionCookie

// TabSelector of the control switching to a tab
func TabSelector(tab string) string {
	return fmt.Sprintf(`[data-tab="%s"]`, tab)
}

// Visitor audits one route on one page
type Visitor struct {
	BaseURL    string
	Fixtures   fixtures.Set
	Waiter     *stability.Waiter
	Allowlist  collectors.Allowlist
	TabTimeout time.Duration
	// Session authenticated routes are skipped without one
	Session bool
	// Artifacts nil disables screenshots
	Artifacts *artifacts.Writer
	Logger    *slog.Logger
}

// Visit navigates, waits, runs the invariants, then does the same for every
// tab and finally asserts the collected runtime errors once
func (v *Visitor) Visit(ctx context.Context, page driver.Page, route vo.RouteEntry, viewport vo.Viewport) (result vo.VisitResult) {
	start := time.Now()
	result = vo.VisitResult{
		Label:    route.Label,
		Path:     route.Path,
		Viewport: viewport.Name,
		Time:     start,
	}
	defer func() {
		result.Duration = time.Since(start)
	}()
	logger := v.logger().With("route", route.Label, "viewport", viewport.Name)

	if reason := v.Skip(route); reason != "" {
		result.Skipped = reason
		logger.Info("skipping route", "reason", reason)
		return result
	}
	path, errInject := v.Fixtures.Inject(route.Path)
	if errInject != nil {
		result.Error = errInject.Error()
		return result
	}
	result.Path = path
	result.URL = v.BaseURL + path

	c := collectors.Setup(page, v.Allowlist, logger)
	defer func() {
		result.ConsoleErrors = c.ConsoleErrors()
		result.PageErrors = c.PageErrors()
		result.NetworkErrors = c.NetworkErrors()
		if errCollected := collectors.AssertNoErrors(c, path); errCollected != nil {
			logger.Warn("runtime errors during visit", "error", errCollected)
		}
	}()

	outcome, errGoto := v.Waiter.Goto(ctx, page, result.URL)
	if errGoto != nil {
		result.Error = errGoto.Error()
		return result
	}
	logger.Debug("page stable", "outcome", outcome)

	options := invariants.OptionsFor(route, viewport)
	if errAudit := v.audit(ctx, page, path, options, &result, logger); errAudit != nil {
		result.Error = errAudit.Error()
		return result
	}
	v.screenshot(ctx, page, route.Label, &result, logger)

	for _, tab := range route.HasTabs {
		selector := TabSelector(tab)
		if !stability.WaitForVisible(ctx, page, selector, v.TabTimeout) {
			logger.Info("tab not rendered, skipping", "tab", tab)
			continue
		}
		if errClick := page.Click(ctx, selector); errClick != nil {
			logger.Warn("could not open tab", "tab", tab, "error", errClick)
			continue
		}
		if _, errStable := v.Waiter.WaitForStable(ctx, page); errStable != nil {
			result.Error = errStable.Error()
			return result
		}
		options.Tab = tab
		if errAudit := v.audit(ctx, page, path, options, &result, logger); errAudit != nil {
			result.Error = errAudit.Error()
			return result
		}
		v.screenshot(ctx, page, route.Label+"-"+tab, &result, logger)
	}
	return result
}

// Skip reason, empty when the route can be visited
func (v *Visitor) Skip(route vo.RouteEntry) string {
	if route.RequiresAuth && !v.Session {
		return SkippedNoSession
	}
	return ""
}

// Skipped result without touching a page
func (v *Visitor) Skipped(route vo.RouteEntry, viewport vo.Viewport, reason string) vo.VisitResult {
	v.logger().Info("skipping route", "route", route.Label, "viewport", viewport.Name, "reason", reason)
	return vo.VisitResult{
		Label:    route.Label,
		Path:     route.Path,
		Viewport: viewport.Name,
		Skipped:  reason,
		Time:     time.Now(),
	}
}

// audit returns only errors that prevented the checks from running
func (v *Visitor) audit(ctx context.Context, page driver.Evaluator, path string, options vo.AuditOptions, result *vo.VisitResult, logger *slog.Logger) error {
	r, err := invariants.RunInvariantsForRoute(ctx, page, path, options)
	result.Violations = append(result.Violations, r.Blocking...)
	result.Advisories = append(result.Advisories, r.Advisory...)
	for _, advisory := range r.Advisory {
		logger.Warn("advisory", "check", advisory.Check, "tab", advisory.Tab, "message", advisory.Message, "evidence", advisory.Evidence)
	}
	if options.Tab == "" {
		result.Structure = r.Structure
	}
	violations := invariants.Violations{}
	if err != nil && !errors.As(err, &violations) {
		return err
	}
	return nil
}

func (v *Visitor) screenshot(ctx context.Context, page driver.Screenshotter, label string, result *vo.VisitResult, logger *slog.Logger) {
	if v.Artifacts == nil {
		return
	}
	path, err := v.Artifacts.Save(ctx, page, label)
	if err != nil {
		logger.Warn("screenshot failed", "error", err)
		return
	}
	result.Screenshots = append(result.Screenshots, path)
}

func (v *Visitor) logger() *slog.Logger {
	if v.Logger == nil {
		return slog.Default()
	}
	return v.Logger
}
