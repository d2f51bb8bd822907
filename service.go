// Package auditwalker walks the route manifest of a web app in a real
// browser and checks every page against UI invariants.
package auditwalker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/foomo/auditwalker/artifacts"
	"github.com/foomo/auditwalker/collectors"
	"github.com/foomo/auditwalker/config"
	"github.com/foomo/auditwalker/fixtures"
	"github.com/foomo/auditwalker/manifest"
	"github.com/foomo/auditwalker/preflight"
	"github.com/foomo/auditwalker/stability"
	"github.com/foomo/auditwalker/vo"
	"github.com/prometheus/client_golang/prometheus"
)

// PreconditionError the run could not start, no route was visited
type PreconditionError struct {
	Err error
}

func (e *PreconditionError) Error() string {
	return "precondition failed: " + e.Err.Error()
}

func (e *PreconditionError) Unwrap() error {
	return e.Err
}

type RunResult struct {
	Mode    vo.Tag
	Results []vo.VisitResult
	// RobotsForbidden public routes robots.txt disallows for the agent
	RobotsForbidden []string
	Duration        time.Duration
}

// Failed visits in run order
func (r *RunResult) Failed() (failed []vo.VisitResult) {
	for _, result := range r.Results {
		if result.Failed() {
			failed = append(failed, result)
		}
	}
	return failed
}

func (r *RunResult) Skipped() (skipped []vo.VisitResult) {
	for _, result := range r.Results {
		if result.Skipped != "" {
			skipped = append(skipped, result)
		}
	}
	return skipped
}

// Status of the whole run across all viewports
func (r *RunResult) Status() vo.Status {
	status := vo.Status{
		Results: make(map[string]vo.VisitResult, len(r.Results)),
		Jobs:    map[string]bool{},
	}
	for _, result := range r.Results {
		status.Results[result.Key()] = result
	}
	return status
}

// Err lists every failed route, nil if all passed
func (r *RunResult) Err() error {
	failed := r.Failed()
	if len(failed) == 0 {
		return nil
	}
	keys := make([]string, len(failed))
	for i, result := range failed {
		keys[i] = result.Key()
	}
	return fmt.Errorf("%d of %d visits failed: %s", len(failed), len(r.Results), strings.Join(keys, ", "))
}

type Service struct {
	Config *config.Config
	Walker *Walker
	Client fixtures.Doer
	Logger *slog.Logger
	// Now run time for artifact names
	Now func() time.Time
}

func NewService(conf *config.Config, newPage PageFactory, reg prometheus.Registerer, logger *slog.Logger) (s *Service, err error) {
	if errValidate := conf.Validate(); errValidate != nil {
		return nil, &PreconditionError{Err: errValidate}
	}
	if logger == nil {
		logger = slog.Default()
	}
	s = &Service{
		Config: conf,
		Walker: NewWalker(conf.Concurrency, newPage, NewMetrics(reg)),
		Client: fixtures.NewClient(conf.NetworkIdleTimeout + 10*time.Second),
		Logger: logger,
		Now:    time.Now,
	}
	return s, nil
}

func (s *Service) viewports() ([]vo.Viewport, error) {
	viewports := []vo.Viewport{}
	for _, name := range s.Config.Viewports {
		viewport, ok := vo.GetViewport(name)
		if !ok {
			return nil, fmt.Errorf("unknown viewport %q", name)
		}
		viewports = append(viewports, viewport)
	}
	return viewports, nil
}

// Run validates the manifest and fixtures, gates on robots.txt, resets the
// screenshot directories and walks every configured viewport
func (s *Service) Run(ctx context.Context) (*RunResult, error) {
	start := time.Now()
	conf := s.Config
	mode, errMode := manifest.ParseMode(conf.Mode)
	if errMode != nil {
		return nil, &PreconditionError{Err: errMode}
	}
	if errManifest := manifest.Validate(manifest.Routes()); errManifest != nil {
		return nil, &PreconditionError{Err: errManifest}
	}
	viewports, errViewports := s.viewports()
	if errViewports != nil {
		return nil, &PreconditionError{Err: errViewports}
	}
	routes := manifest.GetRoutes(mode)
	registry := fixtures.NewRegistry(conf.Fixtures)
	set := registry.Set()
	if errFixtures := fixtures.Validate(ctx, s.Client, conf.BaseURL, conf.Agent, registry.Checks(), set); errFixtures != nil {
		return nil, &PreconditionError{Err: errFixtures}
	}

	result := &RunResult{Mode: mode}
	if !conf.IgnoreRobots {
		forbidden, errRobots := preflight.Robots(ctx, s.Client, conf.BaseURL, conf.Agent, routes, set)
		switch {
		case errRobots != nil:
			s.Logger.Warn("could not read robots.txt", "error", errRobots)
		case len(forbidden) > 0:
			s.Logger.Warn("robots.txt does not allow audited public routes", "agent", conf.Agent, "paths", forbidden)
			result.RobotsForbidden = forbidden
		}
	}

	runTime := s.Now()
	writers := map[string]*artifacts.Writer{}
	for _, viewport := range viewports {
		writer := artifacts.NewWriter(conf.Screenshots, viewport.Name, runTime)
		if errReset := writer.Reset(); errReset != nil {
			return nil, &PreconditionError{Err: errReset}
		}
		writers[viewport.Name] = writer
	}

	allow := collectors.DefaultAllowlist().Effective(conf.CI)
	for _, viewport := range viewports {
		visitor := &Visitor{
			BaseURL:    conf.BaseURL,
			Fixtures:   set,
			Waiter:     stability.NewWaiter(conf.NetworkIdleTimeout, conf.SettleDelay, s.Logger),
			Allowlist:  allow,
			TabTimeout: conf.TabTimeout,
			Session:    conf.Session.Enabled(),
			Artifacts:  writers[viewport.Name],
			Logger:     s.Logger,
		}
		viewportRoutes := manifest.ForViewport(routes, viewport)
		s.Logger.Info("walking", "viewport", viewport.Name, "mode", mode, "routes", len(viewportRoutes))
		results, errWalk := s.Walker.Walk(ctx, viewport, viewportRoutes, visitor, conf.VisitTimeout)
		if errWalk != nil {
			return nil, errWalk
		}
		result.Results = append(result.Results, results...)
		if errCtx := ctx.Err(); errCtx != nil {
			result.Duration = time.Since(start)
			return result, errCtx
		}
	}
	result.Duration = time.Since(start)
	return result, nil
}

// GetStatus of the running walk
func (s *Service) GetStatus() vo.Status {
	return s.Walker.GetStatus()
}

// IsPrecondition tells exit code 2 apart from route failures
func IsPrecondition(err error) bool {
	target := &PreconditionError{}
	return errors.As(err, &target)
}

// SortedKeys of a status
func SortedKeys(status vo.Status) []string {
	keys := make([]string, 0, len(status.Results))
	for key := range status.Results {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
