package auditwalker

import (
	"context"
	"errors"
	"time"

	"github.com/foomo/auditwalker/driver"
	"github.com/foomo/auditwalker/vo"
)

// PageFactory opens an independent page for one visit
type PageFactory func(ctx context.Context, viewport vo.Viewport) (driver.Page, error)

var ErrWalkInProgress = errors.New("walker: walk in progress")

type start struct {
	ctx      context.Context
	viewport vo.Viewport
	routes   []vo.RouteEntry
	visitor  *Visitor
	timeout  time.Duration
	done     chan []vo.VisitResult
}

// Walker visits routes concurrently, all state is owned by the main loop
type Walker struct {
	concurrency  int
	newPage      PageFactory
	metrics      *Metrics
	chanStart    chan start
	chanResult   chan vo.VisitResult
	chanStatus   chan chan vo.Status
	chanErrStart chan error
}

func NewWalker(concurrency int, newPage PageFactory, metrics *Metrics) *Walker {
	if concurrency < 1 {
		concurrency = 1
	}
	w := &Walker{
		concurrency:  concurrency,
		newPage:      newPage,
		metrics:      metrics,
		chanStart:    make(chan start),
		chanResult:   make(chan vo.VisitResult),
		chanStatus:   make(chan chan vo.Status),
		chanErrStart: make(chan error),
	}
	go w.main()
	return w
}

func (w *Walker) main() {
	running := 0
	var current *start
	order := []string{}
	routes := map[string]vo.RouteEntry{}
	jobs := map[string]bool{}
	results := map[string]vo.VisitResult{}

	for {
		if current != nil {
			for _, key := range order {
				if running >= w.concurrency {
					break
				}
				active, open := jobs[key]
				if !open || active {
					continue
				}
				route := routes[key]
				if errCtx := current.ctx.Err(); errCtx != nil {
					delete(jobs, key)
					results[key] = vo.VisitResult{
						Label:    route.Label,
						Path:     route.Path,
						Viewport: current.viewport.Name,
						Error:    errCtx.Error(),
						Time:     time.Now(),
					}
					continue
				}
				running++
				jobs[key] = true
				go w.visit(*current, route)
			}
			w.metrics.progress(len(jobs), len(results))
			if len(jobs) == 0 && running == 0 {
				list := make([]vo.VisitResult, 0, len(order))
				for _, key := range order {
					list = append(list, results[key])
				}
				current.done <- list
				current = nil
			}
		}

		select {
		case st := <-w.chanStart:
			if current != nil {
				w.chanErrStart <- ErrWalkInProgress
				continue
			}
			current = &st
			order = []string{}
			routes = map[string]vo.RouteEntry{}
			jobs = map[string]bool{}
			results = map[string]vo.VisitResult{}
			for _, route := range st.routes {
				key := vo.ResultKey(st.viewport.Name, route.Label)
				if _, ok := routes[key]; ok {
					continue
				}
				order = append(order, key)
				routes[key] = route
				jobs[key] = false
			}
			w.chanErrStart <- nil
		case chanReply := <-w.chanStatus:
			resultsCopy := make(map[string]vo.VisitResult, len(results))
			for key, result := range results {
				resultsCopy[key] = result
			}
			jobsCopy := make(map[string]bool, len(jobs))
			for key, active := range jobs {
				jobsCopy[key] = active
			}
			chanReply <- vo.Status{
				Results: resultsCopy,
				Jobs:    jobsCopy,
			}
		case result := <-w.chanResult:
			running--
			key := result.Key()
			delete(jobs, key)
			results[key] = result
			w.metrics.observe(result)
		}
	}
}

func (w *Walker) visit(st start, route vo.RouteEntry) {
	if reason := st.visitor.Skip(route); reason != "" {
		w.chanResult <- st.visitor.Skipped(route, st.viewport, reason)
		return
	}
	ctx, cancel := context.WithTimeout(st.ctx, st.timeout)
	defer cancel()
	page, errPage := w.newPage(ctx, st.viewport)
	if errPage != nil {
		w.chanResult <- vo.VisitResult{
			Label:    route.Label,
			Path:     route.Path,
			Viewport: st.viewport.Name,
			Error:    errPage.Error(),
			Time:     time.Now(),
		}
		return
	}
	result := st.visitor.Visit(ctx, page, route, st.viewport)
	if errClose := page.Close(); errClose != nil {
		st.visitor.logger().Debug("closing page failed", "route", route.Label, "error", errClose)
	}
	w.chanResult <- result
}

// Walk visits every route on the viewport and blocks until all are done,
// results are in route order
func (w *Walker) Walk(ctx context.Context, viewport vo.Viewport, routes []vo.RouteEntry, visitor *Visitor, timeout time.Duration) ([]vo.VisitResult, error) {
	if timeout <= 0 {
		timeout = time.Minute
	}
	done := make(chan []vo.VisitResult, 1)
	w.chanStart <- start{
		ctx:      ctx,
		viewport: viewport,
		routes:   routes,
		visitor:  visitor,
		timeout:  timeout,
		done:     done,
	}
	if errStart := <-w.chanErrStart; errStart != nil {
		return nil, errStart
	}
	return <-done, nil
}

// GetStatus snapshot of the current walk
func (w *Walker) GetStatus() vo.Status {
	chanReply := make(chan vo.Status, 1)
	w.chanStatus <- chanReply
	return <-chanReply
}
