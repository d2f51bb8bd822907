package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/foomo/auditwalker/driver"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// IdleTime without requests that counts as network idle
const IdleTime = 500 * time.Millisecond

// Page adapts a rod page to driver.Page
type Page struct {
	page   *rod.Page
	logger *slog.Logger
	cancel context.CancelFunc

	mu        sync.Mutex
	console   []func(driver.ConsoleMessage)
	pageError []func(string)
	response  []func(driver.Response)
	// idle armed by Navigate and Click, consumed by WaitNetworkIdle
	idle *idleWait
}

type idleWait struct {
	ctx    context.Context
	cancel context.CancelFunc
	wait   func()
}

var _ driver.Page = &Page{}

func newPage(rp *rod.Page, logger *slog.Logger) *Page {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Page{
		page:   rp,
		logger: logger,
		cancel: cancel,
	}
	p.listen(ctx)
	return p
}

func (p *Page) listen(ctx context.Context) {
	rp := p.page.Context(ctx)
	for _, enable := range []interface{ Call(proto.Client) error }{
		proto.RuntimeEnable{},
		proto.NetworkEnable{},
		proto.LogEnable{},
	} {
		if err := enable.Call(rp); err != nil {
			p.logger.Warn("browser: enable domain", "error", err)
		}
	}
	wait := rp.EachEvent(func(e *proto.RuntimeConsoleAPICalled) {
		p.emitConsole(driver.ConsoleMessage{Type: string(e.Type), Text: consoleText(e.Args)})
	}, func(e *proto.RuntimeExceptionThrown) {
		p.emitPageError(exceptionText(e.ExceptionDetails))
	}, func(e *proto.NetworkResponseReceived) {
		if e.Response != nil {
			p.emitResponse(driver.Response{URL: e.Response.URL, Status: e.Response.Status})
		}
	}, func(e *proto.LogEntryAdded) {
		// network failures arrive as responses
		if e.Entry == nil || e.Entry.Source == proto.LogLogEntrySourceNetwork {
			return
		}
		if e.Entry.Level == proto.LogLogEntryLevelError {
			p.emitConsole(driver.ConsoleMessage{Type: "error", Text: e.Entry.Text})
		}
	})
	go wait()
}

func consoleText(args []*proto.RuntimeRemoteObject) string {
	parts := []string{}
	for _, arg := range args {
		switch {
		case !arg.Value.Nil():
			parts = append(parts, arg.Value.Str())
		case arg.Description != "":
			parts = append(parts, arg.Description)
		}
	}
	return strings.Join(parts, " ")
}

func exceptionText(details *proto.RuntimeExceptionDetails) string {
	if details == nil {
		return ""
	}
	if details.Exception != nil && details.Exception.Description != "" {
		return details.Exception.Description
	}
	return details.Text
}

func (p *Page) OnConsole(f func(driver.ConsoleMessage)) {
	p.mu.Lock()
	p.console = append(p.console, f)
	p.mu.Unlock()
}

func (p *Page) OnPageError(f func(string)) {
	p.mu.Lock()
	p.pageError = append(p.pageError, f)
	p.mu.Unlock()
}

func (p *Page) OnResponse(f func(driver.Response)) {
	p.mu.Lock()
	p.response = append(p.response, f)
	p.mu.Unlock()
}

func (p *Page) emitConsole(msg driver.ConsoleMessage) {
	p.mu.Lock()
	observers := append([]func(driver.ConsoleMessage){}, p.console...)
	p.mu.Unlock()
	for _, f := range observers {
		f(msg)
	}
}

func (p *Page) emitPageError(message string) {
	p.mu.Lock()
	observers := append([]func(string){}, p.pageError...)
	p.mu.Unlock()
	for _, f := range observers {
		f(message)
	}
}

func (p *Page) emitResponse(resp driver.Response) {
	p.mu.Lock()
	observers := append([]func(driver.Response){}, p.response...)
	p.mu.Unlock()
	for _, f := range observers {
		f(resp)
	}
}

// armIdle starts counting requests before the action that triggers them,
// requests the page issues right after a navigation or click are waited for
func (p *Page) armIdle(ctx context.Context) {
	idleCtx, cancel := context.WithCancel(ctx)
	armed := &idleWait{
		ctx:    idleCtx,
		cancel: cancel,
		wait:   p.page.Context(idleCtx).WaitRequestIdle(IdleTime, nil, nil, nil),
	}
	p.mu.Lock()
	previous := p.idle
	p.idle = armed
	p.mu.Unlock()
	if previous != nil {
		previous.cancel()
	}
}

func (p *Page) takeIdle() *idleWait {
	p.mu.Lock()
	defer p.mu.Unlock()
	armed := p.idle
	p.idle = nil
	return armed
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	p.armIdle(ctx)
	if err := p.page.Context(ctx).Navigate(url); err != nil {
		if armed := p.takeIdle(); armed != nil {
			armed.cancel()
		}
		return fmt.Errorf("browser: navigate %s: %w", url, err)
	}
	return nil
}

// WaitNetworkIdle waits on the requests counted since the last Navigate or
// Click, without one it starts counting now
func (p *Page) WaitNetworkIdle(ctx context.Context, timeout time.Duration) error {
	armed := p.takeIdle()
	if armed == nil {
		p.armIdle(ctx)
		armed = p.takeIdle()
	}
	defer armed.cancel()
	done := make(chan struct{})
	go func() {
		armed.wait()
		close(done)
	}()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		return armed.ctx.Err()
	case <-timer.C:
		return context.DeadlineExceeded
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Page) WaitLoad(ctx context.Context) error {
	return p.page.Context(ctx).WaitLoad()
}

func (p *Page) Eval(ctx context.Context, js string, v interface{}) error {
	res, err := p.page.Context(ctx).Eval(js)
	if err != nil {
		return fmt.Errorf("browser: eval: %w", err)
	}
	if errUnmarshal := json.Unmarshal([]byte(res.Value.Str()), v); errUnmarshal != nil {
		return fmt.Errorf("browser: eval result: %w", errUnmarshal)
	}
	return nil
}

func (p *Page) Count(ctx context.Context, selector string) (int, error) {
	elements, err := p.page.Context(ctx).Elements(selector)
	if err != nil {
		return 0, err
	}
	return len(elements), nil
}

func (p *Page) element(ctx context.Context, selector string) (*rod.Element, error) {
	has, el, err := p.page.Context(ctx).Has(selector)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, driver.ErrNotFound
	}
	return el, nil
}

func (p *Page) Visible(ctx context.Context, selector string) (bool, error) {
	el, err := p.element(ctx, selector)
	if errors.Is(err, driver.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return el.Visible()
}

func (p *Page) Click(ctx context.Context, selector string) error {
	el, err := p.element(ctx, selector)
	if err != nil {
		return err
	}
	p.armIdle(ctx)
	if errClick := el.Click(proto.InputMouseButtonLeft, 1); errClick != nil {
		return fmt.Errorf("browser: click %s: %w", selector, errClick)
	}
	return nil
}

func (p *Page) Screenshot(ctx context.Context) ([]byte, error) {
	return p.page.Context(ctx).Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
}

func (p *Page) Close() error {
	if armed := p.takeIdle(); armed != nil {
		armed.cancel()
	}
	p.cancel()
	return p.page.Close()
}
