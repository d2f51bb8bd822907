// Package drivertest scripted pages for tests
package drivertest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/foomo/auditwalker/driver"
)

// Page is a scripted driver.Page. Eval answers with EvalResult, Navigate
// runs OnNavigate, so tests can emit events during a visit.
type Page struct {
	mu sync.Mutex

	EvalResult     interface{}
	EvalErr        error
	NetworkIdleErr error
	Counts         map[string]int
	VisibleSel     map[string]bool
	Shot           []byte

	OnNavigate func(p *Page, url string)
	OnClick    func(p *Page, selector string)

	Calls  []string
	Closed bool

	console   []func(driver.ConsoleMessage)
	pageError []func(string)
	response  []func(driver.Response)
}

var _ driver.Page = &Page{}

func NewPage() *Page {
	return &Page{
		Counts:     map[string]int{},
		VisibleSel: map[string]bool{},
		Shot:       []byte("png"),
	}
}

func (p *Page) call(format string, a ...interface{}) {
	p.mu.Lock()
	p.Calls = append(p.Calls, fmt.Sprintf(format, a...))
	p.mu.Unlock()
}

// CallLog copy of all recorded calls
func (p *Page) CallLog() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string{}, p.Calls...)
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

func (p *Page) EmitConsole(msgType, text string) {
	p.mu.Lock()
	observers := append([]func(driver.ConsoleMessage){}, p.console...)
	p.mu.Unlock()
	for _, f := range observers {
		f(driver.ConsoleMessage{Type: msgType, Text: text})
	}
}

func (p *Page) EmitPageError(message string) {
	p.mu.Lock()
	observers := append([]func(string){}, p.pageError...)
	p.mu.Unlock()
	for _, f := range observers {
		f(message)
	}
}

func (p *Page) EmitResponse(url string, status int) {
	p.mu.Lock()
	observers := append([]func(driver.Response){}, p.response...)
	p.mu.Unlock()
	for _, f := range observers {
		f(driver.Response{URL: url, Status: status})
	}
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	p.call("navigate %s", url)
	if p.OnNavigate != nil {
		p.OnNavigate(p, url)
	}
	return nil
}

func (p *Page) WaitNetworkIdle(ctx context.Context, timeout time.Duration) error {
	p.call("network-idle %s", timeout)
	return p.NetworkIdleErr
}

func (p *Page) WaitLoad(ctx context.Context) error {
	p.call("load")
	return nil
}

func (p *Page) Eval(ctx context.Context, js string, v interface{}) error {
	p.call("eval")
	if p.EvalErr != nil {
		return p.EvalErr
	}
	jsonBytes, errMarshal := json.Marshal(p.EvalResult)
	if errMarshal != nil {
		return errMarshal
	}
	return json.Unmarshal(jsonBytes, v)
}

func (p *Page) Count(ctx context.Context, selector string) (int, error) {
	return p.Counts[selector], nil
}

func (p *Page) Visible(ctx context.Context, selector string) (bool, error) {
	return p.VisibleSel[selector], nil
}

func (p *Page) Click(ctx context.Context, selector string) error {
	if p.Counts[selector] == 0 {
		return driver.ErrNotFound
	}
	p.call("click %s", selector)
	if p.OnClick != nil {
		p.OnClick(p, selector)
	}
	return nil
}

func (p *Page) Screenshot(ctx context.Context) ([]byte, error) {
	p.call("screenshot")
	return p.Shot, nil
}

func (p *Page) Close() error {
	p.Closed = true
	return nil
}
