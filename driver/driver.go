// Package driver is the capability interface of the browser automation
// driver the audit runs against.
package driver

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Click when no element matches
var ErrNotFound = errors.New("driver: element not found")

type ConsoleMessage struct {
	// Type console level like "error", "warning", "log"
	Type string
	Text string
}

type Response struct {
	URL    string
	Status int
}

// Events observers are called from driver goroutines
type Events interface {
	OnConsole(func(ConsoleMessage))
	OnPageError(func(message string))
	OnResponse(func(Response))
}

type Navigator interface {
	Navigate(ctx context.Context, url string) error
	// WaitNetworkIdle returns context.DeadlineExceeded if the network did
	// not go idle within timeout. Requests count from the start of the last
	// Navigate or Click.
	WaitNetworkIdle(ctx context.Context, timeout time.Duration) error
	// WaitLoad waits for the initial load of the current document
	WaitLoad(ctx context.Context) error
}

type Evaluator interface {
	// Eval runs js, a function expression returning a JSON string, and
	// unmarshals the result into v
	Eval(ctx context.Context, js string, v interface{}) error
}

type Querier interface {
	Count(ctx context.Context, selector string) (int, error)
	Visible(ctx context.Context, selector string) (bool, error)
	Click(ctx context.Context, selector string) error
}

type Screenshotter interface {
	// Screenshot full page png
	Screenshot(ctx context.Context) ([]byte, error)
}

type Page interface {
	Events
	Navigator
	Evaluator
	Querier
	Screenshotter
	Close() error
}
