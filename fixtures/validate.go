package fixtures

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
)

type Check struct {
	Name string
	Path string
}

// Doer is satisfied by *http.Client
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewClient for out of band requests, independent of page rendering
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: 5 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout: 5 * time.Second,
		},
	}
}

type Failure struct {
	Check
	URL    string
	Status int
	Err    error
}

func (f Failure) observed() string {
	if f.Err != nil {
		return "request failed: " + f.Err.Error()
	}
	return fmt.Sprint("HTTP ", f.Status)
}

// ValidationError lists every broken fixture of one validation run
type ValidationError struct {
	Failures []Failure
}

func (e *ValidationError) Error() string {
	lines := []string{fmt.Sprintf("fixtures: %d of the audit fixtures are unreachable:", len(e.Failures))}
	for _, f := range e.Failures {
		env := ""
		if d, ok := lookupDefault(f.Name); ok {
			env = d.Env
		}
		lines = append(lines,
			fmt.Sprintf("  - %s: %s -> %s", f.Name, f.Path, f.observed()),
			fmt.Sprintf("    override with %s=<value> or fix the default in %s", env, SourceLocation),
		)
	}
	return strings.Join(lines, "\n")
}

// Validate requests the canonical path of every check and reports all broken
// fixtures in one error
func Validate(ctx context.Context, client Doer, baseURL, agent string, checks []Check, set Set) error {
	failures := []Failure{}
	for _, check := range checks {
		failure := Failure{Check: check}
		path, errInject := set.Inject(check.Path)
		if errInject != nil {
			failure.Err = errInject
			failures = append(failures, failure)
			continue
		}
		check.Path = path
		failure.Check = check
		failure.URL = strings.TrimSuffix(baseURL, "/") + path
		status, errGet := get(ctx, client, failure.URL, agent)
		failure.Status = status
		failure.Err = errGet
		if errGet != nil || status >= http.StatusBadRequest {
			failures = append(failures, failure)
		}
	}
	if len(failures) > 0 {
		return &ValidationError{Failures: failures}
	}
	return nil
}

func get(ctx context.Context, client Doer, url, agent string) (status int, err error) {
	req, errRequest := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if errRequest != nil {
		return 0, errRequest
	}
	if agent != "" {
		req.Header.Set("User-Agent", agent)
	}
	resp, errDo := client.Do(req)
	if errDo != nil {
		return 0, errDo
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}
