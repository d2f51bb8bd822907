package vo

import "time"

type VisitResult struct {
	Label         string
	Path          string
	URL           string
	Viewport      string
	Violations    []Violation
	Advisories    []Violation
	ConsoleErrors []string
	PageErrors    []string
	NetworkErrors []NetworkError
	Screenshots   []string
	Structure     Structure
	// Skipped carries the reason, when the route was not visited
	Skipped  string
	Error    string
	Duration time.Duration
	Time     time.Time
}

// Failed a skipped visit never fails
func (r VisitResult) Failed() bool {
	if r.Skipped != "" {
		return false
	}
	return r.Error != "" ||
		len(r.Violations) > 0 ||
		len(r.ConsoleErrors) > 0 ||
		len(r.PageErrors) > 0 ||
		len(r.NetworkErrors) > 0
}

// visit outcomes
const (
	OutcomePass    = "pass"
	OutcomeFail    = "fail"
	OutcomeSkipped = "skipped"
	OutcomeError   = "error"
)

// Outcome error means the audit itself could not complete
func (r VisitResult) Outcome() string {
	switch {
	case r.Skipped != "":
		return OutcomeSkipped
	case r.Error != "":
		return OutcomeError
	case r.Failed():
		return OutcomeFail
	}
	return OutcomePass
}

// Key of a visit in a status
func (r VisitResult) Key() string {
	return ResultKey(r.Viewport, r.Label)
}

func ResultKey(viewport, label string) string {
	return viewport + "/" + label
}
