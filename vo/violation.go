package vo

import (
	"fmt"
	"strings"
)

// Severity of an invariant
type Severity string

const (
	// SeverityBlocking fails the route
	SeverityBlocking Severity = "blocking"
	// SeverityAdvisory is logged and reported, but does not fail the route
	SeverityAdvisory Severity = "advisory"
)

// Violation of an invariant on a route
type Violation struct {
	Route    string
	Check    string
	Category string
	Severity Severity
	Tab      string
	Message  string
	Evidence []string
}

func (v *Violation) Error() string {
	where := v.Route
	if v.Tab != "" {
		where += " [tab " + v.Tab + "]"
	}
	msg := fmt.Sprintf("%s: %s/%s: %s", where, v.Category, v.Check, v.Message)
	if len(v.Evidence) > 0 {
		msg += ": " + strings.Join(quoteAll(v.Evidence), ", ")
	}
	return msg
}

func quoteAll(values []string) []string {
	quoted := make([]string, len(values))
	for i, value := range values {
		quoted[i] = fmt.Sprintf("%q", value)
	}
	return quoted
}

type NetworkError struct {
	URL    string
	Status int
}

func (ne NetworkError) String() string {
	return fmt.Sprint(ne.Status, " ", ne.URL)
}
