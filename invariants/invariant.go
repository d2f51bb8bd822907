// Package invariants is the rule engine: named checks over an annotated
// snapshot of the live DOM, grouped by category and severity.
package invariants

import (
	"fmt"
	"strings"

	"github.com/foomo/auditwalker/vo"
)

type Category string

const (
	CategoryGlobal   Category = "global"
	CategoryMobile   Category = "mobile"
	CategoryDesktop  Category = "desktop"
	CategoryProduct  Category = "product"
	CategoryRecipes  Category = "recipes"
	CategorySettings Category = "settings"
	CategoryAdmin    Category = "admin"
)

// Invariant a named check, Check returns nil or a *Finding
type Invariant struct {
	Name     string
	Category Category
	Severity vo.Severity
	Check    func(doc *Document, route string) error
}

// Finding what a check observed
type Finding struct {
	Message  string
	Evidence []string
}

func (f *Finding) Error() string {
	if len(f.Evidence) == 0 {
		return f.Message
	}
	return f.Message + ": " + strings.Join(f.Evidence, ", ")
}

func fail(message string, evidence ...string) error {
	return &Finding{Message: message, Evidence: evidence}
}

func failf(format string, a ...interface{}) error {
	return &Finding{Message: fmt.Sprintf(format, a...)}
}

// Invariants of a category in evaluation order
func Invariants(c Category) []Invariant {
	var list []Invariant
	switch c {
	case CategoryGlobal:
		list = globalInvariants
	case CategoryMobile:
		list = mobileInvariants
	case CategoryDesktop:
		list = desktopInvariants
	case CategoryProduct:
		list = productInvariants
	case CategoryRecipes:
		list = recipesInvariants
	case CategorySettings:
		list = settingsInvariants
	case CategoryAdmin:
		list = adminInvariants
	}
	return append([]Invariant{}, list...)
}

// Violations blocking violations as one error
type Violations []vo.Violation

func (vs Violations) Error() string {
	lines := make([]string, len(vs))
	for i := range vs {
		lines[i] = vs[i].Error()
	}
	return strings.Join(lines, "\n")
}

type Result struct {
	Blocking  []vo.Violation
	Advisory  []vo.Violation
	Structure vo.Structure
}

func (r *Result) merge(other Result) {
	r.Blocking = append(r.Blocking, other.Blocking...)
	r.Advisory = append(r.Advisory, other.Advisory...)
}

// Err nil unless there is a blocking violation
func (r Result) Err() error {
	if len(r.Blocking) == 0 {
		return nil
	}
	return Violations(r.Blocking)
}

// RunCategory evaluates every invariant of a category, a failing check does
// not stop the others
func RunCategory(doc *Document, route string, c Category, tab string) (r Result) {
	for _, inv := range Invariants(c) {
		err := inv.Check(doc, route)
		if err == nil {
			continue
		}
		v := vo.Violation{
			Route:    route,
			Check:    inv.Name,
			Category: string(inv.Category),
			Severity: inv.Severity,
			Tab:      tab,
		}
		if finding, ok := err.(*Finding); ok {
			v.Message = finding.Message
			v.Evidence = finding.Evidence
		} else {
			v.Message = err.Error()
		}
		switch inv.Severity {
		case vo.SeverityAdvisory:
			r.Advisory = append(r.Advisory, v)
		default:
			r.Blocking = append(r.Blocking, v)
		}
	}
	return r
}

func CheckGlobal(doc *Document, route string) error {
	return RunCategory(doc, route, CategoryGlobal, "").Err()
}

func CheckMobile(doc *Document, route string) error {
	return RunCategory(doc, route, CategoryMobile, "").Err()
}

func CheckDesktop(doc *Document, route string) error {
	return RunCategory(doc, route, CategoryDesktop, "").Err()
}

func CheckProduct(doc *Document, route string) error {
	return RunCategory(doc, route, CategoryProduct, "").Err()
}

func CheckRecipes(doc *Document, route string) error {
	return RunCategory(doc, route, CategoryRecipes, "").Err()
}

func CheckSettings(doc *Document, route string) error {
	return RunCategory(doc, route, CategorySettings, "").Err()
}

func CheckAdmin(doc *Document, route string) error {
	return RunCategory(doc, route, CategoryAdmin, "").Err()
}

// limit evidence lists
func limit(values []string, max int) []string {
	if len(values) <= max {
		return values
	}
	return append(values[:max:max], fmt.Sprintf("... %d more", len(values)-max))
}

// unique keeps the first occurrence
func unique(values []string) []string {
	seen := map[string]bool{}
	u := []string{}
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			u = append(u, v)
		}
	}
	return u
}
