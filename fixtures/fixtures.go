// Package fixtures stable, overridable identifiers the audited routes are
// built from, so an audit run does not depend on production data
// coincidences.
package fixtures

import (
	"fmt"
	"regexp"
	"sort"
)

// SourceLocation of the baked in defaults, named in validation hints
const SourceLocation = "fixtures/fixtures.go"

const (
	ProductID    = "productId"
	ProductEAN   = "productEan"
	CategorySlug = "categorySlug"
	RecipeSlug   = "recipeSlug"
	CompareIDs   = "compareIds"
)

type Fixture struct {
	Name    string
	Env     string
	Default string
	// Path canonical page of the fixture, used by the pre-flight validator
	Path string
}

var defaults = []Fixture{
	{Name: ProductID, Env: "AUDIT_FIXTURE_PRODUCT_ID", Default: "2001", Path: "/product/{productId}"},
	{Name: ProductEAN, Env: "AUDIT_FIXTURE_PRODUCT_EAN", Default: "5900259000002", Path: "/scan/result/{productEan}"},
	{Name: CategorySlug, Env: "AUDIT_FIXTURE_CATEGORY_SLUG", Default: "dairy", Path: "/category/{categorySlug}"},
	{Name: RecipeSlug, Env: "AUDIT_FIXTURE_RECIPE_SLUG", Default: "overnight-oats", Path: "/recipes/{recipeSlug}"},
	{Name: CompareIDs, Env: "AUDIT_FIXTURE_COMPARE_IDS", Default: "2001,2002", Path: "/compare?ids={compareIds}"},
}

// Defaults all known fixtures
func Defaults() []Fixture {
	return append([]Fixture{}, defaults...)
}

func lookupDefault(name string) (f Fixture, ok bool) {
	for _, f := range defaults {
		if f.Name == name {
			return f, true
		}
	}
	return Fixture{}, false
}

type Registry struct {
	overrides map[string]string
}

// NewRegistry overrides usually come from the environment via config
func NewRegistry(overrides map[string]string) *Registry {
	o := make(map[string]string, len(overrides))
	for name, value := range overrides {
		o[name] = value
	}
	return &Registry{overrides: o}
}

func (r *Registry) Resolve(name string) (string, error) {
	if v, ok := r.overrides[name]; ok && v != "" {
		return v, nil
	}
	f, ok := lookupDefault(name)
	if !ok {
		return "", fmt.Errorf("fixtures: unknown fixture %q", name)
	}
	return f.Default, nil
}

// Set resolves every fixture once, values stay stable for the whole run
func (r *Registry) Set() Set {
	s := Set{}
	for _, f := range defaults {
		v, _ := r.Resolve(f.Name)
		s[f.Name] = v
	}
	return s
}

// Checks pre-flight checks for every fixture
func (r *Registry) Checks() []Check {
	checks := make([]Check, len(defaults))
	for i, f := range defaults {
		checks[i] = Check{Name: f.Name, Path: f.Path}
	}
	return checks
}

// Set resolved fixture values by name
type Set map[string]string

var placeholderRegex = regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)

// Inject replaces {name} placeholders in a route path
func (s Set) Inject(path string) (string, error) {
	missing := []string{}
	injected := placeholderRegex.ReplaceAllStringFunc(path, func(m string) string {
		name := m[1 : len(m)-1]
		v, ok := s[name]
		if !ok {
			missing = append(missing, name)
			return m
		}
		return v
	})
	if len(missing) > 0 {
		sort.Strings(missing)
		return "", fmt.Errorf("fixtures: unresolved placeholders %v in %q", missing, path)
	}
	return injected, nil
}
