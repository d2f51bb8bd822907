package invariants

import (
	"context"
	"regexp"
	"strings"

	"github.com/foomo/auditwalker/driver"
	"github.com/foomo/auditwalker/vo"
)

var (
	productPathRegex = regexp.MustCompile(`^(/app)?/product/[^/]+$`)
	scanResultRegex  = regexp.MustCompile(`^/scan/result/[^/]+$`)
)

// OptionsFor classifies a route, placeholders in route.Path do not matter
func OptionsFor(route vo.RouteEntry, viewport vo.Viewport) vo.AuditOptions {
	path := route.PathOnly()
	return vo.AuditOptions{
		IsMobile:       viewport.Mobile,
		IsProductPage:  productPathRegex.MatchString(path) || scanResultRegex.MatchString(path),
		IsRecipesPage:  strings.HasPrefix(path, "/recipes"),
		IsSettingsPage: path == "/app/settings",
		IsAdminPage:    strings.HasPrefix(path, "/app/admin"),
		RequiresAuth:   route.RequiresAuth,
	}
}

// Categories in evaluation order for the given options
func Categories(options vo.AuditOptions) []Category {
	categories := []Category{CategoryGlobal}
	if options.IsMobile {
		categories = append(categories, CategoryMobile)
	} else {
		categories = append(categories, CategoryDesktop)
	}
	if options.IsProductPage {
		categories = append(categories, CategoryProduct)
	}
	if options.IsRecipesPage {
		categories = append(categories, CategoryRecipes)
	}
	if options.IsSettingsPage {
		categories = append(categories, CategorySettings)
	}
	if options.IsAdminPage {
		categories = append(categories, CategoryAdmin)
	}
	return categories
}

// Run every applicable category against doc
func Run(doc *Document, route string, options vo.AuditOptions) (r Result) {
	for _, c := range Categories(options) {
		r.merge(RunCategory(doc, route, c, options.Tab))
	}
	return r
}

// RunInvariantsForRoute snapshots the page and runs all applicable
// categories, the error is a Violations error iff a blocking check failed
func RunInvariantsForRoute(ctx context.Context, page driver.Evaluator, route string, options vo.AuditOptions) (Result, error) {
	doc, err := Snapshot(ctx, page)
	if err != nil {
		return Result{}, err
	}
	r := Run(doc, route, options)
	r.Structure = doc.Structure()
	return r, r.Err()
}
