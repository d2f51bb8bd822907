// Package manifest is the single source of truth for what gets audited.
package manifest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/foomo/auditwalker/vo"
)

var (
	smoke      = []vo.Tag{vo.TagSmoke, vo.TagFull}
	smokeLH    = []vo.Tag{vo.TagSmoke, vo.TagFull, vo.TagLighthouse}
	full       = []vo.Tag{vo.TagFull}
	fullLH     = []vo.Tag{vo.TagFull, vo.TagLighthouse}
	productTab = []string{"overview", "nutrition", "ingredients", "alternatives"}
)

var routes = []vo.RouteEntry{
	// public
	{Path: "/", Label: "home", Tags: smokeLH},
	{Path: "/search", Label: "search", Tags: smoke},
	{Path: "/search?q=yogurt", Label: "search-results", Tags: full},
	{Path: "/categories", Label: "categories", Tags: smoke},
	{Path: "/category/{categorySlug}", Label: "category", Tags: fullLH},
	{Path: "/product/{productId}", Label: "product", HasTabs: productTab, Tags: smokeLH},
	{Path: "/compare?ids={compareIds}", Label: "compare", Tags: full},
	{Path: "/scan", Label: "scan", Tags: full, Viewport: vo.ViewportMobileOnly},
	{Path: "/scan/result/{productEan}", Label: "scan-result", Tags: full, Viewport: vo.ViewportMobileOnly},
	{Path: "/recipes", Label: "recipes", Tags: smoke},
	{Path: "/recipes/{recipeSlug}", Label: "recipe", Tags: full},
	{Path: "/learn", Label: "learn", Tags: fullLH},
	{Path: "/learn/nutri-score", Label: "learn-nutri-score", Tags: full},
	{Path: "/learn/nova", Label: "learn-nova", Tags: full},
	{Path: "/learn/additives", Label: "learn-additives", Tags: full},
	{Path: "/learn/data-quality", Label: "learn-data-quality", Tags: full},
	{Path: "/about", Label: "about", Tags: full},
	{Path: "/privacy", Label: "privacy", Tags: full},
	{Path: "/terms", Label: "terms", Tags: full},
	{Path: "/contact", Label: "contact", Tags: full},
	{Path: "/auth/login", Label: "login", Tags: smoke},
	{Path: "/auth/signup", Label: "signup", Tags: full},
	{Path: "/auth/reset-password", Label: "reset-password", Tags: full},
	// authenticated
	{Path: "/app/dashboard", Label: "dashboard", RequiresAuth: true, Tags: smoke},
	{Path: "/app/lists", Label: "lists", RequiresAuth: true, Tags: full},
	{Path: "/app/history", Label: "history", RequiresAuth: true, Tags: full},
	{Path: "/app/product/{productId}", Label: "app-product", RequiresAuth: true, HasTabs: productTab, Tags: full},
	{Path: "/app/settings", Label: "settings", RequiresAuth: true, HasTabs: []string{"account", "health", "preferences"}, Tags: smoke},
	{Path: "/app/admin", Label: "admin", RequiresAuth: true, Tags: full, Viewport: vo.ViewportDesktopOnly},
	{Path: "/app/admin/submissions", Label: "admin-submissions", RequiresAuth: true, HasTabs: []string{"pending", "approved", "rejected"}, Tags: full, Viewport: vo.ViewportDesktopOnly},
	{Path: "/app/admin/monitoring", Label: "admin-monitoring", RequiresAuth: true, Tags: full, Viewport: vo.ViewportDesktopOnly},
}

// Routes copy of the complete manifest
func Routes() []vo.RouteEntry {
	c := make([]vo.RouteEntry, len(routes))
	copy(c, routes)
	return c
}

// GetRoutes all routes tagged with the given audit mode
func GetRoutes(mode vo.Tag) []vo.RouteEntry {
	return filter(routes, func(r vo.RouteEntry) bool { return r.HasTag(mode) })
}

func GetLighthouseRoutes() []vo.RouteEntry {
	return GetRoutes(vo.TagLighthouse)
}

// ForViewport drops routes restricted to another viewport
func ForViewport(routeList []vo.RouteEntry, viewport vo.Viewport) []vo.RouteEntry {
	return filter(routeList, func(r vo.RouteEntry) bool { return r.AllowsViewport(viewport) })
}

func filter(routeList []vo.RouteEntry, keep func(vo.RouteEntry) bool) []vo.RouteEntry {
	filtered := []vo.RouteEntry{}
	for _, r := range routeList {
		if keep(r) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// ParseMode audit modes are smoke and full
func ParseMode(mode string) (vo.Tag, error) {
	switch vo.Tag(strings.ToLower(strings.TrimSpace(mode))) {
	case vo.TagSmoke, "":
		return vo.TagSmoke, nil
	case vo.TagFull:
		return vo.TagFull, nil
	}
	return "", fmt.Errorf("manifest: unknown audit mode %q, use %q or %q", mode, vo.TagSmoke, vo.TagFull)
}

// Validate returns every manifest problem at once
func Validate(routeList []vo.RouteEntry) error {
	errs := []error{}
	paths := map[string]bool{}
	labels := map[string]bool{}
	for _, r := range routeList {
		if r.Label == "" || r.Path == "" {
			errs = append(errs, fmt.Errorf("route %q %q: label and path are required", r.Label, r.Path))
		}
		if paths[r.Path] {
			errs = append(errs, fmt.Errorf("duplicate path %q", r.Path))
		}
		paths[r.Path] = true
		if labels[r.Label] {
			errs = append(errs, fmt.Errorf("duplicate label %q", r.Label))
		}
		labels[r.Label] = true
		if r.RequiresAuth && !strings.HasPrefix(r.Path, vo.AuthPrefix) {
			errs = append(errs, fmt.Errorf("route %q requires auth, but %q is not under %q", r.Label, r.Path, vo.AuthPrefix))
		}
		if r.HasTag(vo.TagSmoke) && !r.HasTag(vo.TagFull) {
			errs = append(errs, fmt.Errorf("smoke route %q is not tagged %q", r.Label, vo.TagFull))
		}
		if len(r.Tags) == 0 {
			errs = append(errs, fmt.Errorf("route %q has no audit mode", r.Label))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("manifest: %w", errors.Join(errs...))
	}
	return nil
}
