package vo

import "strings"

// Tag marks audit mode membership of a route
type Tag string

const (
	TagSmoke      Tag = "smoke"
	TagFull       Tag = "full"
	TagLighthouse Tag = "lighthouse"
)

type ViewportRestriction string

const (
	ViewportAny         ViewportRestriction = ""
	ViewportMobileOnly  ViewportRestriction = "mobile-only"
	ViewportDesktopOnly ViewportRestriction = "desktop-only"
)

// AuthPrefix every route requiring a session lives under
const AuthPrefix = "/app/"

type RouteEntry struct {
	// Path may carry a query string and {fixture} placeholders
	Path         string
	Label        string
	RequiresAuth bool
	// HasTabs tab identifiers in click order
	HasTabs  []string
	Tags     []Tag
	Viewport ViewportRestriction
}

func (r RouteEntry) HasTag(tag Tag) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// PathOnly strips the query string
func (r RouteEntry) PathOnly() string {
	if i := strings.IndexAny(r.Path, "?#"); i > -1 {
		return r.Path[:i]
	}
	return r.Path
}

func (r RouteEntry) AllowsViewport(v Viewport) bool {
	switch r.Viewport {
	case ViewportMobileOnly:
		return v.Mobile
	case ViewportDesktopOnly:
		return !v.Mobile
	}
	return true
}

type Viewport struct {
	Name   string
	Width  int
	Height int
	Mobile bool
}

var (
	ViewportMobile  = Viewport{Name: "mobile", Width: 390, Height: 844, Mobile: true}
	ViewportDesktop = Viewport{Name: "desktop", Width: 1440, Height: 900}
)

func GetViewport(name string) (v Viewport, ok bool) {
	switch name {
	case ViewportMobile.Name:
		return ViewportMobile, true
	case ViewportDesktop.Name:
		return ViewportDesktop, true
	}
	return Viewport{}, false
}

// AuditOptions select the invariant categories for one pass over a page
type AuditOptions struct {
	IsMobile       bool
	IsProductPage  bool
	IsRecipesPage  bool
	IsSettingsPage bool
	IsAdminPage    bool
	RequiresAuth   bool
	// Tab is set while auditing the content of a clicked tab
	Tab string
}
