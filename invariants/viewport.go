package invariants

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/foomo/auditwalker/vo"
)

// MinTouchTarget css pixels per side
const MinTouchTarget = 44

var mobileInvariants = []Invariant{
	{Name: "no-horizontal-overflow", Category: CategoryMobile, Severity: vo.SeverityBlocking, Check: checkHorizontalOverflow},
	{Name: "touch-target-size", Category: CategoryMobile, Severity: vo.SeverityAdvisory, Check: checkTouchTargets},
	{Name: "content-fits-viewport", Category: CategoryMobile, Severity: vo.SeverityBlocking, Check: checkContentWidth},
}

var desktopInvariants = []Invariant{
	{Name: "primary-nav-visible", Category: CategoryDesktop, Severity: vo.SeverityAdvisory, Check: checkPrimaryNav},
}

// sub pixel rounding
const widthTolerance = 1

func checkHorizontalOverflow(doc *Document, route string) error {
	if doc.ViewportWidth == 0 {
		return nil
	}
	if doc.ScrollWidth > doc.ViewportWidth+widthTolerance {
		return failf("page scrolls horizontally: document is %dpx wide in a %dpx viewport", doc.ScrollWidth, doc.ViewportWidth)
	}
	return nil
}

func checkContentWidth(doc *Document, route string) error {
	if doc.ViewportWidth == 0 {
		return nil
	}
	if doc.ContentWidth > doc.ViewportWidth+widthTolerance {
		return failf("content is %dpx wide in a %dpx viewport", doc.ContentWidth, doc.ViewportWidth)
	}
	return nil
}

func checkTouchTargets(doc *Document, route string) error {
	small := []string{}
	doc.Visible(interactiveSelector).Each(func(i int, s *goquery.Selection) {
		w, h, ok := Size(s)
		if !ok || w == 0 || h == 0 {
			return
		}
		if w < MinTouchTarget || h < MinTouchTarget {
			small = append(small, fmt.Sprintf("%dx%d %s", w, h, describe(s)))
		}
	})
	if len(small) > 0 {
		return fail(fmt.Sprintf("%d touch targets smaller than %dx%d", len(small), MinTouchTarget, MinTouchTarget), limit(small, 5)...)
	}
	return nil
}

func checkPrimaryNav(doc *Document, route string) error {
	if !strings.HasPrefix(route, vo.AuthPrefix) {
		return nil
	}
	if doc.Visible(`[data-singleton="primary-nav"]`).Length() == 0 {
		return failf("primary navigation is not visible")
	}
	return nil
}
