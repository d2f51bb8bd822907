package invariants

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/foomo/auditwalker/vo"
)

var productInvariants = []Invariant{
	{Name: "single-tablist", Category: CategoryProduct, Severity: vo.SeverityBlocking, Check: checkSingleTablist},
	{Name: "single-score-explanation", Category: CategoryProduct, Severity: vo.SeverityBlocking, Check: maxCount("score explanation panel", `[data-panel="score-explanation"]`, 1)},
	{Name: "single-health-warnings", Category: CategoryProduct, Severity: vo.SeverityBlocking, Check: maxCount("health warnings panel", `[data-panel="health-warnings"]`, 1)},
	{Name: "pluralization", Category: CategoryProduct, Severity: vo.SeverityBlocking, Check: checkPluralization},
	{Name: "no-duplicate-headings", Category: CategoryProduct, Severity: vo.SeverityBlocking, Check: checkDuplicateHeadings},
	{Name: "primary-image-alt", Category: CategoryProduct, Severity: vo.SeverityBlocking, Check: checkPrimaryImageAlt},
}

func checkSingleTablist(doc *Document, route string) error {
	if count := doc.Find(`[role="tablist"]`).Length(); count != 1 {
		return failf("tab list: found %d, expected exactly 1", count)
	}
	return nil
}

func maxCount(name, selector string, max int) func(doc *Document, route string) error {
	return func(doc *Document, route string) error {
		if count := doc.Find(selector).Length(); count > max {
			return failf("%s: found %d, expected at most %d", name, count, max)
		}
		return nil
	}
}

var pluralRegex = regexp.MustCompile(`(?i)(?:^|[^\d.,])(1\s+(?:ingredients|alternatives|products|categories|items|results))\b`)

func checkPluralization(doc *Document, route string) error {
	found := []string{}
	for _, m := range pluralRegex.FindAllStringSubmatch(doc.VisibleText(), -1) {
		found = append(found, m[1])
	}
	if len(found) > 0 {
		return fail("singular count with plural noun", limit(unique(found), 5)...)
	}
	return nil
}

func checkDuplicateHeadings(doc *Document, route string) error {
	seen := map[string]int{}
	duplicates := []string{}
	doc.Visible("h2").Each(func(i int, s *goquery.Selection) {
		text := strings.ToLower(Text(s))
		if text == "" {
			return
		}
		seen[text]++
		if seen[text] == 2 {
			duplicates = append(duplicates, Text(s))
		}
	})
	if len(duplicates) > 0 {
		return fail(fmt.Sprintf("%d section headings rendered twice", len(duplicates)), duplicates...)
	}
	return nil
}

var genericAlt = map[string]bool{
	"":              true,
	"image":         true,
	"img":           true,
	"product":       true,
	"product image": true,
	"photo":         true,
	"picture":       true,
}

func checkPrimaryImageAlt(doc *Document, route string) error {
	img := doc.Find(`img[data-product-image="primary"]`).First()
	if img.Length() == 0 {
		return nil
	}
	alt, _ := img.Attr("alt")
	if genericAlt[strings.ToLower(strings.TrimSpace(alt))] {
		return fail("primary product image has a generic alt text", fmt.Sprintf("alt=%q", alt))
	}
	return nil
}
