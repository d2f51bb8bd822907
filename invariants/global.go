package invariants

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/foomo/auditwalker/vo"
	"github.com/google/uuid"
)

var globalInvariants = []Invariant{
	{Name: "no-raw-i18n-keys", Category: CategoryGlobal, Severity: vo.SeverityBlocking, Check: checkRawI18nKeys},
	{Name: "no-forbidden-placeholders", Category: CategoryGlobal, Severity: vo.SeverityBlocking, Check: checkForbiddenPlaceholders},
	{Name: "no-empty-interactive", Category: CategoryGlobal, Severity: vo.SeverityBlocking, Check: checkEmptyInteractive},
	{Name: "images-have-alt", Category: CategoryGlobal, Severity: vo.SeverityBlocking, Check: checkImageAlt},
	{Name: "no-zero-height-clickable", Category: CategoryGlobal, Severity: vo.SeverityBlocking, Check: checkZeroHeightClickable},
	{Name: "no-uuid-in-text", Category: CategoryGlobal, Severity: vo.SeverityBlocking, Check: checkUUIDs},
	{Name: "singletons", Category: CategoryGlobal, Severity: vo.SeverityBlocking, Check: checkSingletons},
	{Name: "no-coming-soon", Category: CategoryGlobal, Severity: vo.SeverityBlocking, Check: checkComingSoon},
	{Name: "viewport-meta", Category: CategoryGlobal, Severity: vo.SeverityBlocking, Check: checkViewportMeta},
	{Name: "html-lang", Category: CategoryGlobal, Severity: vo.SeverityBlocking, Check: checkHTMLLang},
	{Name: "inputs-labelled", Category: CategoryGlobal, Severity: vo.SeverityBlocking, Check: checkInputLabels},
}

// i18nKeyRegex dotted identifiers, the prefix class keeps mail addresses,
// url paths and hyphenated hosts out
var i18nKeyRegex = regexp.MustCompile(`(?:^|[^\w./@:-])([a-z][a-zA-Z0-9_]*(?:\.[a-z][a-zA-Z0-9_]*)+)`)

// i18nNamespaces of the app dictionaries, a single dot key only counts in one
// of these
var i18nNamespaces = map[string]bool{
	"common": true, "nav": true, "home": true, "search": true, "product": true,
	"products": true, "category": true, "categories": true, "compare": true,
	"scan": true, "recipes": true, "learn": true, "auth": true, "settings": true,
	"admin": true, "dashboard": true, "lists": true, "history": true,
	"errors": true, "footer": true, "onboarding": true, "health": true, "score": true,
}

// hostSuffixes last labels that make a dotted word a host name
var hostSuffixes = map[string]bool{
	"com": true, "org": true, "net": true, "io": true, "dev": true, "app": true,
	"edu": true, "gov": true, "info": true, "co": true, "eu": true, "de": true,
	"uk": true, "fr": true, "it": true, "es": true, "nl": true, "pl": true,
	"ch": true, "at": true, "us": true, "ai": true, "example": true, "test": true,
	"local": true, "localhost": true, "internal": true,
}

func isI18nKey(key, rest string) bool {
	if rest != "" {
		switch rest[0] {
		case '/', ':', '@', '-':
			return false
		case '.':
			if len(rest) > 1 && rest[1] != ' ' && rest[1] != '\n' {
				return false
			}
		}
	}
	segments := strings.Split(key, ".")
	if hostSuffixes[segments[len(segments)-1]] {
		return false
	}
	return len(segments) > 2 || i18nNamespaces[segments[0]]
}

func checkRawI18nKeys(doc *Document, route string) error {
	text := doc.VisibleText()
	keys := []string{}
	for _, m := range i18nKeyRegex.FindAllStringSubmatchIndex(text, -1) {
		key := text[m[2]:m[3]]
		if isI18nKey(key, text[m[3]:]) {
			keys = append(keys, key)
		}
	}
	if len(keys) > 0 {
		return fail("raw localization keys in visible text", limit(unique(keys), 10)...)
	}
	return nil
}

type placeholder struct {
	name  string
	regex *regexp.Regexp
}

var placeholders = []placeholder{
	{name: "undefined", regex: regexp.MustCompile(`\bundefined\b`)},
	{name: "NaN", regex: regexp.MustCompile(`\bNaN\b`)},
	{name: "[object Object]", regex: regexp.MustCompile(`\[object Object\]`)},
	{name: "enum code", regex: regexp.MustCompile(`\b(?:NUTRI_SCORE_UNKNOWN|NOVA_UNCLASSIFIED|SCORE_BAND_[A-E]|CONCERN_TIER_[0-9]|DATA_SOURCE_[A-Z_]+)\b`)},
}

// PlaceholderExclusions literals a route prefix displays on purpose
var PlaceholderExclusions = map[string][]string{
	"/learn/data-quality": {"undefined", "NaN"},
}

func excludedPlaceholder(route, name string) bool {
	for prefix, names := range PlaceholderExclusions {
		if !strings.HasPrefix(route, prefix) {
			continue
		}
		for _, n := range names {
			if n == name {
				return true
			}
		}
	}
	return false
}

func checkForbiddenPlaceholders(doc *Document, route string) error {
	text := doc.VisibleText()
	found := []string{}
	for _, p := range placeholders {
		if excludedPlaceholder(route, p.name) {
			continue
		}
		for _, m := range p.regex.FindAllString(text, -1) {
			found = append(found, m)
		}
	}
	if len(found) > 0 {
		return fail("forbidden placeholder literals in visible text", limit(unique(found), 10)...)
	}
	return nil
}

const interactiveSelector = `a[href], button, [role="button"]`

func nonEmptyAttr(s *goquery.Selection, names ...string) bool {
	for _, name := range names {
		if v, ok := s.Attr(name); ok && strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}

func hasAccessibleName(s *goquery.Selection) bool {
	if Text(s) != "" || nonEmptyAttr(s, "aria-label", "aria-labelledby", "title") {
		return true
	}
	named := false
	s.Find("img, [aria-label]").EachWithBreak(func(i int, child *goquery.Selection) bool {
		named = nonEmptyAttr(child, "alt", "aria-label")
		return !named
	})
	return named
}

func checkEmptyInteractive(doc *Document, route string) error {
	empty := []string{}
	doc.Visible(interactiveSelector).Each(func(i int, s *goquery.Selection) {
		if !hasAccessibleName(s) {
			empty = append(empty, describe(s))
		}
	})
	if len(empty) > 0 {
		return fail(fmt.Sprintf("%d links or buttons without text or accessible label", len(empty)), limit(empty, 5)...)
	}
	return nil
}

func presentational(s *goquery.Selection) bool {
	role, _ := s.Attr("role")
	hidden, _ := s.Attr("aria-hidden")
	return role == "presentation" || role == "none" || hidden == "true"
}

func checkImageAlt(doc *Document, route string) error {
	missing := []string{}
	doc.Find("img").Each(func(i int, s *goquery.Selection) {
		if _, ok := s.Attr("alt"); ok || presentational(s) {
			return
		}
		src, _ := s.Attr("src")
		missing = append(missing, src)
	})
	if len(missing) > 0 {
		return fail(fmt.Sprintf("%d images without alt text", len(missing)), limit(missing, 5)...)
	}
	return nil
}

func checkZeroHeightClickable(doc *Document, route string) error {
	collapsed := []string{}
	doc.Visible(interactiveSelector).Each(func(i int, s *goquery.Selection) {
		if _, h, ok := Size(s); ok && h == 0 {
			collapsed = append(collapsed, describe(s))
		}
	})
	if len(collapsed) > 0 {
		return fail(fmt.Sprintf("%d clickable elements collapsed to zero height", len(collapsed)), limit(collapsed, 5)...)
	}
	return nil
}

var uuidRegex = regexp.MustCompile(`\b[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}\b`)

func checkUUIDs(doc *Document, route string) error {
	leaked := []string{}
	for _, candidate := range uuidRegex.FindAllString(doc.VisibleText(), -1) {
		if _, err := uuid.Parse(candidate); err == nil {
			leaked = append(leaked, candidate)
		}
	}
	if len(leaked) > 0 {
		return fail("internal identifiers exposed in visible text", limit(unique(leaked), 5)...)
	}
	return nil
}

// Singleton a component a page renders at most Max times, at least Min
type Singleton struct {
	Name     string
	Selector string
	Min      int
	Max      int
	// ExemptPrefixes routes without the app shell, Min does not apply
	ExemptPrefixes []string
}

var Singletons = []Singleton{
	{Name: "primary navigation", Selector: `[data-singleton="primary-nav"]`, Max: 1},
	{Name: "tab bar", Selector: `[data-singleton="tab-bar"]`, Min: 1, Max: 1, ExemptPrefixes: []string{"/auth/"}},
	{Name: "footer", Selector: `[data-singleton="footer"]`, Max: 1},
	{Name: "skip link", Selector: `[data-singleton="skip-link"]`, Max: 1},
	{Name: "toast region", Selector: `[data-singleton="toasts"]`, Max: 1},
}

func (s Singleton) exempt(route string) bool {
	for _, prefix := range s.ExemptPrefixes {
		if strings.HasPrefix(route, prefix) {
			return true
		}
	}
	return false
}

func (s Singleton) expectation() string {
	switch {
	case s.Min == s.Max:
		return fmt.Sprint("expected exactly ", s.Min)
	case s.Min > 0:
		return fmt.Sprint("expected between ", s.Min, " and ", s.Max)
	}
	return fmt.Sprint("expected at most ", s.Max)
}

func checkSingletons(doc *Document, route string) error {
	wrong := []string{}
	for _, s := range Singletons {
		count := doc.Find(s.Selector).Length()
		if count > s.Max || (count < s.Min && !s.exempt(route)) {
			wrong = append(wrong, fmt.Sprintf("%s: found %d, %s", s.Name, count, s.expectation()))
		}
	}
	if len(wrong) > 0 {
		return fail("singleton components rendered the wrong number of times", wrong...)
	}
	return nil
}

var comingSoonRegex = regexp.MustCompile(`(?i)\bcoming soon\b`)

func checkComingSoon(doc *Document, route string) error {
	if banner := doc.Visible("[data-placeholder-banner]"); banner.Length() > 0 {
		return fail("placeholder banner is visible", describe(banner.First()))
	}
	if m := comingSoonRegex.FindString(doc.VisibleText()); m != "" {
		return fail("placeholder text is visible", m)
	}
	return nil
}

func checkViewportMeta(doc *Document, route string) error {
	content, ok := doc.Find(`meta[name="viewport"]`).First().Attr("content")
	if !ok {
		return failf("missing viewport meta tag")
	}
	if !strings.Contains(strings.ReplaceAll(content, " ", ""), "width=device-width") {
		return fail("viewport meta tag without width=device-width", content)
	}
	return nil
}

func checkHTMLLang(doc *Document, route string) error {
	if lang, _ := doc.Find("html").First().Attr("lang"); strings.TrimSpace(lang) == "" {
		return failf("document has no lang attribute")
	}
	return nil
}

const labelledInputSelector = `input:not([type="hidden"]):not([type="submit"]):not([type="button"]):not([type="reset"]):not([type="image"]), select, textarea`

func checkInputLabels(doc *Document, route string) error {
	labelFor := map[string]bool{}
	doc.Find("label[for]").Each(func(i int, s *goquery.Selection) {
		forID, _ := s.Attr("for")
		labelFor[forID] = true
	})
	unlabelled := []string{}
	doc.Find(labelledInputSelector).Each(func(i int, s *goquery.Selection) {
		if Invisible(s) || VisuallyHiddenBySize(s) || s.Closest("label").Length() > 0 {
			return
		}
		if id, _ := s.Attr("id"); id != "" && labelFor[id] {
			return
		}
		if nonEmptyAttr(s, "aria-label", "aria-labelledby") {
			return
		}
		unlabelled = append(unlabelled, describe(s))
	})
	if len(unlabelled) > 0 {
		return fail(fmt.Sprintf("%d form inputs without accessible label", len(unlabelled)), limit(unlabelled, 5)...)
	}
	return nil
}
