package invariants

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/foomo/auditwalker/driver"
	"github.com/foomo/auditwalker/vo"
	"golang.org/x/net/html"
)

// annotations written by snapshot.js
const (
	attrHidden = "data-ia-hidden"
	attrWidth  = "data-ia-w"
	attrHeight = "data-ia-h"
)

//go:embed snapshot.js
var snapshotJS string

// SnapshotData what snapshot.js returns
type SnapshotData struct {
	HTML          string `json:"html"`
	URL           string `json:"url"`
	ViewportWidth int    `json:"viewportWidth"`
	ScrollWidth   int    `json:"scrollWidth"`
	ContentWidth  int    `json:"contentWidth"`
}

// Document annotated copy of the live DOM
type Document struct {
	*goquery.Document
	URL           string
	ViewportWidth int
	ScrollWidth   int
	ContentWidth  int
	visibleText   *string
}

// Snapshot the current state of the page
func Snapshot(ctx context.Context, page driver.Evaluator) (*Document, error) {
	data := SnapshotData{}
	if err := page.Eval(ctx, snapshotJS, &data); err != nil {
		return nil, fmt.Errorf("invariants: snapshot: %w", err)
	}
	return NewDocument(data)
}

func NewDocument(data SnapshotData) (*Document, error) {
	doc, errDoc := goquery.NewDocumentFromReader(bytes.NewBufferString(data.HTML))
	if errDoc != nil {
		return nil, errDoc
	}
	return &Document{
		Document:      doc,
		URL:           data.URL,
		ViewportWidth: data.ViewportWidth,
		ScrollWidth:   data.ScrollWidth,
		ContentWidth:  data.ContentWidth,
	}, nil
}

// Invisible is the one visibility predicate every check uses: hidden by
// computed style (display, visibility, opacity, no layout parent) on the
// element or an ancestor, or inside an aria-hidden or hidden subtree
func Invisible(s *goquery.Selection) bool {
	if s.Length() == 0 {
		return true
	}
	return s.Closest("["+attrHidden+"]").Length() > 0 ||
		s.Closest(`[aria-hidden="true"]`).Length() > 0 ||
		s.Closest("[hidden]").Length() > 0
}

// Size rendered size in css pixels, ok is false for unmeasured elements
func Size(s *goquery.Selection) (width, height int, ok bool) {
	w, okW := s.Attr(attrWidth)
	h, okH := s.Attr(attrHeight)
	if !okW || !okH {
		return 0, 0, false
	}
	width, errW := strconv.Atoi(w)
	height, errH := strconv.Atoi(h)
	if errW != nil || errH != nil {
		return 0, 0, false
	}
	return width, height, true
}

// VisuallyHiddenBySize the sub 4px clip pattern component libraries use for
// accessible only elements
func VisuallyHiddenBySize(s *goquery.Selection) bool {
	w, h, ok := Size(s)
	return ok && (w < 4 || h < 4)
}

// Visible filters a selection with Invisible
func (d *Document) Visible(selector string) *goquery.Selection {
	return d.Find(selector).FilterFunction(func(i int, s *goquery.Selection) bool {
		return !Invisible(s)
	})
}

var skipTextElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"head":     true,
}

func hiddenNode(n *html.Node) bool {
	for _, attr := range n.Attr {
		switch attr.Key {
		case attrHidden, "hidden":
			return true
		case "aria-hidden":
			if attr.Val == "true" {
				return true
			}
		}
	}
	return false
}

var whitespaceRegex = regexp.MustCompile(`\s+`)

// VisibleText rendered text without script, style and noscript payloads or
// hidden subtrees, whitespace collapsed
func (d *Document) VisibleText() string {
	if d.visibleText != nil {
		return *d.visibleText
	}
	buf := &bytes.Buffer{}
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			buf.WriteString(n.Data)
			buf.WriteString(" ")
			return
		case html.ElementNode:
			if skipTextElements[n.Data] || hiddenNode(n) {
				return
			}
		case html.CommentNode:
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range d.Nodes {
		walk(n)
	}
	text := strings.TrimSpace(whitespaceRegex.ReplaceAllString(buf.String(), " "))
	d.visibleText = &text
	return text
}

// Text of a selection with collapsed whitespace
func Text(s *goquery.Selection) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(s.Text(), " "))
}

// Structure title, language and visible headings
func (d *Document) Structure() vo.Structure {
	lang, _ := d.Find("html").First().Attr("lang")
	s := vo.Structure{
		Title: Text(d.Find("title").First()),
		Lang:  lang,
	}
	d.Visible("h1, h2, h3, h4, h5, h6").Each(func(i int, sel *goquery.Selection) {
		level, _ := strconv.Atoi(strings.TrimPrefix(goquery.NodeName(sel), "h"))
		s.Headings = append(s.Headings, vo.Heading{
			Level: level,
			Text:  Text(sel),
		})
	})
	return s
}

// describe an element for evidence
func describe(s *goquery.Selection) string {
	outer, err := goquery.OuterHtml(s)
	if err != nil {
		return goquery.NodeName(s)
	}
	outer = annotationRegex.ReplaceAllString(whitespaceRegex.ReplaceAllString(outer, " "), "")
	return truncate(outer, 120)
}

var annotationRegex = regexp.MustCompile(` data-ia-(?:hidden|w|h)="[^"]*"`)

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
