package reports

import (
	"io"
	"sort"

	"github.com/foomo/auditwalker/vo"
)

func reportViolations(status vo.Status, w io.Writer, filter resultFilter) {
	printh, _, _ := printers(w)
	printh("blocking violations")
	printViolations(status, w, filter, func(r vo.VisitResult) []vo.Violation { return r.Violations })
}

func reportAdvisories(status vo.Status, w io.Writer, filter resultFilter) {
	printh, _, _ := printers(w)
	printh("advisories")
	printViolations(status, w, filter, func(r vo.VisitResult) []vo.Violation { return r.Advisories })
}

func printViolations(status vo.Status, w io.Writer, filter resultFilter, get func(r vo.VisitResult) []vo.Violation) {
	_, println, _ := printers(w)
	checks := map[string]int{}
	for _, r := range filtered(status, filter) {
		violations := get(r)
		if len(violations) == 0 {
			continue
		}
		println(r.Key(), r.URL)
		for _, v := range violations {
			checks[v.Category+"/"+v.Check]++
			tab := ""
			if v.Tab != "" {
				tab = "[tab " + v.Tab + "]"
			}
			println("	", v.Category+"/"+v.Check, tab, v.Message)
			for _, evidence := range v.Evidence {
				println("		", evidence)
			}
		}
	}
	if len(checks) == 0 {
		return
	}
	printh, _, _ := printers(w)
	printh("by check")
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		println(checks[name], name)
	}
}
