package reports

import (
	"io"

	"github.com/foomo/auditwalker/vo"
)

// reportErrors runtime signals and visits that could not be audited
func reportErrors(status vo.Status, w io.Writer, filter resultFilter) {
	printh, println, _ := printers(w)
	printh("errors")
	for _, res := range filtered(status, filter) {
		if res.Error == "" && len(res.ConsoleErrors)+len(res.PageErrors)+len(res.NetworkErrors) == 0 {
			continue
		}
		println(res.Key(), res.URL)
		if res.Error != "" {
			println("	audit error:", res.Error)
		}
		for _, msg := range res.ConsoleErrors {
			println("	console:", msg)
		}
		for _, msg := range res.PageErrors {
			println("	exception:", msg)
		}
		for _, ne := range res.NetworkErrors {
			println("	network:", ne.String())
		}
	}
}
