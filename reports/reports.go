package reports

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"sort"
	"strings"

	"github.com/foomo/auditwalker/vo"
)

type resultFilter func(res vo.VisitResult) bool
type reporter func(status vo.Status, w io.Writer, filter resultFilter)

func GetReportHandlerMenuHTML(basePath string) string {
	return `
	<p>Audit walker report handler menu</p>
	<ul>
		<li><a href="` + basePath + `/summary">summary of outcomes per viewport and performance overview</a></li>
		<li><a href="` + basePath + `/violations">blocking violations</a></li>
		<li><a href="` + basePath + `/advisories">advisory findings</a></li>
		<li><a href="` + basePath + `/errors">console errors, uncaught exceptions and failed requests</a></li>
		<li><a href="` + basePath + `/skipped">skipped routes</a></li>
		<li><a href="` + basePath + `/structure">titles, languages and headings</a></li>
		<li><a href="` + basePath + `/results">all plain results (this can be a very long doc)</a></li>
		<li><a href="` + basePath + `/list">list of all jobs / results</a></li>
		<li><a href="` + basePath + `/highscore">highscore - all visits sorted by duration</a></li>
	</ul>
	<p>query parameters</p>
	<table>
		<tr>
			<td>url paramter</td>
			<td>function</td>
			<td>examples</td>
		</tr>
		<tr>
			<td>status</td>
			<td>show only given statuses in given order</td>
			<td>?status=complete,running</td>
		</tr>
		<tr>
			<td>viewport</td>
			<td>filter for one viewport</td>
			<td>?viewport=mobile</td>
		</tr>
		<tr>
			<td>prefix</td>
			<td>filter all paths with given prefix</td>
			<td>?prefix=/app/</td>
		</tr>
	</table>
	`
}

var reporters = map[string]reporter{
	"summary":    reportSummary,
	"violations": reportViolations,
	"advisories": reportAdvisories,
	"errors":     reportErrors,
	"skipped":    reportSkipped,
	"structure":  reportStructure,
	"results":    reportResults,
	"list":       reportList,
	"highscore":  reportHighscore,
}

func GetReportHandler(basePath string, logger *slog.Logger) func(
	w http.ResponseWriter, r *http.Request,
	completeStatus, runningStatus *vo.Status,
) {
	if logger == nil {
		logger = slog.Default()
	}
	return func(
		w http.ResponseWriter, r *http.Request,
		completeStatus, runningStatus *vo.Status,
	) {
		path := strings.TrimPrefix(r.URL.Path, basePath+"/")
		logger.Debug("handling reports", "path", path)
		name := strings.SplitN(path, "/", 2)[0]
		rep, ok := reporters[name]
		if !ok {
			http.NotFound(w, r)
			return
		}
		filters := []resultFilter{}
		if viewport := r.URL.Query().Get("viewport"); viewport != "" {
			filters = append(filters, func(res vo.VisitResult) bool {
				return res.Viewport == viewport
			})
		}
		if prefix := r.URL.Query().Get("prefix"); prefix != "" {
			filters = append(filters, func(res vo.VisitResult) bool {
				return strings.HasPrefix(res.Path, prefix)
			})
		}
		rawStatuses := strings.Split(r.URL.Query().Get("status"), ",")
		statuses := []string{}
		for _, rawStatus := range rawStatuses {
			rawStatus = strings.Trim(rawStatus, " 	\n")
			switch rawStatus {
			case statusComplete, statusRunning:
				statuses = append(statuses, rawStatus)
			}
		}
		if len(statuses) == 0 {
			statuses = []string{statusRunning, statusComplete}
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		report(rep, w, chain(filters), statuses, completeStatus, runningStatus)
	}
}

func chain(filters []resultFilter) resultFilter {
	if len(filters) == 0 {
		return nil
	}
	return func(res vo.VisitResult) bool {
		for _, f := range filters {
			if !f(res) {
				return false
			}
		}
		return true
	}
}

const (
	statusRunning  string = "running"
	statusComplete string = "complete"
)

func report(
	r reporter, w io.Writer, filter resultFilter,
	statuses []string, completeStatus, runningStatus *vo.Status,
) {
	_, println, _ := printers(w)
	for _, statusName := range statuses {
		var status *vo.Status
		switch statusName {
		case statusRunning:
			status = runningStatus
		case statusComplete:
			status = completeStatus
		}
		if status != nil {
			println("STATUS", statusName)
			println("=============================================================================")
			r(*status, w, filter)
			println()
			println()
		} else {
			println("STATUS", statusName, "is nil")
		}
	}
}

func printers(w io.Writer) (printh func(header ...interface{}), println func(a ...interface{}), printsep func()) {
	printsep = func() {
		fmt.Fprintln(w, "-----------------------------------------------------------------------------")
	}
	println = func(a ...interface{}) { fmt.Fprintln(w, a...) }
	printh = func(header ...interface{}) {
		println()
		println(header...)
		printsep()
	}
	return
}

// filtered results sorted by key
func filtered(status vo.Status, filter resultFilter) []vo.VisitResult {
	keys := make([]string, 0, len(status.Results))
	for key, res := range status.Results {
		if filter != nil && !filter(res) {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	results := make([]vo.VisitResult, len(keys))
	for i, key := range keys {
		results[i] = status.Results[key]
	}
	return results
}

type duplications map[string][]string

func (d duplications) add(value, key string) {
	existingKeys, ok := d[value]
	if ok {
		for _, existingKey := range existingKeys {
			if existingKey == key {
				return
			}
		}
	}
	d[value] = append(d[value], key)
}

func (d duplications) printlnDuplications(w io.Writer) {
	_, println, _ := printers(w)
	values := make([]string, len(d))
	i := 0
	for value := range d {
		values[i] = value
		i++
	}
	sort.Strings(values)
	for _, value := range values {
		keys := d[value]
		sort.Strings(keys)
		if len(keys) > 1 {
			println(value)
			for _, key := range keys {
				println("	", key)
			}
		}
	}
}

type uniqueList []string

func (ul *uniqueList) add(v string) {
	for _, ev := range *ul {
		if ev == v {
			return
		}
	}
	*ul = append(*ul, v)
}

func reportList(status vo.Status, w io.Writer, filter resultFilter) {
	printh, println, _ := printers(w)
	results := filtered(status, filter)
	printh("results", len(results))
	for i, res := range results {
		println(i, res.Outcome(), res.Key(), res.Path)
	}
	printh("open jobs")
	jobs := []string{}
	for key, active := range status.Jobs {
		if !active {
			jobs = append(jobs, key)
		}
	}
	sort.Strings(jobs)
	for i, key := range jobs {
		println(i, key)
	}
}

func reportSummary(status vo.Status, w io.Writer, filter resultFilter) {
	printh, _, _ := printers(w)
	printh("summary")
	ReportSummaryBody(status, w, filter)
}

var outcomes = []string{vo.OutcomePass, vo.OutcomeFail, vo.OutcomeError, vo.OutcomeSkipped}

func ReportSummaryBody(status vo.Status, w io.Writer, filter resultFilter) {
	printh, println, _ := printers(w)
	printh("outcomes")
	results := filtered(status, filter)
	viewportOutcomes := map[string]map[string]int{}
	for _, r := range results {
		if viewportOutcomes[r.Viewport] == nil {
			viewportOutcomes[r.Viewport] = map[string]int{}
		}
		viewportOutcomes[r.Viewport][r.Outcome()]++
	}
	viewports := make([]string, 0, len(viewportOutcomes))
	for viewport := range viewportOutcomes {
		viewports = append(viewports, viewport)
	}
	sort.Strings(viewports)
	for _, viewport := range viewports {
		line := []interface{}{viewport + ":"}
		for _, outcome := range outcomes {
			line = append(line, outcome, viewportOutcomes[viewport][outcome])
		}
		println(line...)
	}
	printh("performance buckets")
	groupedBucketListStatus(w, results)
}

func groupedBucketListStatus(
	writer io.Writer,
	results []vo.VisitResult,
) {
	groups := map[string]int64{}
	for _, r := range results {
		if r.Skipped == "" {
			groups[r.Viewport]++
		}
	}
	groupNames := make([]string, 0, len(groups))
	for group := range groups {
		groupNames = append(groupNames, group)
	}
	sort.Strings(groupNames)
	for _, groupName := range groupNames {
		fmt.Fprintln(writer, "viewport: "+groupName)
		for _, bucket := range vo.GetBucketList() {
			bucketI := 0
			for _, result := range results {
				if result.Viewport == groupName && result.Skipped == "" &&
					result.Duration >= bucket.From && result.Duration < bucket.To {
					bucketI++
				}
			}
			fmt.Fprintln(
				writer,
				bucketI,
				"	",
				math.Round(float64(bucketI)/float64(groups[groupName])*100),
				"%	(", bucket.From, "=>", bucket.To, ")",
				bucket.Name,
			)
		}
	}
}
