package auditwalker

import (
	"fmt"
	"io"
	"sort"

	"github.com/foomo/auditwalker/reports"
	"github.com/foomo/auditwalker/vo"
)

func line(writer io.Writer) {
	fmt.Fprintln(writer, "------------------------------------------------------------------------")
}

func headline(writer io.Writer, v ...interface{}) {
	line(writer)
	v = append([]interface{}{"~"}, v...)
	fmt.Fprintln(writer, v...)
	line(writer)
}

func PrintStatus(writer io.Writer, status vo.Status) {
	headline(writer,
		"Status: ",
		" jobs: ", len(status.Jobs),
		", results: ", len(status.Results),
		", failed: ", len(status.Failed()),
	)

	reports.ReportSummaryBody(status, writer, nil)

	headline(writer, "currently visiting")
	active := []string{}
	for key, running := range status.Jobs {
		if running {
			active = append(active, key)
		}
	}
	sort.Strings(active)
	for _, key := range active {
		fmt.Fprintln(writer, key)
	}

	headline(writer, "failed")
	for _, key := range SortedKeys(status) {
		result := status.Results[key]
		if !result.Failed() {
			continue
		}
		fmt.Fprintln(writer, key, result.URL,
			"violations:", len(result.Violations),
			"console:", len(result.ConsoleErrors),
			"exceptions:", len(result.PageErrors),
			"network:", len(result.NetworkErrors),
			result.Error,
		)
		for _, v := range result.Violations {
			fmt.Fprintln(writer, "	", v.Error())
		}
	}
}

// PrintRunResult final report of a run
func PrintRunResult(writer io.Writer, result *RunResult) {
	headline(writer, "Run: mode", result.Mode, ", visits:", len(result.Results),
		", failed:", len(result.Failed()), ", skipped:", len(result.Skipped()), ", took:", result.Duration)
	for _, r := range result.Results {
		fmt.Fprintln(writer, r.Outcome(), r.Key(), r.Path, r.Duration)
		for _, v := range r.Violations {
			fmt.Fprintln(writer, "	", v.Error())
		}
		for _, v := range r.Advisories {
			fmt.Fprintln(writer, "	advisory", v.Error())
		}
		for _, msg := range r.ConsoleErrors {
			fmt.Fprintln(writer, "	console", msg)
		}
		for _, msg := range r.PageErrors {
			fmt.Fprintln(writer, "	exception", msg)
		}
		for _, ne := range r.NetworkErrors {
			fmt.Fprintln(writer, "	network", ne.String())
		}
		if r.Error != "" {
			fmt.Fprintln(writer, "	error", r.Error)
		}
		if r.Skipped != "" {
			fmt.Fprintln(writer, "	skipped", r.Skipped)
		}
	}
	if len(result.RobotsForbidden) > 0 {
		headline(writer, "robots.txt disallows")
		for _, path := range result.RobotsForbidden {
			fmt.Fprintln(writer, path)
		}
	}
}
