package reports

import (
	"io"
	"sort"
	"time"

	"github.com/foomo/auditwalker/vo"
)

type score struct {
	Key      string
	Outcome  string
	Duration time.Duration
}

type scores []score

func (s scores) Len() int           { return len(s) }
func (s scores) Less(i, j int) bool { return s[i].Duration < s[j].Duration }
func (s scores) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

func reportHighscore(status vo.Status, w io.Writer, filter resultFilter) {
	printh, println, _ := printers(w)
	printh("high score")
	scores := scores{}
	for _, r := range filtered(status, filter) {
		if r.Skipped != "" {
			continue
		}
		scores = append(scores, score{
			Duration: r.Duration,
			Outcome:  r.Outcome(),
			Key:      r.Key(),
		})
	}
	sort.Stable(scores)
	for i, s := range scores {
		println(i, s.Outcome, s.Key, s.Duration)
	}
}
