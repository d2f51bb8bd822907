package vo

type Status struct {
	Results map[string]VisitResult
	Jobs    map[string]bool
}

func (s Status) Failed() (failed []VisitResult) {
	for _, r := range s.Results {
		if r.Failed() {
			failed = append(failed, r)
		}
	}
	return failed
}
