package diag

// DedupReporter forwards each distinct diagnostic once. Two reports are the
// same when code, severity, subject and message match; notes are ignored.
type DedupReporter struct {
	next Reporter
	seen map[reportKey]bool
}

type reportKey struct {
	code    Code
	sev     Severity
	primary Subject
	msg     string
}

// NewDedupReporter wraps next.
func NewDedupReporter(next Reporter) *DedupReporter {
	return &DedupReporter{next: next, seen: map[reportKey]bool{}}
}

func (r *DedupReporter) Report(code Code, sev Severity, primary Subject, msg string, notes []Note) {
	if r == nil || r.next == nil {
		return
	}
	key := reportKey{code, sev, primary, msg}
	if r.seen[key] {
		return
	}
	r.seen[key] = true
	r.next.Report(code, sev, primary, msg, notes)
}
