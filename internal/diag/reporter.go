package diag

// Reporter receives diagnostics from pipeline passes.
type Reporter interface {
	Report(code Code, sev Severity, primary Subject, msg string, notes []Note)
}

// ReportBuilder collects notes for one diagnostic and sends it with Emit.
// A nil builder is inert.
type ReportBuilder struct {
	to   Reporter
	d    Diagnostic
	sent bool
}

// NewReportBuilder starts a diagnostic bound to r.
func NewReportBuilder(r Reporter, sev Severity, code Code, primary Subject, msg string) *ReportBuilder {
	return &ReportBuilder{to: r, d: New(sev, code, primary, msg)}
}

func ReportError(r Reporter, code Code, primary Subject, msg string) *ReportBuilder {
	return NewReportBuilder(r, SevError, code, primary, msg)
}

func ReportWarning(r Reporter, code Code, primary Subject, msg string) *ReportBuilder {
	return NewReportBuilder(r, SevWarning, code, primary, msg)
}

func ReportInfo(r Reporter, code Code, primary Subject, msg string) *ReportBuilder {
	return NewReportBuilder(r, SevInfo, code, primary, msg)
}

func (b *ReportBuilder) WithNote(s Subject, msg string) *ReportBuilder {
	if b != nil {
		b.d = b.d.WithNote(s, msg)
	}
	return b
}

// Emit forwards the diagnostic; later calls do nothing.
func (b *ReportBuilder) Emit() {
	if b == nil || b.sent {
		return
	}
	b.sent = true
	if b.to == nil {
		return
	}
	b.to.Report(b.d.Code, b.d.Severity, b.d.Primary, b.d.Message, b.d.Notes)
}

// BagReporter adds to Bag, stamping every diagnostic with Contract.
type BagReporter struct {
	Bag      *Bag
	Contract string
}

func (r BagReporter) Report(code Code, sev Severity, primary Subject, msg string, notes []Note) {
	if r.Bag == nil {
		return
	}
	d := New(sev, code, primary, msg)
	d.Contract, d.Notes = r.Contract, notes
	r.Bag.Add(d)
}

// NopReporter drops everything.
type NopReporter struct{}

func (NopReporter) Report(Code, Severity, Subject, string, []Note) {}
