package diag

// Subject locates a diagnostic inside the program model, e.g. "flipper::messages::get".
type Subject string

type Note struct {
	Subject Subject
	Msg     string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  Subject
	Contract string
	Notes    []Note
}

func New(sev Severity, code Code, primary Subject, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Primary:  primary,
		Message:  msg,
	}
}

func NewError(code Code, primary Subject, msg string) Diagnostic {
	return New(SevError, code, primary, msg)
}

func NewWarning(code Code, primary Subject, msg string) Diagnostic {
	return New(SevWarning, code, primary, msg)
}

func (d Diagnostic) WithNote(s Subject, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Subject: s, Msg: msg})
	return d
}
