package diag

import (
	"fmt"
	"strings"
)

// FormatShort renders diagnostics one per line:
//
//	warning SPC3001 flipper::messages::get selector 0x6d4ce63c is also used by ...
//
// Items are rendered in the given order; call Bag.Sort first for stable output.
func FormatShort(diags []Diagnostic, includeNotes bool) string {
	var b strings.Builder
	for i, d := range diags {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s %s %s %s", d.Severity.Label(), d.Code.ID(), subjectOf(d), sanitizeMessage(d.Message))
		if !includeNotes {
			continue
		}
		for _, n := range d.Notes {
			fmt.Fprintf(&b, "\nnote %s %s %s", d.Code.ID(), n.Subject, sanitizeMessage(n.Msg))
		}
	}
	return b.String()
}

func subjectOf(d Diagnostic) string {
	switch {
	case d.Primary == "" && d.Contract == "":
		return "-"
	case d.Primary == "":
		return d.Contract
	default:
		return string(d.Primary)
	}
}

func sanitizeMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "\r\n", "\n")
	msg = strings.ReplaceAll(msg, "\r", "\n")
	msg = strings.ReplaceAll(msg, "\n", " ")
	return strings.TrimSpace(msg)
}
