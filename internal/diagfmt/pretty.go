// Package diagfmt renders diagnostic bags for people and for tools.
package diagfmt

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"contractmeta/internal/diag"
)

// Pretty writes one diagnostic per line, expecting bag.Sort() beforehand:
//
//	warning SPC3001 flipper::messages::get selector 0x6d4ce63c is also used by ...
//	  note flipper::constructors::new first use
func Pretty(w io.Writer, bag *diag.Bag, opts PrettyOpts) {
	if w == nil || bag == nil {
		return
	}
	p := newPalette(opts.Color)
	for _, d := range bag.Items() {
		if uint8(d.Severity) < opts.MinSeverity {
			continue
		}
		fmt.Fprintf(w, "%s %s %s %s\n", p.severity(d.Severity), p.code.Sprint(d.Code.ID()), SubjectOf(d), clip(d.Message, opts.Width))
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			fmt.Fprintf(w, "  %s %s %s\n", p.note.Sprint("note"), n.Subject, clip(n.Msg, opts.Width))
		}
	}
}

// SubjectOf is the primary subject, falling back to the contract.
func SubjectOf(d diag.Diagnostic) string {
	switch {
	case d.Primary != "":
		return string(d.Primary)
	case d.Contract != "":
		return d.Contract
	default:
		return "-"
	}
}

type palette struct {
	err, warn, info, code, note *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:  color.New(color.FgRed, color.Bold),
		warn: color.New(color.FgYellow, color.Bold),
		info: color.New(color.FgCyan),
		code: color.New(color.Bold),
		note: color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.code, p.note} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(sev diag.Severity) string {
	switch sev {
	case diag.SevError:
		return p.err.Sprint(sev.Label())
	case diag.SevWarning:
		return p.warn.Sprint(sev.Label())
	default:
		return p.info.Sprint(sev.Label())
	}
}

func clip(msg string, width int) string {
	if width <= 0 || runewidth.StringWidth(msg) <= width {
		return msg
	}
	return runewidth.Truncate(msg, width, "...")
}
