package testkit

import (
	"strings"
	"testing"

	"github.com/k0kubun/pp/v3"
	"github.com/kr/pretty"
)

func init() {
	pp.Default.SetColoringEnabled(false)
}

// AssertEqualWithDiff asserts that two values are deeply equal and prints a
// field-level diff when they are not.
func AssertEqualWithDiff(t testing.TB, expected, actual any) {
	t.Helper()

	diff := pretty.Diff(expected, actual)
	if len(diff) == 0 {
		return
	}

	s := strings.Builder{}
	for i, d := range diff {
		if i == 0 {
			s.WriteString("diff    : ")
		} else {
			s.WriteString("          ")
		}
		s.WriteString(d)
		s.WriteString("\n")
	}

	t.Errorf(
		"Not equal: \n"+
			"expected: %s\n"+
			"actual  : %s\n\n"+
			"%s",
		pp.Sprint(expected),
		pp.Sprint(actual),
		s.String(),
	)
}
