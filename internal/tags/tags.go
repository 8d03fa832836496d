// Package tags renders documentation tags into descriptor docs.
package tags

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"contractmeta/internal/model"
)

// Render returns the first notice tag, followed by a blank line and the first
// dev tag when present. The result is NFC-normalized.
func Render(tags []model.Tag) string {
	var sb strings.Builder
	if v, ok := first(tags, "notice"); ok {
		sb.WriteString(v)
	}
	if v, ok := first(tags, "dev"); ok {
		sb.WriteString("\n\n")
		sb.WriteString(v)
	}
	return norm.NFC.String(sb.String())
}

// Docs wraps Render into the descriptor docs list; no tags means no docs.
func Docs(tags []model.Tag) []string {
	s := Render(tags)
	if s == "" {
		return []string{}
	}
	return []string{s}
}

// Values returns the NFC-normalized values of every tag named name, in order.
func Values(tags []model.Tag, name string) []string {
	var out []string
	for _, t := range tags {
		if t.Tag == name {
			out = append(out, norm.NFC.String(t.Value))
		}
	}
	return out
}

func first(tags []model.Tag, name string) (string, bool) {
	for _, t := range tags {
		if t.Tag == name {
			return t.Value, true
		}
	}
	return "", false
}
