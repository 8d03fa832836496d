package diagfmt

import (
	"encoding/json"
	"io"
	"sort"

	"contractmeta/internal/diag"
)

const (
	sarifVersion = "2.1.0"
	sarifSchema  = "https://json.schemastore.org/sarif-2.1.0.json"
)

type sarifLog struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool        sarifTool         `json:"tool"`
	Invocations []sarifInvocation `json:"invocations,omitempty"`
	Results     []sarifResult     `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version,omitempty"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string       `json:"id"`
	ShortDescription sarifMessage `json:"shortDescription"`
}

type sarifInvocation struct {
	Arguments           []string `json:"arguments,omitempty"`
	ExecutionSuccessful bool     `json:"executionSuccessful"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
	Related   []sarifLocation `json:"relatedLocations,omitempty"`
}

type sarifLocation struct {
	Message          *sarifMessage          `json:"message,omitempty"`
	LogicalLocations []sarifLogicalLocation `json:"logicalLocations"`
}

type sarifLogicalLocation struct {
	FullyQualifiedName string `json:"fullyQualifiedName"`
}

// Sarif writes the bag as a SARIF v2.1.0 log. Subjects become logical
// locations since descriptors have no source positions.
func Sarif(w io.Writer, bag *diag.Bag, meta SarifRunMeta) error {
	var items []diag.Diagnostic
	if bag != nil {
		items = bag.Items()
	}

	seen := make(map[diag.Code]bool)
	results := make([]sarifResult, 0, len(items))
	hasErrors := false
	for _, d := range items {
		seen[d.Code] = true
		if d.Severity == diag.SevError {
			hasErrors = true
		}
		res := sarifResult{
			RuleID:    d.Code.ID(),
			Level:     sarifLevel(d.Severity),
			Message:   sarifMessage{Text: d.Message},
			Locations: []sarifLocation{logical(SubjectOf(d), "")},
		}
		for _, n := range d.Notes {
			res.Related = append(res.Related, logical(string(n.Subject), n.Msg))
		}
		results = append(results, res)
	}

	codes := make([]diag.Code, 0, len(seen))
	for c := range seen {
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	rules := make([]sarifRule, len(codes))
	for i, c := range codes {
		rules[i] = sarifRule{ID: c.ID(), ShortDescription: sarifMessage{Text: c.Title()}}
	}

	log := sarifLog{
		Version: sarifVersion,
		Schema:  sarifSchema,
		Runs: []sarifRun{{
			Tool:        sarifTool{Driver: sarifDriver{Name: meta.ToolName, Version: meta.ToolVersion, Rules: rules}},
			Invocations: []sarifInvocation{{Arguments: meta.InvocationArgs, ExecutionSuccessful: !hasErrors}},
			Results:     results,
		}},
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(log)
}

func logical(name, msg string) sarifLocation {
	loc := sarifLocation{LogicalLocations: []sarifLogicalLocation{{FullyQualifiedName: name}}}
	if msg != "" {
		loc.Message = &sarifMessage{Text: msg}
	}
	return loc
}

func sarifLevel(sev diag.Severity) string {
	switch sev {
	case diag.SevError:
		return "error"
	case diag.SevWarning:
		return "warning"
	default:
		return "note"
	}
}
