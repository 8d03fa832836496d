package driver

import (
	"encoding/json"
	"fmt"

	"contractmeta/internal/diag"
	"contractmeta/internal/observ"
)

// timingPayload is the JSON note of an ObsTimings diagnostic.
type timingPayload struct {
	Kind     string               `json:"kind"`
	Contract string               `json:"contract,omitempty"`
	TotalMS  float64              `json:"total_ms"`
	Phases   []observ.PhaseReport `json:"phases"`
}

// timingDiagnostic turns a timer report of contract into an info diagnostic.
func timingDiagnostic(contract string, report observ.Report) (diag.Diagnostic, error) {
	payload := timingPayload{Kind: "generate", Contract: contract, TotalMS: report.TotalMS, Phases: report.Phases}
	data, err := json.Marshal(payload)
	if err != nil {
		return diag.Diagnostic{}, err
	}
	d := diag.New(diag.SevInfo, diag.ObsTimings, diag.Subject(contract),
		fmt.Sprintf("timings: total %.2f ms for %s", report.TotalMS, contract)).
		WithNote(diag.Subject(contract), string(data))
	d.Contract = contract
	return d, nil
}

// addTimings appends the timing diagnostic even when bag is full; a full bag
// still reports where the time went.
func addTimings(bag *diag.Bag, contract string, report observ.Report) {
	if bag == nil {
		return
	}
	d, err := timingDiagnostic(contract, report)
	if err != nil {
		return
	}
	if !bag.Add(d) {
		extra := diag.NewBag(1)
		extra.Add(d)
		bag.Merge(extra)
	}
}
