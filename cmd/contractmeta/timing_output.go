package main

import (
	"fmt"
	"io"
	"time"

	"contractmeta/internal/buildpipeline"
)

var stageVerbs = map[buildpipeline.Stage]string{
	buildpipeline.StageDecode:   "decoded",
	buildpipeline.StageAssemble: "assembled",
	buildpipeline.StageEncode:   "encoded",
	buildpipeline.StageWrite:    "wrote",
}

func printStageTimings(out io.Writer, timings *buildpipeline.Timings) {
	if out == nil || timings == nil {
		return
	}
	for _, stage := range buildpipeline.Stages {
		if !timings.Has(stage) {
			continue
		}
		if _, err := fmt.Fprintf(out, "%s %.1f ms\n", stageVerbs[stage], toMillis(timings.Duration(stage))); err != nil {
			panic(err)
		}
	}
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// printContractTimings writes the per-step table of every fresh output.
func printContractTimings(out io.Writer, outputs []buildpipeline.Output) {
	for _, o := range outputs {
		if o.Result.Timing == nil {
			continue
		}
		fmt.Fprintf(out, "%s:\n%s", o.Target.Contract, o.Result.Timing.Summary())
	}
}
