package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"contractmeta/internal/buildpipeline"
	"contractmeta/internal/ui"
)

type generateOutcome struct {
	result *buildpipeline.GenerateResult
	err    error
}

func runGenerateWithUI(ctx context.Context, title string, req *buildpipeline.GenerateRequest) (*buildpipeline.GenerateResult, error) {
	if req == nil {
		return nil, fmt.Errorf("missing generate request")
	}
	contracts := make([]string, 0, len(req.Targets))
	for _, t := range req.Targets {
		contracts = append(contracts, t.Contract)
	}
	events := make(chan buildpipeline.Event, 256)
	outcomeCh := make(chan generateOutcome, 1)

	go func() {
		reqCopy := *req
		reqCopy.Progress = buildpipeline.ChannelSink{Ch: events}
		res, err := buildpipeline.Generate(ctx, &reqCopy)
		outcomeCh <- generateOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, contracts, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
