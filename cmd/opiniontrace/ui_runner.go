package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"opiniontrace/internal/driver"
	"opiniontrace/internal/ui"
)

type batchOutcome struct {
	results []driver.TraceDirResult
	err     error
}

func runBatchWithUI(ctx context.Context, dir string, opts driver.BatchOptions) ([]driver.TraceDirResult, error) {
	files, err := driver.ListDumps(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}

	events := make(chan driver.Event, 256)
	outcomeCh := make(chan batchOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Progress = driver.ChannelSink{Ch: events}
		results, err := driver.TraceDir(ctx, dir, optsCopy)
		outcomeCh <- batchOutcome{results: results, err: err}
		close(events)
	}()

	model := ui.NewProgressModel("tracing extraction dumps", files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}
