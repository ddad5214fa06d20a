package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/expenses/internal/report"
)

// Run shows the browser until the user quits or ctx is canceled. Report
// updates from watcher are forwarded to the program as they arrive.
func Run(ctx context.Context, watcher *report.Watcher, opts ...Option) error {
	if watcher == nil {
		return fmt.Errorf("report watcher is required")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := NewModel(opts...)
	programOpts := append([]tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	}, m.config.ProgramOptions...)
	p := tea.NewProgram(m, programOpts...)

	updates := watcher.Watch(ctx)
	go func() {
		for u := range updates {
			p.Send(u)
		}
	}()

	_, err := p.Run()
	if err != nil && errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("browser failed: %w", err)
	}
	return nil
}
