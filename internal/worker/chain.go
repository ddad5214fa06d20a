// Package worker runs one-shot and periodic background steps.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Step is a named unit of work.
type Step struct {
	Run  func(ctx context.Context) error
	Name string
}

// Chain runs steps one after another.
type Chain struct {
	steps []Step
}

// NewChain creates a chain of steps.
func NewChain(steps ...Step) *Chain {
	return &Chain{steps: steps}
}

// Then appends a step.
func (c *Chain) Then(step Step) *Chain {
	c.steps = append(c.steps, step)
	return c
}

// Names returns the step names in run order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.steps))
	for i, s := range c.steps {
		names[i] = s.Name
	}
	return names
}

// Run executes the steps in order. The first failing step stops the chain;
// steps are never retried.
func (c *Chain) Run(ctx context.Context) error {
	slog.Debug("running chain", "steps", c.Names())
	for _, step := range c.steps {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		slog.Debug("starting step", "step", step.Name)
		if err := step.Run(ctx); err != nil {
			slog.Error("step failed", "step", step.Name, "error", err)
			return fmt.Errorf("step %s: %w", step.Name, err)
		}
		slog.Debug("finished step", "step", step.Name, "duration", time.Since(start))
	}
	return nil
}

// Watch runs step immediately and then on every tick of interval until ctx is
// done. Failures are logged and the next tick runs the step again.
func Watch(ctx context.Context, interval time.Duration, step Step) error {
	if interval <= 0 {
		return fmt.Errorf("invalid watch interval %v", interval)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := step.Run(ctx); err != nil && ctx.Err() == nil {
			slog.Error("periodic step failed", "step", step.Name, "error", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
