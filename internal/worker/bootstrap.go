package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/expenses/internal/model"
	"github.com/Veraticus/expenses/internal/service"
)

// Step names used by the bootstrap chain.
const (
	StepInit   = "init"
	StepSample = "sample"
	StepImport = "import"
)

// Bootstrap holds the steps run when the application starts.
type Bootstrap struct {
	Init   func(ctx context.Context) error
	Sample func(ctx context.Context) error // nil when sample data is disabled
	Import func(ctx context.Context) error
}

// Chain returns the steps to run. An empty database is initialized and
// optionally filled with sample data before importing.
func (b Bootstrap) Chain(fresh bool) *Chain {
	chain := NewChain()
	if fresh && b.Init != nil {
		chain.Then(Step{Name: StepInit, Run: b.Init})
		if b.Sample != nil {
			chain.Then(Step{Name: StepSample, Run: b.Sample})
		}
	}
	if b.Import != nil {
		chain.Then(Step{Name: StepImport, Run: b.Import})
	}
	return chain
}

// Seed stores categories and rules in a single transaction.
func Seed(ctx context.Context, store service.Storage, categories []model.Category, rules []model.SmsRule) error {
	tx, err := store.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for i := range categories {
		if err := tx.InsertCategory(ctx, &categories[i]); err != nil {
			return fmt.Errorf("failed to seed category %s: %w", categories[i].Name, err)
		}
	}
	for i := range rules {
		if err := tx.InsertSmsRule(ctx, &rules[i]); err != nil {
			return fmt.Errorf("failed to seed rule for %s: %w", rules[i].Sender, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed: %w", err)
	}
	slog.Info("seeded database", "categories", len(categories), "rules", len(rules))
	return nil
}
