package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/expenses/internal/model"
	"github.com/Veraticus/expenses/internal/testutil"
)

func recordingStep(name string, log *[]string, err error) Step {
	return Step{
		Name: name,
		Run: func(context.Context) error {
			*log = append(*log, name)
			return err
		},
	}
}

func TestChain_RunsInOrder(t *testing.T) {
	var log []string
	chain := NewChain(recordingStep("a", &log, nil)).
		Then(recordingStep("b", &log, nil)).
		Then(recordingStep("c", &log, nil))

	require.NoError(t, chain.Run(context.Background()))
	assert.Equal(t, []string{"a", "b", "c"}, log)
	assert.Equal(t, []string{"a", "b", "c"}, chain.Names())
}

func TestChain_StopsOnFailure(t *testing.T) {
	var log []string
	boom := errors.New("boom")
	chain := NewChain(
		recordingStep("a", &log, nil),
		recordingStep("b", &log, boom),
		recordingStep("c", &log, nil),
	)

	err := chain.Run(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "step b")
	assert.Equal(t, []string{"a", "b"}, log)
}

func TestChain_Canceled(t *testing.T) {
	var log []string
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewChain(recordingStep("a", &log, nil)).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, log)
}

func TestBootstrap_Chain(t *testing.T) {
	noop := func(context.Context) error { return nil }

	full := Bootstrap{Init: noop, Sample: noop, Import: noop}
	assert.Equal(t, []string{StepInit, StepSample, StepImport}, full.Chain(true).Names())
	assert.Equal(t, []string{StepImport}, full.Chain(false).Names())

	noSample := Bootstrap{Init: noop, Import: noop}
	assert.Equal(t, []string{StepInit, StepImport}, noSample.Chain(true).Names())
}

func TestWatch(t *testing.T) {
	var runs atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	step := Step{
		Name: "tick",
		Run: func(context.Context) error {
			if runs.Add(1) >= 3 {
				cancel()
			}
			return errors.New("keeps going")
		},
	}

	done := make(chan error, 1)
	go func() { done <- Watch(ctx, time.Millisecond, step) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not stop")
	}
	assert.GreaterOrEqual(t, runs.Load(), int32(3))

	assert.Error(t, Watch(context.Background(), 0, step))
}

func TestSeed(t *testing.T) {
	store := testutil.SetupTestDB(t).Storage
	ctx := context.Background()

	rules := []model.SmsRule{{Sender: "BANK", Regex: `(?P<AMOUNT>\d+) (?P<VENDOR>\w+)`, Currency: "USD"}}
	require.NoError(t, Seed(ctx, store, model.DefaultCategories(), rules))

	categories, err := store.GetCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, len(model.DefaultCategories()))

	// Seeding again keeps the fixed category ids unique.
	require.NoError(t, Seed(ctx, store, model.DefaultCategories(), nil))
	categories, err = store.GetCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, len(model.DefaultCategories()))

	// A bad rule rolls back everything seeded alongside it.
	bad := []model.SmsRule{{Sender: "BANK", Regex: `nope`, Currency: "USD"}}
	extra := []model.Category{{Name: "Extra", Icon: model.IconDefault.Ref()}}
	require.Error(t, Seed(ctx, store, extra, bad))
	_, err = store.GetCategoryByName(ctx, "Extra")
	assert.Error(t, err)
}
