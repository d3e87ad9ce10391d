package saga

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func step(name string, trace *[]string, fail bool) FuncStep {
	return FuncStep{
		StepName: name,
		Run: func(ctx context.Context) error {
			*trace = append(*trace, "run:"+name)
			if fail {
				return errors.New("boom")
			}
			return nil
		},
		Undo: func(ctx context.Context) error {
			*trace = append(*trace, "undo:"+name)
			return nil
		},
	}
}

func TestRunnerExecutesInOrder(t *testing.T) {
	var trace []string
	err := Runner{}.Run(context.Background(), "edit",
		step("one", &trace, false),
		step("two", &trace, false),
		step("three", &trace, false),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"run:one", "run:two", "run:three"}, trace)
}

func TestRunnerCompensatesInReverseOnFailure(t *testing.T) {
	var trace []string
	err := Runner{}.Run(context.Background(), "edit",
		step("one", &trace, false),
		step("two", &trace, false),
		step("three", &trace, true),
	)
	require.Error(t, err)
	assert.EqualError(t, err, "saga edit: step three: boom")
	assert.Equal(t, []string{
		"run:one", "run:two", "run:three",
		"undo:two", "undo:one",
	}, trace, "the failing step itself is never compensated")
}

func TestRunnerWrapsOriginalError(t *testing.T) {
	sentinel := errors.New("projection out of sync")
	err := Runner{}.Run(context.Background(), "edit", FuncStep{
		StepName: "syncing",
		Run:      func(ctx context.Context) error { return sentinel },
	})
	assert.ErrorIs(t, err, sentinel)
}

func TestFuncStepNilHooks(t *testing.T) {
	s := FuncStep{StepName: "noop"}
	assert.NoError(t, s.Execute(context.Background()))
	assert.NoError(t, s.Compensate(context.Background()))
	assert.Equal(t, "noop", s.Name())
}
