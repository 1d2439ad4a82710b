package mintage

import (
	"context"
	"fmt"
)

// undoLog records compensating actions for the writes of one call.
type undoLog struct {
	steps []undoStep
}

type undoStep struct {
	name string
	fn   func(ctx context.Context) error
}

func (u *undoLog) push(name string, fn func(ctx context.Context) error) {
	u.steps = append(u.steps, undoStep{name: name, fn: fn})
}

// rollback runs the recorded steps newest first. Every step runs even if
// an earlier one fails; failures are collected.
func (u *undoLog) rollback(ctx context.Context) error {
	var errs MultiError
	for i := len(u.steps) - 1; i >= 0; i-- {
		step := u.steps[i]
		if err := step.fn(ctx); err != nil {
			errs.Add(fmt.Errorf("mintage: undo %s: %w", step.name, err))
		}
	}
	u.steps = nil
	if errs.HasErrors() {
		return errs
	}
	return nil
}
