package saga

import (
	"context"
	"errors"
	"fmt"
)

// Step is a single unit of work with an optional compensating action.
type Step struct {
	Name       string
	Execute    func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// Saga runs steps in order and, when one fails, undoes the completed ones in
// reverse order. The money-movement write path uses it so a failed credit
// never leaves a debit behind.
type Saga struct {
	name  string
	steps []Step
}

// New creates a new saga with the given name.
func New(name string) *Saga {
	return &Saga{name: name}
}

// AddStep adds a step to the saga.
func (s *Saga) AddStep(step Step) *Saga {
	s.steps = append(s.steps, step)
	return s
}

// Execute runs all saga steps sequentially. If any step fails, previously
// completed steps are compensated in reverse order and the step's error is
// returned (wrapped with the compensation error if that failed too).
func (s *Saga) Execute(ctx context.Context) error {
	for i, step := range s.steps {
		if err := step.Execute(ctx); err != nil {
			if compErr := s.compensate(ctx, i); compErr != nil {
				return fmt.Errorf("saga %s: step %q failed (%w), compensation also failed: %v",
					s.name, step.Name, err, compErr)
			}
			return fmt.Errorf("saga %s: step %q failed: %w", s.name, step.Name, err)
		}
	}
	return nil
}

// compensate undoes steps [0, failed) in reverse order.
func (s *Saga) compensate(ctx context.Context, failed int) error {
	var errs []error
	for i := failed - 1; i >= 0; i-- {
		step := s.steps[i]
		if step.Compensate == nil {
			continue
		}
		if err := step.Compensate(ctx); err != nil {
			errs = append(errs, fmt.Errorf("compensate step %q: %w", step.Name, err))
		}
	}
	return errors.Join(errs...)
}
