package chain

import (
	"fmt"
	"time"
)

// transitions lists the legal next states for each non-terminal status.
var transitions = map[Status][]Status{
	StatusPending: {StatusRunning, StatusFailed},
	StatusRunning: {StatusCompleted, StatusFailed},
}

func canTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s *Step) transition(to Status) error {
	if !canTransition(s.Status, to) {
		return fmt.Errorf("%w: step %s %s -> %s", ErrInvalidTransition, s.ID, s.Status, to)
	}
	s.Status = to
	return nil
}

// begin moves the step into Running and records its start time.
func (s *Step) begin(now time.Time) error {
	if err := s.transition(StatusRunning); err != nil {
		return err
	}
	s.StartedAt = now
	return nil
}

// complete stores the action output and measures the duration.
func (s *Step) complete(output any, now time.Time) error {
	if err := s.transition(StatusCompleted); err != nil {
		return err
	}
	s.Output = output
	s.Duration = now.Sub(s.StartedAt)
	return nil
}

// fail records reason on the step. A step failing straight out of Pending is
// stamped with now and a zero duration.
func (s *Step) fail(reason string, now time.Time) error {
	from := s.Status
	if err := s.transition(StatusFailed); err != nil {
		return err
	}
	s.Error = reason
	if from == StatusPending {
		s.StartedAt = now
		s.Duration = 0
		return nil
	}
	s.Duration = now.Sub(s.StartedAt)
	return nil
}
