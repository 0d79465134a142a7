package health

import (
	"context"
	"fmt"
)

// Checker represents a dependency health check.
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

const (
	StatusUp   = "UP"
	StatusDown = "DOWN"
)

// Report is the outcome of a readiness run: overall status plus the status
// of every dependency.
type Report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// ReadinessUseCase describes readiness verification.
type ReadinessUseCase interface {
	Ready(ctx context.Context) (Report, error)
}

type service struct {
	checkers []Checker
}

// NewService aggregates dependency checkers.
func NewService(checkers ...Checker) ReadinessUseCase {
	return &service{checkers: checkers}
}

// Ready runs every checker; the error names the first failing dependency.
func (s *service) Ready(ctx context.Context) (Report, error) {
	report := Report{Status: StatusUp, Checks: make(map[string]string, len(s.checkers))}
	var firstErr error
	for _, ch := range s.checkers {
		if err := ch.Check(ctx); err != nil {
			report.Checks[ch.Name()] = StatusDown
			report.Status = StatusDown
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", ch.Name(), err)
			}
			continue
		}
		report.Checks[ch.Name()] = StatusUp
	}
	return report, firstErr
}
