package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/kwtag/internal/model"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrNilParameter = errors.New("parameter cannot be nil")
	ErrInvalidRun   = errors.New("invalid run")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateRun(r *model.Run) error {
	if r == nil {
		return fmt.Errorf("%w: run", ErrNilParameter)
	}
	if strings.TrimSpace(r.Kind) == "" {
		return fmt.Errorf("%w: kind is required", ErrInvalidRun)
	}
	if strings.TrimSpace(r.Source) == "" {
		return fmt.Errorf("%w: source is required", ErrInvalidRun)
	}
	if r.StartedAt.IsZero() {
		return fmt.Errorf("%w: start time is required", ErrInvalidRun)
	}
	if r.Total < 0 || r.Succeeded < 0 || r.Failed < 0 {
		return fmt.Errorf("%w: negative row count", ErrInvalidRun)
	}
	for c, n := range r.Counts {
		if c.IsZero() || n < 0 {
			return fmt.Errorf("%w: bad count %q=%d", ErrInvalidRun, c, n)
		}
	}
	return nil
}
