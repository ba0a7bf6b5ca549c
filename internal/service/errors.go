package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Sentinel errors the handlers map to HTTP status codes
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
)

func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func conflictf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// lookupError turns gorm's not-found into ErrNotFound and wraps everything else
func lookupError(entity string, id uint, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %d %w", entity, id, ErrNotFound)
	}
	return fmt.Errorf("failed to fetch %s %d: %w", entity, id, err)
}

// referenceError reports a missing referenced record (customer_id, branch_id...) as bad input
func referenceError(entity string, id uint, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return invalidf("%s %d does not exist", entity, id)
	}
	return fmt.Errorf("failed to fetch %s %d: %w", entity, id, err)
}
