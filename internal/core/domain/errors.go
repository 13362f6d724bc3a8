package domain

import (
	"errors"
	"fmt"
)

var (
	ErrItemNotFound     = errors.New("intake item not found")
	ErrBusinessNotFound = errors.New("business not found")
	ErrPermitNotFound   = errors.New("permit type not in catalog")
	ErrInvalidInput     = errors.New("invalid input")
	ErrTemporary        = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
