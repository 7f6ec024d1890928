// Package faults defines the error kinds reported by davbak commands.
package faults

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration = errors.New("configuration error")
	ErrTransfer      = errors.New("transfer error")
	ErrArchive       = errors.New("archive error")
	ErrFilesystem    = errors.New("filesystem error")
)

// New returns an error matching kind via errors.Is.
func New(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

// Wrap tags cause with kind so errors.Is matches both.
func Wrap(kind error, cause error, format string, args ...any) error {
	if cause == nil {
		return New(kind, format, args...)
	}
	return fmt.Errorf("%w: %s: %w", kind, fmt.Sprintf(format, args...), cause)
}
