package session

import (
	"errors"
	"fmt"
)

// Sentinel failures surfaced to API callers. None of them leaves partial
// state behind: a failed mutation is not committed at all.
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrPackageNotFound = errors.New("package not found")
	ErrDeviceLimit     = fmt.Errorf("device limit exceeded (max %d devices)", DeviceLimit)
)

// ValidationError reports malformed caller input (mobile number shape,
// timestamp format). The message is returned to the client verbatim.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// StorageError wraps a persistence failure; the underlying cause is kept in
// the message and the chain.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage: %s: %v", e.Op, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

func storagef(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
