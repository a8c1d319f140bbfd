package core

import (
	"fmt"
	"runtime/debug"
)

// PanicError carries a recovered panic value out of RunSafe
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("recovered panic: %v", e.Value)
}

// Unwrap exposes a panicked error value to errors.Is and errors.As
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// RunSafe calls fn and turns a panic into a *PanicError
// Used where one failing unit must not take its siblings down
func RunSafe(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}
