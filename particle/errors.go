package particle

import "fmt"

// PreconditionError reports a violated index, range or stride contract
type PreconditionError struct {
	Op  string
	Msg string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("pfx precondition failed in %s: %s", e.Op, e.Msg)
}

// Precondition panics with a *PreconditionError when ok is false
func Precondition(ok bool, op, format string, args ...any) {
	if ok {
		return
	}
	panic(&PreconditionError{Op: op, Msg: fmt.Sprintf(format, args...)})
}
