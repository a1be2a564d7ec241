package nle

import "fmt"

// InvariantError reports a broken internal invariant: a desynchronized
// clip range cache, an effect stored under the wrong owner, a re-entrant
// automation update. It indicates a programming error and is raised with
// panic rather than returned.
type InvariantError struct {
	// Op is the operation that detected the violation.
	Op string
	// Detail describes the broken invariant.
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("nle: invariant violated in %s: %s", e.Op, e.Detail)
}

// Invariant panics with an *InvariantError after logging it.
func Invariant(op, format string, args ...any) {
	err := &InvariantError{Op: op, Detail: fmt.Sprintf(format, args...)}
	Logger().Error("invariant violated", "op", op, "detail", err.Detail)
	panic(err)
}
