package batch

import (
	"errors"
	"fmt"
)

// ErrUsage is returned when too few arguments are supplied; callers should
// print the usage text.
var ErrUsage = errors.New("batch: usage requested")

// Kind classifies batch failures.
type Kind uint8

// The failure kinds.
const (
	KindUsage Kind = iota + 1
	KindFormat
	KindIO
	KindData
	KindNaming
)

var kindNames = map[Kind]string{
	KindUsage:  "usage error",
	KindFormat: "format error",
	KindIO:     "io error",
	KindData:   "data error",
	KindNaming: "naming error",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Process exit code for each failure kind.
var exitCodes = map[Kind]int{
	KindUsage:  2,
	KindFormat: 3,
	KindIO:     4,
	KindData:   5,
	KindNaming: 6,
}

// Error is a classified batch failure.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Get the process exit code for this error.
func (e *Error) ExitCode() int {
	if code, ok := exitCodes[e.Kind]; ok {
		return code
	}
	return 1
}

func usageErrorf(format string, args ...interface{}) error {
	return &Error{Kind: KindUsage, Err: fmt.Errorf(format, args...)}
}

// Get the exit code for an arbitrary error returned by this package.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var batchErr *Error
	if errors.As(err, &batchErr) {
		return batchErr.ExitCode()
	}
	return 1
}
