package mapyrus

import "fmt"

// Error reasons are enumerated here to be used in the Err struct,
// the error type shared across all Mapyrus APIs.
const (
	ErrUnknown  = 0
	ErrSyntax   = 1
	ErrEval     = 2
	ErrResource = 3
	ErrSystem   = 40
	ErrAssert   = 100
)

// Err constants represent possible errors that Mapyrus interpreter
// functions may return. Messages for errors raised while reading a
// script are prefixed with the "file:line" location reported by the
// preprocessor.
type Err struct {
	reason  int
	message string
	located bool
}

func (e Err) Error() string {
	return e.message
}

// Reason returns the error class of e, one of the Err* constants.
func (e Err) Reason() int {
	return e.reason
}

func errSyntaxf(location string, format string, args ...interface{}) Err {
	return Err{ErrSyntax, location + ": " + fmt.Sprintf(format, args...), true}
}

func errEvalf(format string, args ...interface{}) Err {
	return Err{ErrEval, fmt.Sprintf(format, args...), false}
}
