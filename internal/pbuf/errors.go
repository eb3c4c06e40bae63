package pbuf

import "fmt"

// ErrKind classifies parser failures.
type ErrKind string

// Error kinds reported by this package.
const (
	ErrParse ErrKind = "ParseError"
	ErrType  ErrKind = "TypeError"
)

// Error is a structured parser error carrying the failure kind, the
// component that produced it and, when known, the input position
// (a byte offset for binary input, a token index for text input).
type Error struct {
	Kind      ErrKind
	Component string
	Msg       string
	Pos       int // -1 when unknown
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Pos >= 0 {
		return fmt.Sprintf("%s: %s: %s (at %d)", e.Kind, e.Component, e.Msg, e.Pos)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Component, e.Msg)
}

func parseErr(component string, pos int, format string, args ...interface{}) error {
	return &Error{Kind: ErrParse, Component: component, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func typeErr(component string, format string, args ...interface{}) error {
	return &Error{Kind: ErrType, Component: component, Pos: -1, Msg: fmt.Sprintf(format, args...)}
}
