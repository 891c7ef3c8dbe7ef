package blobc

import "fmt"

// ParseError is raised by the tokenizer, the parser, the constant
// expression evaluator, and by generators rejecting an option. It is
// terminal within the subsystem that raises it.
type ParseError struct {
	Loc     SourceLocation
	Message string
}

func NewParseError(loc SourceLocation, format string, args ...any) *ParseError {
	return &ParseError{Loc: loc, Message: fmt.Sprintf(format, args...)}
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Loc, e.Message)
}

// TypeSystemException is raised by the type system builder and the
// serializer: duplicate declarations, undefined references, misuse of
// void, multiple bases, recursive structs, incompatible pointer targets,
// out-of-range values, wrong-length array literals.
type TypeSystemException struct {
	Loc     SourceLocation
	Message string
}

func NewTypeSystemException(loc SourceLocation, format string, args ...any) *TypeSystemException {
	return &TypeSystemException{Loc: loc, Message: fmt.Sprintf(format, args...)}
}

func (e *TypeSystemException) Error() string {
	return fmt.Sprintf("%s: %s", e.Loc, e.Message)
}
