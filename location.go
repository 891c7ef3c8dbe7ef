package blobc

import "fmt"

// SourceLocation pins a parse-tree or type-system node to the file and
// line it came from, and whether that file was reached through an
// import. It is threaded through every node that can participate in a
// diagnostic.
type SourceLocation struct {
	File     string
	Line     int
	IsImport bool
}

func NewSourceLocation(file string, line int) SourceLocation {
	return SourceLocation{File: file, Line: line}
}

func (l SourceLocation) String() string {
	return fmt.Sprintf("%s(%d)", l.File, l.Line)
}

// Imported returns a copy of l with IsImport set, used when an item
// declared in file A is pulled in through an `import` statement in file B.
func (l SourceLocation) Imported() SourceLocation {
	l.IsImport = true
	return l
}
