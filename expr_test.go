package blobc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExprIntLit(t *testing.T) {
	scope := NewRootScope()
	v, err := IntLit{Value: 42}.Eval(scope, SourceLocation{})
	require.NoError(t, err)
	assert.EqualValues(t, 42, v)
}

func TestExprNegAndBinOp(t *testing.T) {
	scope := NewRootScope()
	e := BinOp{Kind: OpAdd, Lhs: IntLit{Value: 3}, Rhs: Neg{Expr: IntLit{Value: 5}}}
	v, err := e.Eval(scope, SourceLocation{})
	require.NoError(t, err)
	assert.EqualValues(t, -2, v)
}

func TestExprShiftPrecedence(t *testing.T) {
	scope := NewRootScope()
	// (2 + 1) << 2 == 12, matching shift binding looser than add per the grammar.
	e := BinOp{Kind: OpShl, Lhs: BinOp{Kind: OpAdd, Lhs: IntLit{Value: 2}, Rhs: IntLit{Value: 1}}, Rhs: IntLit{Value: 2}}
	v, err := e.Eval(scope, SourceLocation{})
	require.NoError(t, err)
	assert.EqualValues(t, 12, v)
}

func TestExprDivisionByZero(t *testing.T) {
	scope := NewRootScope()
	e := BinOp{Kind: OpDiv, Lhs: IntLit{Value: 1}, Rhs: IntLit{Value: 0}}
	_, err := e.Eval(scope, SourceLocation{File: "t.blob", Line: 3})
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
}

func TestExprNamedRefBareWalksUpward(t *testing.T) {
	root := NewRootScope()
	root.Define("a", 10)
	child := root.Child("Foo")
	v, err := NamedRef{Name: "a"}.Eval(child, SourceLocation{})
	require.NoError(t, err)
	assert.EqualValues(t, 10, v)
}

func TestExprNamedRefDottedDescendsFromRoot(t *testing.T) {
	root := NewRootScope()
	foo := root.Child("Foo")
	foo.Define("Bar", 10)

	nested := root.Child("Other")
	v, err := NamedRef{Name: "Foo.Bar"}.Eval(nested, SourceLocation{})
	require.NoError(t, err)
	assert.EqualValues(t, 10, v)
}

func TestExprNamedRefUnknownNamespace(t *testing.T) {
	root := NewRootScope()
	_, err := NamedRef{Name: "Missing.Bar"}.Eval(root, SourceLocation{File: "t.blob", Line: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown namespace")
}

func TestExprNamedRefUndefinedBareName(t *testing.T) {
	root := NewRootScope()
	_, err := NamedRef{Name: "nope"}.Eval(root, SourceLocation{File: "t.blob", Line: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undefined constant")
}
