package blobc

import "fmt"

// Parser is a recursive-descent parser over a Tokenizer's stream,
// implementing the grammar in spec.md §4.2. One method per production,
// in the style of the teacher's grammar_parser.go.
type Parser struct {
	tok  *Tokenizer
	file string
}

func NewParser(file string, src []byte) *Parser {
	return &Parser{tok: NewTokenizer(file, src), file: file}
}

// ParseUnit parses `unit := toplevel*`.
func (p *Parser) ParseUnit() (*Unit, error) {
	var items []RawItem
	for {
		tok, err := p.tok.Peek()
		if err != nil {
			return nil, err
		}
		if tok.Kind == TokEOF {
			break
		}
		item, err := p.parseTopLevel()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return &Unit{Items: items}, nil
}

func (p *Parser) parseTopLevel() (RawItem, error) {
	tok, err := p.expect(TokWord)
	if err != nil {
		return nil, err
	}
	switch tok.Word {
	case "defprimitive":
		return p.parseDefPrimitive(tok.Loc)
	case "struct":
		return p.parseStruct(tok.Loc)
	case "enum":
		return p.parseEnum(tok.Loc)
	case "iconst":
		return p.parseIconst(tok.Loc)
	case "import":
		return p.parseImport(tok.Loc)
	case "generator":
		return p.parseGeneratorConfig(tok.Loc)
	default:
		return nil, NewParseError(tok.Loc, "unexpected top-level keyword %q", tok.Word)
	}
}

// defprim := 'defprimitive' NAME CLASS INT (':' opt_list)? ';'?
func (p *Parser) parseDefPrimitive(loc SourceLocation) (*RawPrimitive, error) {
	name, err := p.expectWord()
	if err != nil {
		return nil, err
	}
	classTok, err := p.expectWord()
	if err != nil {
		return nil, err
	}
	var class RawPrimitiveClass
	switch classTok {
	case "uint":
		class = ClassUint
	case "sint":
		class = ClassSint
	case "float":
		class = ClassFloat
	case "character":
		class = ClassChar
	default:
		return nil, NewParseError(loc, "unknown primitive class %q", classTok)
	}

	sizeTok, err := p.expect(TokInt)
	if err != nil {
		return nil, err
	}
	size := int(sizeTok.Int)
	if err := checkPrimitiveSize(class, size, loc); err != nil {
		return nil, err
	}

	var opts []Option
	if p.tryPunct(":") {
		opts, err = p.parseOptList()
		if err != nil {
			return nil, err
		}
	}
	p.trySemicolon()
	return &RawPrimitive{Name: name, Class: class, Size: size, Opts: opts, Loc: loc}, nil
}

func checkPrimitiveSize(class RawPrimitiveClass, size int, loc SourceLocation) error {
	var allowed []int
	switch class {
	case ClassUint, ClassSint:
		allowed = []int{1, 2, 4, 8}
	case ClassFloat:
		allowed = []int{4, 8}
	case ClassChar:
		allowed = []int{1, 2, 4}
	}
	for _, a := range allowed {
		if a == size {
			return nil
		}
	}
	return NewParseError(loc, "invalid size %d for primitive class", size)
}

// struct := 'struct' NAME (':' opt_list)? '{' member* '}' ';'?
func (p *Parser) parseStruct(loc SourceLocation) (*RawStruct, error) {
	name, err := p.expectWord()
	if err != nil {
		return nil, err
	}
	var opts []Option
	if p.tryPunct(":") {
		opts, err = p.parseOptList()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	var members []RawMember
	for {
		if p.tryPunct("}") {
			break
		}
		m, err := p.parseMember()
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	p.trySemicolon()
	return &RawStruct{Name: name, Opts: opts, Members: members, Loc: loc}, nil
}

// member := type NAME (':' opt_list)? ';'
func (p *Parser) parseMember() (RawMember, error) {
	typ, err := p.parseType()
	if err != nil {
		return RawMember{}, err
	}
	name, err := p.expectWord()
	if err != nil {
		return RawMember{}, err
	}
	var opts []Option
	if p.tryPunct(":") {
		opts, err = p.parseOptList()
		if err != nil {
			return RawMember{}, err
		}
	}
	if _, err := p.expectPunct(";"); err != nil {
		return RawMember{}, err
	}
	return RawMember{Name: name, Type: typ, Opts: opts, Loc: typ.Loc}, nil
}

// type := (NAME | '__cstring' '<' type '>' | 'void') ('*' | '[' expr_list ']')*
func (p *Parser) parseType() (RawTypeRef, error) {
	tok, err := p.tok.Peek()
	if err != nil {
		return RawTypeRef{}, err
	}
	loc := tok.Loc
	var base RawTypeRef
	switch {
	case tok.Kind == TokWord && tok.Word == "void":
		p.tok.Next()
		base = RawTypeRef{Void: true, Loc: loc}
	case tok.Kind == TokWord && tok.Word == "__cstring":
		p.tok.Next()
		if _, err := p.expectPunct("<"); err != nil {
			return RawTypeRef{}, err
		}
		inner, err := p.parseType()
		if err != nil {
			return RawTypeRef{}, err
		}
		if _, err := p.expectPunct(">"); err != nil {
			return RawTypeRef{}, err
		}
		base = RawTypeRef{Cstring: &inner, Loc: loc}
	case tok.Kind == TokWord:
		p.tok.Next()
		base = RawTypeRef{Name: tok.Word, Loc: loc}
	default:
		return RawTypeRef{}, NewParseError(loc, "expected a type, got %q", tokenDesc(tok))
	}

	for {
		nt, err := p.tok.Peek()
		if err != nil {
			return RawTypeRef{}, err
		}
		if nt.Kind != TokPunct {
			break
		}
		if nt.Punct == "*" {
			p.tok.Next()
			base.Wraps = append(base.Wraps, RawWrap{Kind: WrapPointer})
			continue
		}
		if nt.Punct == "[" {
			p.tok.Next()
			dims, err := p.parseExprList()
			if err != nil {
				return RawTypeRef{}, err
			}
			if _, err := p.expectPunct("]"); err != nil {
				return RawTypeRef{}, err
			}
			base.Wraps = append(base.Wraps, RawWrap{Kind: WrapArray, Dims: dims})
			continue
		}
		break
	}
	return base, nil
}

func (p *Parser) parseExprList() ([]Expression, error) {
	var exprs []Expression
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	exprs = append(exprs, e)
	for p.tryPunct(",") {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
	return exprs, nil
}

// enum := 'enum' NAME '{' enum_members '}' ';'?
func (p *Parser) parseEnum(loc SourceLocation) (*RawEnum, error) {
	name, err := p.expectWord()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	var members []RawEnumMember
	for {
		if p.tryPunct("}") {
			break
		}
		m, err := p.parseEnumMember()
		if err != nil {
			return nil, err
		}
		members = append(members, m)
		if !p.tryPunct(",") {
			if _, err := p.expectPunct("}"); err != nil {
				return nil, err
			}
			break
		}
	}
	p.trySemicolon()
	return &RawEnum{Name: name, Members: members, Loc: loc}, nil
}

// enum_member := NAME ('=' expr)?
func (p *Parser) parseEnumMember() (RawEnumMember, error) {
	tok, err := p.expect(TokWord)
	if err != nil {
		return RawEnumMember{}, err
	}
	var value Expression
	if p.tryPunct("=") {
		value, err = p.parseExpr()
		if err != nil {
			return RawEnumMember{}, err
		}
	}
	return RawEnumMember{Name: tok.Word, Value: value, Loc: tok.Loc}, nil
}

// iconst := 'iconst' NAME '=' expr ';'?
func (p *Parser) parseIconst(loc SourceLocation) (*RawConstant, error) {
	name, err := p.expectWord()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct("="); err != nil {
		return nil, err
	}
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	p.trySemicolon()
	return &RawConstant{Name: name, Value: value, Loc: loc}, nil
}

// import := 'import' STRING ';'?
func (p *Parser) parseImport(loc SourceLocation) (*RawImport, error) {
	tok, err := p.expect(TokString)
	if err != nil {
		return nil, err
	}
	p.trySemicolon()
	return &RawImport{Path: tok.Str, Loc: loc}, nil
}

// genconfig := 'generator' NAME ':' opt_list ';'?
func (p *Parser) parseGeneratorConfig(loc SourceLocation) (*RawGeneratorConfig, error) {
	name, err := p.expectWord()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(":"); err != nil {
		return nil, err
	}
	opts, err := p.parseOptList()
	if err != nil {
		return nil, err
	}
	p.trySemicolon()
	return &RawGeneratorConfig{Name: name, Opts: opts, Loc: loc}, nil
}

// opt_list := opt (',' opt)*
func (p *Parser) parseOptList() ([]Option, error) {
	var opts []Option
	o, err := p.parseOpt()
	if err != nil {
		return nil, err
	}
	opts = append(opts, o)
	for p.tryPunct(",") {
		o, err := p.parseOpt()
		if err != nil {
			return nil, err
		}
		opts = append(opts, o)
	}
	return opts, nil
}

// opt := NAME ( '(' opt_param_list ')' )?
func (p *Parser) parseOpt() (Option, error) {
	tok, err := p.expect(TokWord)
	if err != nil {
		return Option{}, err
	}
	opt := Option{Name: tok.Word, Keyed: map[string]OptValue{}, Loc: tok.Loc}
	if p.tryPunct("(") {
		for {
			if p.tryPunct(")") {
				break
			}
			if err := p.parseOptParam(&opt); err != nil {
				return Option{}, err
			}
			if !p.tryPunct(",") {
				if _, err := p.expectPunct(")"); err != nil {
					return Option{}, err
				}
				break
			}
		}
	}
	return opt, nil
}

// opt_param := NAME '=' (INT|NAME|STRING) | NAME | STRING | INT
func (p *Parser) parseOptParam(opt *Option) error {
	tok, err := p.tok.Peek()
	if err != nil {
		return err
	}
	if tok.Kind == TokWord {
		p.tok.Next()
		if p.tryPunct("=") {
			v, err := p.parseOptValue()
			if err != nil {
				return err
			}
			opt.Keyed[tok.Word] = v
			return nil
		}
		opt.Positional = append(opt.Positional, OptValue{Kind: OptIdent, Str: tok.Word})
		return nil
	}
	v, err := p.parseOptValue()
	if err != nil {
		return err
	}
	opt.Positional = append(opt.Positional, v)
	return nil
}

func (p *Parser) parseOptValue() (OptValue, error) {
	tok, err := p.tok.Next()
	if err != nil {
		return OptValue{}, err
	}
	switch tok.Kind {
	case TokInt:
		return OptValue{Kind: OptInt, Int: tok.Int}, nil
	case TokString:
		return OptValue{Kind: OptString, Str: tok.Str}, nil
	case TokWord:
		return OptValue{Kind: OptIdent, Str: tok.Word}, nil
	default:
		return OptValue{}, NewParseError(tok.Loc, "expected int, name or string, got %q", tokenDesc(tok))
	}
}

// ---- expression grammar ----

// expr := shift_expr
func (p *Parser) parseExpr() (Expression, error) {
	return p.parseShift()
}

// shift_expr := add_expr (('<<'|'>>') add_expr)*
func (p *Parser) parseShift() (Expression, error) {
	lhs, err := p.parseAdd()
	if err != nil {
		return nil, err
	}
	for {
		if p.tryPunct("<<") {
			rhs, err := p.parseAdd()
			if err != nil {
				return nil, err
			}
			lhs = BinOp{Kind: OpShl, Lhs: lhs, Rhs: rhs}
			continue
		}
		if p.tryPunct(">>") {
			rhs, err := p.parseAdd()
			if err != nil {
				return nil, err
			}
			lhs = BinOp{Kind: OpShr, Lhs: lhs, Rhs: rhs}
			continue
		}
		return lhs, nil
	}
}

// add_expr := mul_expr (('+'|'-') mul_expr)*
func (p *Parser) parseAdd() (Expression, error) {
	lhs, err := p.parseMul()
	if err != nil {
		return nil, err
	}
	for {
		if p.tryPunct("+") {
			rhs, err := p.parseMul()
			if err != nil {
				return nil, err
			}
			lhs = BinOp{Kind: OpAdd, Lhs: lhs, Rhs: rhs}
			continue
		}
		if p.tryPunct("-") {
			rhs, err := p.parseMul()
			if err != nil {
				return nil, err
			}
			lhs = BinOp{Kind: OpSub, Lhs: lhs, Rhs: rhs}
			continue
		}
		return lhs, nil
	}
}

// mul_expr := prim_expr (('*'|'/') prim_expr)*
func (p *Parser) parseMul() (Expression, error) {
	lhs, err := p.parsePrim()
	if err != nil {
		return nil, err
	}
	for {
		if p.tryPunct("*") {
			rhs, err := p.parsePrim()
			if err != nil {
				return nil, err
			}
			lhs = BinOp{Kind: OpMul, Lhs: lhs, Rhs: rhs}
			continue
		}
		if p.tryPunct("/") {
			rhs, err := p.parsePrim()
			if err != nil {
				return nil, err
			}
			lhs = BinOp{Kind: OpDiv, Lhs: lhs, Rhs: rhs}
			continue
		}
		return lhs, nil
	}
}

// prim_expr := INT | '(' expr ')' | dotted_name | '-' prim_expr
func (p *Parser) parsePrim() (Expression, error) {
	tok, err := p.tok.Peek()
	if err != nil {
		return nil, err
	}
	switch {
	case tok.Kind == TokInt:
		p.tok.Next()
		return IntLit{Value: tok.Int}, nil
	case tok.Kind == TokPunct && tok.Punct == "(":
		p.tok.Next()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return e, nil
	case tok.Kind == TokPunct && tok.Punct == "-":
		p.tok.Next()
		e, err := p.parsePrim()
		if err != nil {
			return nil, err
		}
		return Neg{Expr: e}, nil
	case tok.Kind == TokWord:
		name, err := p.parseDottedName()
		if err != nil {
			return nil, err
		}
		return NamedRef{Name: name}, nil
	default:
		return nil, NewParseError(tok.Loc, "expected an expression, got %q", tokenDesc(tok))
	}
}

func (p *Parser) parseDottedName() (string, error) {
	tok, err := p.expect(TokWord)
	if err != nil {
		return "", err
	}
	name := tok.Word
	for {
		nt, err := p.tok.Peek()
		if err != nil {
			return "", err
		}
		if nt.Kind != TokPunct || nt.Punct != "." {
			break
		}
		p.tok.Next()
		part, err := p.expectWord()
		if err != nil {
			return "", err
		}
		name += "." + part
	}
	return name, nil
}

// ---- token helpers ----

func (p *Parser) expect(kind TokenKind) (Token, error) {
	tok, err := p.tok.Next()
	if err != nil {
		return Token{}, err
	}
	if tok.Kind != kind {
		return Token{}, NewParseError(tok.Loc, "expected %s, got %s", kind, tokenDesc(tok))
	}
	return tok, nil
}

func (p *Parser) expectWord() (string, error) {
	tok, err := p.expect(TokWord)
	if err != nil {
		return "", err
	}
	return tok.Word, nil
}

func (p *Parser) expectPunct(punct string) (Token, error) {
	tok, err := p.tok.Next()
	if err != nil {
		return Token{}, err
	}
	if tok.Kind != TokPunct || tok.Punct != punct {
		return Token{}, NewParseError(tok.Loc, "expected %q, got %s", punct, tokenDesc(tok))
	}
	return tok, nil
}

func (p *Parser) tryPunct(punct string) bool {
	tok, err := p.tok.Peek()
	if err != nil {
		return false
	}
	if tok.Kind == TokPunct && tok.Punct == punct {
		p.tok.Next()
		return true
	}
	return false
}

func (p *Parser) trySemicolon() {
	p.tryPunct(";")
}

func tokenDesc(t Token) string {
	switch t.Kind {
	case TokWord:
		return fmt.Sprintf("word %q", t.Word)
	case TokInt:
		return fmt.Sprintf("int %d", t.Int)
	case TokString:
		return fmt.Sprintf("string %q", t.Str)
	case TokPunct:
		return fmt.Sprintf("punct %q", t.Punct)
	case TokEOF:
		return "eof"
	default:
		return "?"
	}
}
