package cypher

import (
	"fmt"
	"strconv"
	"strings"
)

// Parser builds a Statement tree from a Lexer's token stream. Errors are
// accumulated into the returned Statement rather than raised — parsing
// never aborts at the first mistake, matching spec.md §4.3.
type Parser struct {
	lex *Lexer
	err []ParseError
}

// NewParser creates a parser over already-tokenized source.
func NewParser(lex *Lexer) *Parser {
	return &Parser{lex: lex}
}

// Parse tokenizes text with opts and parses it into a Statement.
func Parse(text string, opts LexerOptions) *Statement {
	p := NewParser(NewLexer(text, opts))
	return p.ParseStatement()
}

func (p *Parser) errorf(tok Token, format string, args ...any) {
	p.err = append(p.err, ParseError{
		Message: fmt.Sprintf(format, args...),
		Line:    tok.Line,
		Column:  tok.Column,
	})
}

// ParseStatement parses clauses until end of input. Clauses may appear in
// any order but at most once each; an unexpected token at a clause
// boundary is reported and skipped so parsing can continue.
func (p *Parser) ParseStatement() *Statement {
	stmt := &Statement{}

	seen := map[TokenKind]bool{}
	for !p.lex.IsAtEnd() {
		tok := p.lex.Peek(0)
		switch tok.Kind {
		case TokenMatch:
			if seen[TokenMatch] {
				p.errorf(tok, "duplicate MATCH clause")
				p.skipClause()
				continue
			}
			seen[TokenMatch] = true
			stmt.Match = p.parseMatch()

		case TokenWhere:
			if seen[TokenWhere] {
				p.errorf(tok, "duplicate WHERE clause")
				p.skipClause()
				continue
			}
			seen[TokenWhere] = true
			stmt.Where = p.parseWhere()

		case TokenCreate:
			if seen[TokenCreate] {
				p.errorf(tok, "duplicate CREATE clause")
				p.skipClause()
				continue
			}
			seen[TokenCreate] = true
			stmt.Create = p.parseCreate()

		case TokenSet:
			if seen[TokenSet] {
				p.errorf(tok, "duplicate SET clause")
				p.skipClause()
				continue
			}
			seen[TokenSet] = true
			stmt.Set = p.parseSet()

		case TokenDelete, TokenDetach:
			if seen[TokenDelete] {
				p.errorf(tok, "duplicate DELETE clause")
				p.skipClause()
				continue
			}
			seen[TokenDelete] = true
			stmt.Delete = p.parseDelete()

		case TokenReturn:
			if seen[TokenReturn] {
				p.errorf(tok, "duplicate RETURN clause")
				p.skipClause()
				continue
			}
			seen[TokenReturn] = true
			stmt.Return = p.parseReturn()

		case TokenEOF:
			stmt.Errors = p.err
			return stmt

		default:
			p.errorf(tok, "unexpected token %q at clause boundary", tok.Lexeme)
			p.lex.Next()
		}
	}

	stmt.Errors = p.err
	return stmt
}

// skipClause advances past tokens until the next clause keyword or EOF,
// used to recover from a duplicate-clause error. The duplicate clause's
// own keyword is consumed first.
func (p *Parser) skipClause() {
	p.lex.Next()
	for !p.lex.IsAtEnd() {
		switch p.lex.Peek(0).Kind {
		case TokenMatch, TokenWhere, TokenCreate, TokenSet, TokenDelete, TokenDetach, TokenReturn:
			return
		}
		p.lex.Next()
	}
}

// expect consumes the current token if it has kind k, else records an
// error and returns false without advancing.
func (p *Parser) expect(k TokenKind) (Token, bool) {
	tok := p.lex.Peek(0)
	if tok.Kind != k {
		p.errorf(tok, "expected %s, got %q", k, tok.Lexeme)
		return tok, false
	}
	return p.lex.Next(), true
}

// --- MATCH ---

func (p *Parser) parseMatch() *MatchClause {
	p.lex.Next() // MATCH
	clause := &MatchClause{}
	clause.Patterns = append(clause.Patterns, p.parsePathPattern())
	for p.lex.Peek(0).Kind == TokenComma {
		p.lex.Next()
		clause.Patterns = append(clause.Patterns, p.parsePathPattern())
	}
	return clause
}

func (p *Parser) parsePathPattern() PathPattern {
	path := PathPattern{Start: p.parseNodePattern()}
	for p.lex.Peek(0).Kind == TokenMinus || p.lex.Peek(0).Kind == TokenArrowLeft {
		rel, dirHint := p.parseRelationshipPattern()
		node := p.parseNodePattern()
		rel.Direction = dirHint
		path.Segments = append(path.Segments, pathSegment{Relationship: rel, Node: node})
	}
	return path
}

func (p *Parser) parseNodePattern() NodePattern {
	np := NodePattern{Properties: map[string]Literal{}}
	if _, ok := p.expect(TokenLParen); !ok {
		return np
	}

	if p.lex.Peek(0).Kind == TokenIdentifier {
		np.Variable = p.lex.Next().Lexeme
	}

	for p.lex.Peek(0).Kind == TokenColon {
		p.lex.Next()
		if tok, ok := p.expect(TokenIdentifier); ok {
			np.Labels = append(np.Labels, tok.Lexeme)
		}
	}
	if len(np.Labels) > 1 {
		p.errorf(p.lex.Peek(0), "single label supported, but got %s", strings.Join(np.Labels, ","))
	}

	if p.lex.Peek(0).Kind == TokenLBrace {
		np.Properties = p.parsePropertyMap()
	}

	p.expect(TokenRParen)
	return np
}

func (p *Parser) parsePropertyMap() map[string]Literal {
	props := map[string]Literal{}
	p.lex.Next() // {
	if p.lex.Peek(0).Kind == TokenRBrace {
		p.lex.Next()
		return props
	}
	for {
		key, ok := p.expect(TokenIdentifier)
		if !ok {
			break
		}
		p.expect(TokenColon)
		props[key.Lexeme] = p.parseLiteral()
		if p.lex.Peek(0).Kind == TokenComma {
			p.lex.Next()
			continue
		}
		break
	}
	p.expect(TokenRBrace)
	return props
}

func (p *Parser) parseLiteral() Literal {
	tok := p.lex.Peek(0)
	switch tok.Kind {
	case TokenString:
		p.lex.Next()
		return Literal{Value: tok.Lexeme, DataType: LiteralString}
	case TokenNumber:
		p.lex.Next()
		return Literal{Value: parseNumber(tok.Lexeme), DataType: LiteralNumber}
	case TokenBoolean:
		p.lex.Next()
		return Literal{Value: strings.EqualFold(tok.Lexeme, "true"), DataType: LiteralBoolean}
	case TokenNull:
		p.lex.Next()
		return Literal{Value: nil, DataType: LiteralNull}
	case TokenMinus:
		p.lex.Next()
		num := p.parseLiteral()
		if f, ok := num.Value.(float64); ok {
			return Literal{Value: -f, DataType: LiteralNumber}
		}
		return num
	default:
		p.errorf(tok, "expected a literal, got %q", tok.Lexeme)
		p.lex.Next()
		return Literal{Value: nil, DataType: LiteralNull}
	}
}

func parseNumber(lexeme string) float64 {
	f, _ := strconv.ParseFloat(lexeme, 64)
	return f
}

// parseRelationshipPattern parses `-[...]->`, `<-[...]-`, or `-[...]-` and
// returns the relationship along with the direction implied by the
// arrows (the caller still needs to apply it, since parseNodePattern for
// the far endpoint runs in between).
func (p *Parser) parseRelationshipPattern() (RelationshipPattern, Direction) {
	leftArrow := false
	if p.lex.Peek(0).Kind == TokenArrowLeft {
		leftArrow = true
		p.lex.Next()
	} else {
		p.expect(TokenMinus)
	}

	rel := RelationshipPattern{Properties: map[string]Literal{}}
	if p.lex.Peek(0).Kind == TokenLBracket {
		p.lex.Next()
		if p.lex.Peek(0).Kind == TokenIdentifier {
			rel.Variable = p.lex.Next().Lexeme
		}
		if p.lex.Peek(0).Kind == TokenColon {
			p.lex.Next()
			if tok, ok := p.expect(TokenIdentifier); ok {
				rel.Type = tok.Lexeme
			}
		}
		if p.lex.Peek(0).Kind == TokenStar {
			p.parseVarLength(&rel)
		}
		if p.lex.Peek(0).Kind == TokenLBrace {
			rel.Properties = p.parsePropertyMap()
		}
		p.expect(TokenRBracket)
	}

	rightArrow := false
	if p.lex.Peek(0).Kind == TokenArrowRight {
		rightArrow = true
		p.lex.Next()
	} else {
		p.expect(TokenMinus)
	}

	dir := DirAny
	switch {
	case rightArrow && !leftArrow:
		dir = DirOut
	case leftArrow && !rightArrow:
		dir = DirIn
	}
	return rel, dir
}

func (p *Parser) parseVarLength(rel *RelationshipPattern) {
	p.lex.Next() // *
	if p.lex.Peek(0).Kind != TokenNumber {
		return
	}
	min := int(parseNumber(p.lex.Next().Lexeme))
	rel.MinHops = &min
	max := min
	if p.lex.Peek(0).Kind == TokenDot && p.lex.Peek(1).Kind == TokenDot {
		p.lex.Next()
		p.lex.Next()
		if p.lex.Peek(0).Kind == TokenNumber {
			max = int(parseNumber(p.lex.Next().Lexeme))
		}
	}
	rel.MaxHops = &max
}

// --- WHERE ---

func (p *Parser) parseWhere() *WhereClause {
	p.lex.Next() // WHERE
	return &WhereClause{Expression: p.parseExpression()}
}

// --- CREATE ---

func (p *Parser) parseCreate() *CreateClause {
	p.lex.Next() // CREATE
	clause := &CreateClause{}
	clause.Items = append(clause.Items, p.parseCreateItem())
	for p.lex.Peek(0).Kind == TokenComma {
		p.lex.Next()
		clause.Items = append(clause.Items, p.parseCreateItem())
	}
	return clause
}

// parseCreateItem handles both `(n:Label {...})` and
// `(a)-[r:TYPE {...}]->(b)`, distinguishing by whether a relationship
// segment follows the first node.
func (p *Parser) parseCreateItem() CreateItem {
	start := p.parseNodePattern()
	if p.lex.Peek(0).Kind != TokenMinus && p.lex.Peek(0).Kind != TokenArrowLeft {
		return CreateItem{Node: &start}
	}
	rel, dir := p.parseRelationshipPattern()
	rel.Direction = dir
	end := p.parseNodePattern()
	from, to := start.Variable, end.Variable
	if dir == DirIn {
		from, to = to, from
	}
	return CreateItem{Relationship: &CreateRelationshipItem{
		FromVar:      from,
		Relationship: rel,
		ToVar:        to,
	}}
}

// --- SET ---

func (p *Parser) parseSet() *SetClause {
	p.lex.Next() // SET
	clause := &SetClause{}
	clause.Settings = append(clause.Settings, p.parseSetItem())
	for p.lex.Peek(0).Kind == TokenComma {
		p.lex.Next()
		clause.Settings = append(clause.Settings, p.parseSetItem())
	}
	return clause
}

func (p *Parser) parseSetItem() SetItem {
	item := SetItem{}
	if tok, ok := p.expect(TokenIdentifier); ok {
		item.Target = tok.Lexeme
	}
	p.expect(TokenDot)
	if tok, ok := p.expect(TokenIdentifier); ok {
		item.Property = tok.Lexeme
	}
	p.expect(TokenEquals)
	item.Value = p.parseExpression()
	return item
}

// --- DELETE ---

func (p *Parser) parseDelete() *DeleteClause {
	clause := &DeleteClause{}
	if p.lex.Peek(0).Kind == TokenDetach {
		clause.Detach = true
		p.lex.Next()
	}
	p.expect(TokenDelete)

	if tok, ok := p.expect(TokenIdentifier); ok {
		clause.Variables = append(clause.Variables, tok.Lexeme)
	}
	for p.lex.Peek(0).Kind == TokenComma {
		p.lex.Next()
		if tok, ok := p.expect(TokenIdentifier); ok {
			clause.Variables = append(clause.Variables, tok.Lexeme)
		}
	}
	return clause
}

// --- RETURN ---

func (p *Parser) parseReturn() *ReturnClause {
	p.lex.Next() // RETURN
	clause := &ReturnClause{}
	clause.Items = append(clause.Items, p.parseReturnItem())
	for p.lex.Peek(0).Kind == TokenComma {
		p.lex.Next()
		clause.Items = append(clause.Items, p.parseReturnItem())
	}
	return clause
}

func (p *Parser) parseReturnItem() ReturnItem {
	item := ReturnItem{}
	if tok, ok := p.expect(TokenIdentifier); ok {
		item.Variable = tok.Lexeme
	}
	if p.lex.Peek(0).Kind == TokenDot {
		p.lex.Next()
		if tok, ok := p.expect(TokenIdentifier); ok {
			item.Property = tok.Lexeme
		}
	}
	return item
}

// --- Expressions (precedence low to high: or, and, not, comparison) ---

func (p *Parser) parseExpression() Expression {
	return p.parseOr()
}

func (p *Parser) parseOr() Expression {
	left := p.parseAnd()
	for p.lex.Peek(0).Kind == TokenOr || p.lex.Peek(0).Kind == TokenXor {
		op := OpOr
		if p.lex.Peek(0).Kind == TokenXor {
			op = OpXor
		}
		p.lex.Next()
		right := p.parseAnd()
		left = &LogicalExpr{Op: op, Operands: []Expression{left, right}}
	}
	return left
}

func (p *Parser) parseAnd() Expression {
	left := p.parseNot()
	for p.lex.Peek(0).Kind == TokenAnd {
		p.lex.Next()
		right := p.parseNot()
		left = &LogicalExpr{Op: OpAnd, Operands: []Expression{left, right}}
	}
	return left
}

func (p *Parser) parseNot() Expression {
	if p.lex.Peek(0).Kind == TokenNot {
		p.lex.Next()
		if p.lex.Peek(0).Kind == TokenExists {
			e := p.parseExists()
			e.Positive = false
			return e
		}
		operand := p.parseNot()
		return &LogicalExpr{Op: OpNot, Operands: []Expression{operand}}
	}
	if p.lex.Peek(0).Kind == TokenExists {
		e := p.parseExists()
		return e
	}
	return p.parseComparison()
}

func (p *Parser) parseExists() *ExistsExpr {
	p.lex.Next() // EXISTS
	p.expect(TokenLParen)
	pattern := p.parsePathPattern()
	p.expect(TokenRParen)
	return &ExistsExpr{Positive: true, Pattern: pattern}
}

func (p *Parser) parseComparison() Expression {
	left := p.parsePrimary()

	switch p.lex.Peek(0).Kind {
	case TokenEquals, TokenNotEquals, TokenLess, TokenLessEq, TokenGreater, TokenGreaterEq:
		op := compareOpFor(p.lex.Next().Kind)
		right := p.parsePrimary()
		return &ComparisonExpr{Left: left, Op: op, Right: right}

	case TokenIs:
		p.lex.Next()
		op := OpIsNull
		if p.lex.Peek(0).Kind == TokenNot {
			p.lex.Next()
			op = OpIsNotNull
		}
		p.expect(TokenNull)
		return &ComparisonExpr{Left: left, Op: op}

	case TokenContains:
		p.lex.Next()
		right := p.parsePrimary()
		return &ComparisonExpr{Left: left, Op: OpContains, Right: right}

	case TokenStarts:
		p.lex.Next()
		p.expect(TokenWith)
		right := p.parsePrimary()
		return &ComparisonExpr{Left: left, Op: OpStartsWith, Right: right}

	case TokenEnds:
		p.lex.Next()
		p.expect(TokenWith)
		right := p.parsePrimary()
		return &ComparisonExpr{Left: left, Op: OpEndsWith, Right: right}

	case TokenIn:
		p.lex.Next()
		right := p.parsePrimary()
		return &ComparisonExpr{Left: left, Op: OpIn, Right: right}

	default:
		return left
	}
}

func compareOpFor(k TokenKind) ComparisonOp {
	switch k {
	case TokenEquals:
		return OpEquals
	case TokenNotEquals:
		return OpNotEquals
	case TokenLess:
		return OpLess
	case TokenLessEq:
		return OpLessEq
	case TokenGreater:
		return OpGreater
	case TokenGreaterEq:
		return OpGreaterEq
	default:
		return OpEquals
	}
}

func (p *Parser) parsePrimary() Expression {
	tok := p.lex.Peek(0)
	switch tok.Kind {
	case TokenLParen:
		p.lex.Next()
		e := p.parseExpression()
		p.expect(TokenRParen)
		return e

	case TokenLBracket:
		return p.parseListLiteral()

	case TokenString, TokenNumber, TokenBoolean, TokenNull, TokenMinus:
		return &LiteralExpr{Literal: p.parseLiteral()}

	case TokenIdentifier:
		p.lex.Next()
		if p.lex.Peek(0).Kind == TokenDot {
			p.lex.Next()
			if prop, ok := p.expect(TokenIdentifier); ok {
				return &PropertyExpr{Object: tok.Lexeme, Name: prop.Lexeme}
			}
		}
		return &VariableExpr{Name: tok.Lexeme}

	default:
		p.errorf(tok, "unexpected token %q in expression", tok.Lexeme)
		p.lex.Next()
		return &LiteralExpr{Literal: Literal{Value: nil, DataType: LiteralNull}}
	}
}

// parseListLiteral parses a bracketed literal list, used only as the
// right-hand operand of IN (e.g. n.status IN ['active', 'pending']).
// General list literals elsewhere are out of scope per spec.md §1.
func (p *Parser) parseListLiteral() Expression {
	p.lex.Next() // [
	var items []any
	if p.lex.Peek(0).Kind != TokenRBracket {
		for {
			items = append(items, p.parseLiteral().Value)
			if p.lex.Peek(0).Kind == TokenComma {
				p.lex.Next()
				continue
			}
			break
		}
	}
	p.expect(TokenRBracket)
	return &LiteralExpr{Literal: Literal{Value: items, DataType: LiteralList}}
}
