package cypher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizeKeywordsCaseInsensitiveByDefault(t *testing.T) {
	toks := Tokenize("match (n) where n.age > 30 return n", DefaultLexerOptions())
	require.NotEmpty(t, toks)
	assert.Equal(t, TokenMatch, toks[0].Kind)

	var kinds []TokenKind
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	assert.Contains(t, kinds, TokenWhere)
	assert.Contains(t, kinds, TokenReturn)
	assert.Contains(t, kinds, TokenGreater)
	assert.Equal(t, TokenEOF, kinds[len(kinds)-1])
}

func TestTokenizeRespectsCaseSensitiveOption(t *testing.T) {
	opts := LexerOptions{IgnoreCase: false}
	toks := Tokenize("match (n)", opts)
	assert.Equal(t, TokenIdentifier, toks[0].Kind, "lowercase 'match' is not a keyword when IgnoreCase is false")

	toks = Tokenize("MATCH (n)", opts)
	assert.Equal(t, TokenMatch, toks[0].Kind)
}

func TestTokenizeArrowsAndComparisonOperators(t *testing.T) {
	toks := Tokenize("()-->()<--()<>()<=()>=", DefaultLexerOptions())
	var kinds []TokenKind
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	assert.Contains(t, kinds, TokenArrowRight)
	assert.Contains(t, kinds, TokenArrowLeft)
	assert.Contains(t, kinds, TokenNotEquals)
	assert.Contains(t, kinds, TokenLessEq)
	assert.Contains(t, kinds, TokenGreaterEq)
}

func TestTokenizeStringsAndNumbers(t *testing.T) {
	toks := Tokenize(`{name: 'Ada', age: 36.5}`, DefaultLexerOptions())
	var strTok, numTok *Token
	for i := range toks {
		switch toks[i].Kind {
		case TokenString:
			strTok = &toks[i]
		case TokenNumber:
			numTok = &toks[i]
		}
	}
	require.NotNil(t, strTok)
	require.NotNil(t, numTok)
	assert.Equal(t, "Ada", strTok.Lexeme)
	assert.Equal(t, "36.5", numTok.Lexeme)
}

func TestTokenizeUnterminatedStringIsPermissive(t *testing.T) {
	toks := Tokenize(`'never closed`, DefaultLexerOptions())
	require.Len(t, toks, 2)
	assert.Equal(t, TokenString, toks[0].Kind)
	assert.Equal(t, "never closed", toks[0].Lexeme)
}

func TestTokenizeDropsCommentsByDefault(t *testing.T) {
	toks := Tokenize("MATCH (n) // a trailing comment\nRETURN n", DefaultLexerOptions())
	for _, tok := range toks {
		assert.NotEqual(t, "// a trailing comment", tok.Lexeme)
	}
}

func TestLexerCursorPeekNextReset(t *testing.T) {
	lex := NewLexer("MATCH (n)", DefaultLexerOptions())
	assert.Equal(t, TokenMatch, lex.Peek(0).Kind)
	assert.Equal(t, TokenLParen, lex.Peek(1).Kind)
	assert.False(t, lex.IsAtEnd())

	first := lex.Next()
	assert.Equal(t, TokenMatch, first.Kind)
	assert.Equal(t, TokenLParen, lex.Peek(0).Kind)

	lex.Reset()
	assert.Equal(t, TokenMatch, lex.Peek(0).Kind)
}
