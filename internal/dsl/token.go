package dsl

import "matryoshka/internal/diag"

type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIdent
	TokenString // "..." литерал
	TokenNumber
	TokenLBrace
	TokenRBrace
	TokenLBracket
	TokenRBracket
	TokenLParen
	TokenRParen
	TokenComma
	TokenDot
	TokenEq
	TokenQuestion
	TokenAt   // @
	TokenAtAt // @@
	TokenInvalid
)

func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "end of file"
	case TokenIdent:
		return "identifier"
	case TokenString:
		return "string"
	case TokenNumber:
		return "number"
	case TokenLBrace:
		return "'{'"
	case TokenRBrace:
		return "'}'"
	case TokenLBracket:
		return "'['"
	case TokenRBracket:
		return "']'"
	case TokenLParen:
		return "'('"
	case TokenRParen:
		return "')'"
	case TokenComma:
		return "','"
	case TokenDot:
		return "'.'"
	case TokenEq:
		return "'='"
	case TokenQuestion:
		return "'?'"
	case TokenAt:
		return "'@'"
	case TokenAtAt:
		return "'@@'"
	default:
		return "invalid token"
	}
}

type Token struct {
	Type  TokenType
	Value string
	Pos   diag.Pos
}
