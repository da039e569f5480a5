package dsl

import "matryoshka/internal/diag"

// lexer режет исходник схемы на токены. Комментарии (// ...) пропускаем,
// переводы строк значимы только для позиций.
type lexer struct {
	file string
	src  string
	off  int
	line int
	col  int
}

func newLexer(file, src string) *lexer {
	return &lexer{file: file, src: src, line: 1, col: 1}
}

func (l *lexer) pos() diag.Pos {
	return diag.Pos{File: l.file, Line: l.line, Column: l.col}
}

func (l *lexer) peek() byte {
	if l.off >= len(l.src) {
		return 0
	}
	return l.src[l.off]
}

func (l *lexer) advance() byte {
	ch := l.src[l.off]
	l.off++
	if ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return ch
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || (ch >= '0' && ch <= '9')
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func (l *lexer) skipSpaceAndComments() {
	for l.off < len(l.src) {
		ch := l.peek()
		if ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' {
			l.advance()
			continue
		}
		if ch == '/' && l.off+1 < len(l.src) && l.src[l.off+1] == '/' {
			for l.off < len(l.src) && l.peek() != '\n' {
				l.advance()
			}
			continue
		}
		return
	}
}

func (l *lexer) next() Token {
	l.skipSpaceAndComments()
	pos := l.pos()
	if l.off >= len(l.src) {
		return Token{Type: TokenEOF, Pos: pos}
	}

	ch := l.peek()
	switch {
	case isIdentStart(ch):
		start := l.off
		for l.off < len(l.src) && isIdentPart(l.peek()) {
			l.advance()
		}
		return Token{Type: TokenIdent, Value: l.src[start:l.off], Pos: pos}

	case isDigit(ch):
		start := l.off
		for l.off < len(l.src) && (isDigit(l.peek()) || l.peek() == '.') {
			l.advance()
		}
		return Token{Type: TokenNumber, Value: l.src[start:l.off], Pos: pos}

	case ch == '"':
		l.advance()
		start := l.off
		for l.off < len(l.src) && l.peek() != '"' && l.peek() != '\n' {
			l.advance()
		}
		val := l.src[start:l.off]
		if l.off < len(l.src) && l.peek() == '"' {
			l.advance()
			return Token{Type: TokenString, Value: val, Pos: pos}
		}
		// незакрытая строка
		return Token{Type: TokenInvalid, Value: val, Pos: pos}
	}

	l.advance()
	switch ch {
	case '{':
		return Token{Type: TokenLBrace, Value: "{", Pos: pos}
	case '}':
		return Token{Type: TokenRBrace, Value: "}", Pos: pos}
	case '[':
		return Token{Type: TokenLBracket, Value: "[", Pos: pos}
	case ']':
		return Token{Type: TokenRBracket, Value: "]", Pos: pos}
	case '(':
		return Token{Type: TokenLParen, Value: "(", Pos: pos}
	case ')':
		return Token{Type: TokenRParen, Value: ")", Pos: pos}
	case ',':
		return Token{Type: TokenComma, Value: ",", Pos: pos}
	case '.':
		return Token{Type: TokenDot, Value: ".", Pos: pos}
	case '=':
		return Token{Type: TokenEq, Value: "=", Pos: pos}
	case '?':
		return Token{Type: TokenQuestion, Value: "?", Pos: pos}
	case '@':
		if l.off < len(l.src) && l.peek() == '@' {
			l.advance()
			return Token{Type: TokenAtAt, Value: "@@", Pos: pos}
		}
		return Token{Type: TokenAt, Value: "@", Pos: pos}
	}
	return Token{Type: TokenInvalid, Value: string(ch), Pos: pos}
}

// tokenize прогоняет весь исходник; последний токен всегда EOF
func tokenize(file, src string) []Token {
	l := newLexer(file, src)
	var out []Token
	for {
		t := l.next()
		out = append(out, t)
		if t.Type == TokenEOF {
			return out
		}
	}
}
