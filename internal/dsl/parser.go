package dsl

import (
	"fmt"
	"strings"

	"matryoshka/internal/diag"
)

// Parse разбирает исходник схемы в синтаксическое дерево. Синтаксические
// ошибки не прерывают разбор: паника запрещена, каждая ошибка уходит в
// коллектор, а парсер перескакивает к границе следующей top-level декларации.
func Parse(file, src string, col *diag.Collector) *Schema {
	p := &parser{tokens: tokenize(file, src), col: col}
	return p.parseSchema()
}

type parser struct {
	tokens []Token
	pos    int
	col    *diag.Collector
}

func (p *parser) current() Token { return p.tokens[p.pos] }

func (p *parser) advance() Token {
	t := p.tokens[p.pos]
	if t.Type != TokenEOF {
		p.pos++
	}
	return t
}

func (p *parser) check(tp TokenType) bool { return p.current().Type == tp }

func (p *parser) atEnd() bool { return p.check(TokenEOF) }

// checkKeyword — идентификатор с конкретным значением (у DSL нет
// зарезервированных слов, "model" может быть именем поля)
func (p *parser) checkKeyword(kw string) bool {
	return p.check(TokenIdent) && p.current().Value == kw
}

func (p *parser) expect(tp TokenType) (Token, bool) {
	if p.check(tp) {
		return p.advance(), true
	}
	p.syntaxError(tp.String())
	return p.current(), false
}

func (p *parser) syntaxError(expected string) {
	found := p.current()
	what := found.Type.String()
	if found.Type == TokenIdent || found.Type == TokenString || found.Type == TokenNumber {
		what = fmt.Sprintf("%s %q", what, found.Value)
	}
	p.col.Add(diag.Diagnostic{
		Severity: diag.Error,
		Code:     diag.CodeSyntax,
		Message:  fmt.Sprintf("expected %s, found %s", expected, what),
		Pos:      found.Pos,
	})
}

var topKeywords = map[string]struct{}{
	"datasource": {}, "generator": {}, "type": {}, "model": {},
}

// syncTop пропускает токены до начала следующей top-level декларации.
// Глубину скобок учитываем, чтобы не принять поле "model" внутри блока
// за начало декларации.
func (p *parser) syncTop() {
	depth := 0
	for !p.atEnd() {
		t := p.current()
		switch t.Type {
		case TokenLBrace:
			depth++
		case TokenRBrace:
			if depth > 0 {
				depth--
			}
		case TokenIdent:
			if depth == 0 {
				if _, ok := topKeywords[t.Value]; ok {
					return
				}
			}
		}
		p.advance()
	}
}

func (p *parser) parseSchema() *Schema {
	s := &Schema{}
	for !p.atEnd() {
		switch {
		case p.checkKeyword("datasource"):
			if d, ok := p.parseConfigBlock(); ok {
				s.Datasources = append(s.Datasources, Datasource(d))
			}
		case p.checkKeyword("generator"):
			if g, ok := p.parseConfigBlock(); ok {
				s.Generators = append(s.Generators, Generator(g))
			}
		case p.checkKeyword("type"):
			if t, ok := p.parseType(); ok {
				s.Types = append(s.Types, t)
			}
		case p.checkKeyword("model"):
			if m, ok := p.parseModel(); ok {
				s.Models = append(s.Models, m)
			}
		default:
			p.syntaxError("'datasource', 'generator', 'type' or 'model'")
			p.advance()
			p.syncTop()
		}
	}
	return s
}

// configBlock — общая форма datasource/generator
type configBlock struct {
	Name  string
	Props []Prop
	Pos   diag.Pos
}

func (p *parser) parseConfigBlock() (configBlock, bool) {
	kw := p.advance() // datasource | generator
	name, ok := p.expect(TokenIdent)
	if !ok {
		p.syncTop()
		return configBlock{}, false
	}
	if _, ok := p.expect(TokenLBrace); !ok {
		p.syncTop()
		return configBlock{}, false
	}

	blk := configBlock{Name: name.Value, Pos: kw.Pos}
	for !p.check(TokenRBrace) && !p.atEnd() {
		key, ok := p.expect(TokenIdent)
		if !ok {
			p.skipToBlockEnd()
			break
		}
		if _, ok := p.expect(TokenEq); !ok {
			p.skipToBlockEnd()
			break
		}
		val, ok := p.parsePropValue()
		if !ok {
			p.skipToBlockEnd()
			break
		}
		blk.Props = append(blk.Props, Prop{Key: key.Value, Value: val, Pos: key.Pos})
	}
	p.expect(TokenRBrace)
	return blk, true
}

// parsePropValue — строка, число, идентификатор или вызов вида env("...").
// Значение возвращаем сырым текстом: семантика провайдеров не наша забота.
func (p *parser) parsePropValue() (string, bool) {
	switch p.current().Type {
	case TokenString:
		return p.advance().Value, true
	case TokenNumber:
		return p.advance().Value, true
	case TokenIdent:
		id := p.advance()
		if !p.check(TokenLParen) {
			return id.Value, true
		}
		p.advance() // (
		var args []string
		for !p.check(TokenRParen) && !p.atEnd() {
			switch p.current().Type {
			case TokenString:
				args = append(args, `"`+p.advance().Value+`"`)
			case TokenIdent, TokenNumber:
				args = append(args, p.advance().Value)
			case TokenComma:
				p.advance()
			default:
				p.syntaxError("argument")
				return "", false
			}
		}
		if _, ok := p.expect(TokenRParen); !ok {
			return "", false
		}
		return fmt.Sprintf("%s(%s)", id.Value, strings.Join(args, ", ")), true
	}
	p.syntaxError("value")
	return "", false
}

func (p *parser) parseType() (TypeDecl, bool) {
	kw := p.advance() // type
	name, ok := p.expect(TokenIdent)
	if !ok {
		p.syncTop()
		return TypeDecl{}, false
	}
	if _, ok := p.expect(TokenLBrace); !ok {
		p.syncTop()
		return TypeDecl{}, false
	}

	t := TypeDecl{Name: name.Value, Pos: kw.Pos}
	for !p.check(TokenRBrace) && !p.atEnd() {
		if p.check(TokenIdent) {
			if f, ok := p.parseField(); ok {
				t.Fields = append(t.Fields, f)
				continue
			}
		} else {
			p.syntaxError("field declaration")
		}
		p.skipToFieldBoundary()
	}
	p.expect(TokenRBrace)
	return t, true
}

func (p *parser) parseModel() (ModelDecl, bool) {
	kw := p.advance() // model
	name, ok := p.expect(TokenIdent)
	if !ok {
		p.syncTop()
		return ModelDecl{}, false
	}
	if _, ok := p.expect(TokenLBrace); !ok {
		p.syncTop()
		return ModelDecl{}, false
	}

	m := ModelDecl{Name: name.Value, Pos: kw.Pos}
	for !p.check(TokenRBrace) && !p.atEnd() {
		switch {
		case p.check(TokenAtAt):
			if a, ok := p.parseBlockAttr(); ok {
				m.Attrs = append(m.Attrs, a)
				continue
			}
		case p.check(TokenIdent):
			if f, ok := p.parseField(); ok {
				m.Fields = append(m.Fields, f)
				continue
			}
		default:
			p.syntaxError("field declaration or block attribute")
		}
		p.skipToFieldBoundary()
	}
	p.expect(TokenRBrace)
	return m, true
}

func (p *parser) parseField() (FieldDecl, bool) {
	name := p.advance()
	typ, ok := p.expect(TokenIdent)
	if !ok {
		return FieldDecl{}, false
	}

	f := FieldDecl{Name: name.Value, Type: typ.Value, Pos: name.Pos}
	if p.check(TokenLBracket) {
		p.advance()
		if _, ok := p.expect(TokenRBracket); !ok {
			return FieldDecl{}, false
		}
		f.IsArray = true
	}
	if p.check(TokenQuestion) {
		p.advance()
		f.Optional = true
	}

	for p.check(TokenAt) {
		attr, ok := p.parseFieldAttr()
		if !ok {
			return f, false
		}
		f.Attrs = append(f.Attrs, attr)
	}
	return f, true
}

func (p *parser) parseFieldAttr() (FieldAttr, bool) {
	at := p.advance() // @
	name, ok := p.expect(TokenIdent)
	if !ok {
		return FieldAttr{}, false
	}
	attr := FieldAttr{Name: name.Value, Pos: at.Pos}
	if !p.check(TokenLParen) {
		return attr, true
	}
	p.advance() // (
	for !p.check(TokenRParen) && !p.atEnd() {
		switch p.current().Type {
		case TokenString, TokenIdent, TokenNumber:
			attr.Args = append(attr.Args, p.advance().Value)
		case TokenComma:
			p.advance()
		default:
			p.syntaxError("attribute argument")
			return attr, false
		}
	}
	if _, ok := p.expect(TokenRParen); !ok {
		return attr, false
	}
	return attr, true
}

// parseBlockAttr: @@unique([addresses.number, name]) и похожие
func (p *parser) parseBlockAttr() (BlockAttr, bool) {
	atat := p.advance() // @@
	name, ok := p.expect(TokenIdent)
	if !ok {
		return BlockAttr{}, false
	}
	attr := BlockAttr{Name: name.Value, Pos: atat.Pos}
	if _, ok := p.expect(TokenLParen); !ok {
		return attr, false
	}
	if _, ok := p.expect(TokenLBracket); !ok {
		return attr, false
	}
	for !p.check(TokenRBracket) && !p.atEnd() {
		path, ok := p.parsePath()
		if !ok {
			return attr, false
		}
		attr.Paths = append(attr.Paths, path)
		if p.check(TokenComma) {
			p.advance()
		}
	}
	if _, ok := p.expect(TokenRBracket); !ok {
		return attr, false
	}
	if _, ok := p.expect(TokenRParen); !ok {
		return attr, false
	}
	return attr, true
}

func (p *parser) parsePath() (PathRef, bool) {
	first, ok := p.expect(TokenIdent)
	if !ok {
		return PathRef{}, false
	}
	segs := []string{first.Value}
	for p.check(TokenDot) {
		p.advance()
		seg, ok := p.expect(TokenIdent)
		if !ok {
			return PathRef{}, false
		}
		segs = append(segs, seg.Value)
	}
	return PathRef{Raw: strings.Join(segs, "."), Pos: first.Pos}, true
}

// skipToFieldBoundary — локальное восстановление внутри блока: до следующего
// поля, блочного атрибута или закрывающей скобки
func (p *parser) skipToFieldBoundary() {
	for !p.atEnd() {
		switch p.current().Type {
		case TokenRBrace, TokenAtAt, TokenIdent:
			return
		}
		p.advance()
	}
}

func (p *parser) skipToBlockEnd() {
	for !p.atEnd() && !p.check(TokenRBrace) {
		p.advance()
	}
}
