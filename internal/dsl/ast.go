package dsl

import "matryoshka/internal/diag"

// Schema — конкретное синтаксическое дерево одного прогона:
// все top-level декларации в порядке исходника.
type Schema struct {
	Datasources []Datasource
	Generators  []Generator
	Types       []TypeDecl
	Models      []ModelDecl
}

// Datasource описывает блок datasource db { provider = "..." url = env("...") }
type Datasource struct {
	Name  string
	Props []Prop
	Pos   diag.Pos
}

type Generator struct {
	Name  string
	Props []Prop
	Pos   diag.Pos
}

// Prop — свойство конфигурационного блока; значение храним сырым текстом
// (строковый литерал уже без кавычек, env(...) — как есть)
type Prop struct {
	Key   string
	Value string
	Pos   diag.Pos
}

// TypeDecl — композитный (встраиваемый) тип: type Address { ... }
type TypeDecl struct {
	Name   string
	Fields []FieldDecl
	Pos    diag.Pos
}

// ModelDecl — модель с полями и блочными атрибутами @@unique/@@index/@@fulltext
type ModelDecl struct {
	Name   string
	Fields []FieldDecl
	Attrs  []BlockAttr
	Pos    diag.Pos
}

type FieldDecl struct {
	Name     string
	Type     string // имя типа как в исходнике: скаляр или композит
	IsArray  bool   // Address[]
	Optional bool   // String?
	Attrs    []FieldAttr
	Pos      diag.Pos
}

// FieldAttr — атрибут поля: @id, @map("street_name"), @unique
type FieldAttr struct {
	Name string
	Args []string
	Pos  diag.Pos
}

// BlockAttr — атрибут уровня модели: имя + список точечных путей
type BlockAttr struct {
	Name  string
	Paths []PathRef
	Pos   diag.Pos
}

// PathRef — сырой точечный путь вида "addresses.number"
type PathRef struct {
	Raw string
	Pos diag.Pos
}
