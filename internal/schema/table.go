package schema

import (
	"fmt"
	"strings"

	"matryoshka/internal/diag"
	"matryoshka/internal/dsl"
)

// ScalarKind — примитивный тип поля
type ScalarKind string

const (
	KindString   ScalarKind = "String"
	KindInt      ScalarKind = "Int"
	KindFloat    ScalarKind = "Float"
	KindBoolean  ScalarKind = "Boolean"
	KindDateTime ScalarKind = "DateTime"
	KindJson     ScalarKind = "Json"
	KindBytes    ScalarKind = "Bytes"
)

// Textual сообщает, годится ли скаляр для полнотекстового индекса
func (k ScalarKind) Textual() bool { return k == KindString }

var scalarKinds = map[string]ScalarKind{
	"String":   KindString,
	"Int":      KindInt,
	"Float":    KindFloat,
	"Boolean":  KindBoolean,
	"DateTime": KindDateTime,
	"Json":     KindJson,
	"Bytes":    KindBytes,
}

func ScalarKindOf(name string) (ScalarKind, bool) {
	k, ok := scalarKinds[name]
	return k, ok
}

// FieldKind — закрытое множество вариантов типа поля. Резолвер путей
// ветвится ровно по этим трём случаям.
type FieldKind int

const (
	FieldScalar        FieldKind = iota // примитив
	FieldComposite                      // встроенный композитный тип
	FieldCompositeList                  // массив композитного типа
)

func (k FieldKind) String() string {
	switch k {
	case FieldScalar:
		return "scalar"
	case FieldComposite:
		return "composite"
	case FieldCompositeList:
		return "composite list"
	}
	return "unknown"
}

type Field struct {
	Name        string     `json:"name"`
	Kind        FieldKind  `json:"-"`
	Scalar      ScalarKind `json:"scalar,omitempty"`
	Ref         string     `json:"ref,omitempty"`
	List        bool       `json:"list,omitempty"` // массив; для скаляров — String[] и т.п.
	Optional    bool       `json:"optional,omitempty"`
	ID          bool       `json:"id,omitempty"`
	Unique      bool       `json:"unique,omitempty"`
	StorageName string     `json:"storageName,omitempty"` // @map override
	Pos         diag.Pos   `json:"-"`
}

// Storage — имя поля в хранилище (с учётом @map)
func (f *Field) Storage() string {
	if f.StorageName != "" {
		return f.StorageName
	}
	return f.Name
}

type CompositeType struct {
	Name   string   `json:"name"`
	Fields []*Field `json:"fields"`
	Pos    diag.Pos `json:"-"`
}

func (t *CompositeType) Field(name string) (*Field, bool) {
	return findField(t.Fields, name)
}

type ConstraintKind string

const (
	Unique   ConstraintKind = "unique"
	Index    ConstraintKind = "index"
	FullText ConstraintKind = "fulltext"
)

// Constraint — ещё не скомпилированное ограничение модели: сырые пути как
// в исходнике
type Constraint struct {
	Kind  ConstraintKind
	Paths []dsl.PathRef
	Pos   diag.Pos
}

type Model struct {
	Name        string       `json:"name"`
	Fields      []*Field     `json:"fields"`
	Constraints []Constraint `json:"-"`
	Pos         diag.Pos     `json:"-"`
}

func (m *Model) Field(name string) (*Field, bool) {
	return findField(m.Fields, name)
}

func findField(fields []*Field, name string) (*Field, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// Table — неизменяемая таблица деклараций одного прогона. Строится целиком
// до любого разрешения путей: ограничения могут ссылаться на типы,
// объявленные ниже по файлу.
type Table struct {
	Models []*Model
	Types  []*CompositeType

	models map[string]*Model
	types  map[string]*CompositeType
}

func (t *Table) Model(name string) (*Model, bool) {
	m, ok := t.models[name]
	return m, ok
}

func (t *Table) Type(name string) (*CompositeType, bool) {
	ct, ok := t.types[name]
	return ct, ok
}

// LookupModel ищет модель без учёта регистра, если точного совпадения нет
// (для API-хэндлеров, где имя приходит из URL)
func (t *Table) LookupModel(name string) (*Model, bool) {
	if m, ok := t.models[name]; ok {
		return m, true
	}
	for _, m := range t.Models {
		if strings.EqualFold(m.Name, name) {
			return m, true
		}
	}
	return nil, false
}

// Build собирает таблицу деклараций в два прохода: сначала все имена и поля,
// потом проверка ссылок на типы. Чистая функция от разобранной схемы; все
// проблемы уходят в коллектор, стройка не прерывается.
func Build(s *dsl.Schema, col *diag.Collector) *Table {
	t := &Table{
		models: make(map[string]*Model),
		types:  make(map[string]*CompositeType),
	}

	// --- проход 1: декларации и поля ---
	seen := map[string]diag.Pos{}

	for i := range s.Types {
		decl := &s.Types[i]
		if prev, dup := seen[decl.Name]; dup {
			col.Add(diag.Diagnostic{
				Severity: diag.Error,
				Code:     diag.CodeDuplicateDeclaration,
				Model:    decl.Name,
				Message:  fmt.Sprintf("declaration %q already defined at %d:%d", decl.Name, prev.Line, prev.Column),
				Pos:      decl.Pos,
			})
			continue
		}
		seen[decl.Name] = decl.Pos

		ct := &CompositeType{Name: decl.Name, Pos: decl.Pos}
		ct.Fields = buildFields(decl.Name, decl.Fields, col)
		t.Types = append(t.Types, ct)
		t.types[ct.Name] = ct
	}

	for i := range s.Models {
		decl := &s.Models[i]
		if prev, dup := seen[decl.Name]; dup {
			col.Add(diag.Diagnostic{
				Severity: diag.Error,
				Code:     diag.CodeDuplicateDeclaration,
				Model:    decl.Name,
				Message:  fmt.Sprintf("declaration %q already defined at %d:%d", decl.Name, prev.Line, prev.Column),
				Pos:      decl.Pos,
			})
			continue
		}
		seen[decl.Name] = decl.Pos

		m := &Model{Name: decl.Name, Pos: decl.Pos}
		m.Fields = buildFields(decl.Name, decl.Fields, col)

		// @id не больше одного на модель
		idSeen := false
		for _, f := range m.Fields {
			if !f.ID {
				continue
			}
			if idSeen {
				col.Add(diag.Diagnostic{
					Severity: diag.Error,
					Code:     diag.CodeMultipleID,
					Model:    m.Name,
					Field:    f.Name,
					Message:  fmt.Sprintf("model %q has more than one @id field", m.Name),
					Pos:      f.Pos,
				})
			}
			idSeen = true
		}

		m.Constraints = buildConstraints(decl, col)
		t.Models = append(t.Models, m)
		t.models[m.Name] = m
	}

	// --- проход 2: ссылки на композитные типы ---
	// Отложенная проверка нужна из-за forward-ссылок: тип может быть
	// объявлен в любом месте схемы.
	checkRefs := func(owner string, fields []*Field) {
		for _, f := range fields {
			if f.Kind == FieldScalar {
				continue
			}
			if _, ok := t.types[f.Ref]; !ok {
				col.Add(diag.Diagnostic{
					Severity: diag.Error,
					Code:     diag.CodeUnknownType,
					Model:    owner,
					Field:    f.Name,
					Message:  fmt.Sprintf("field %q references undeclared composite type %q", f.Name, f.Ref),
					Pos:      f.Pos,
				})
			}
		}
	}
	for _, ct := range t.Types {
		checkRefs(ct.Name, ct.Fields)
	}
	for _, m := range t.Models {
		checkRefs(m.Name, m.Fields)
	}

	return t
}

func buildFields(owner string, decls []dsl.FieldDecl, col *diag.Collector) []*Field {
	var out []*Field
	names := map[string]struct{}{}

	for i := range decls {
		fd := &decls[i]
		if _, dup := names[fd.Name]; dup {
			col.Add(diag.Diagnostic{
				Severity: diag.Error,
				Code:     diag.CodeDuplicateField,
				Model:    owner,
				Field:    fd.Name,
				Message:  fmt.Sprintf("duplicate field %q in %q", fd.Name, owner),
				Pos:      fd.Pos,
			})
			continue
		}
		names[fd.Name] = struct{}{}

		f := &Field{Name: fd.Name, Optional: fd.Optional, Pos: fd.Pos}
		if kind, ok := ScalarKindOf(fd.Type); ok {
			f.Kind = FieldScalar
			f.Scalar = kind
			f.List = fd.IsArray
		} else if fd.IsArray {
			f.Kind = FieldCompositeList
			f.Ref = fd.Type
			f.List = true
		} else {
			f.Kind = FieldComposite
			f.Ref = fd.Type
		}

		for _, attr := range fd.Attrs {
			switch attr.Name {
			case "id":
				f.ID = true
			case "unique":
				f.Unique = true
			case "map":
				if len(attr.Args) != 1 || attr.Args[0] == "" {
					col.Add(diag.Diagnostic{
						Severity: diag.Error,
						Code:     diag.CodeSyntax,
						Model:    owner,
						Field:    fd.Name,
						Message:  "@map requires exactly one storage name argument",
						Pos:      attr.Pos,
					})
					continue
				}
				f.StorageName = attr.Args[0]
			default:
				col.Add(diag.Diagnostic{
					Severity: diag.Warning,
					Code:     diag.CodeUnknownAttribute,
					Model:    owner,
					Field:    fd.Name,
					Message:  fmt.Sprintf("unknown field attribute @%s ignored", attr.Name),
					Pos:      attr.Pos,
				})
			}
		}
		out = append(out, f)
	}
	return out
}

func buildConstraints(decl *dsl.ModelDecl, col *diag.Collector) []Constraint {
	var out []Constraint
	for _, attr := range decl.Attrs {
		var kind ConstraintKind
		switch attr.Name {
		case "unique":
			kind = Unique
		case "index":
			kind = Index
		case "fulltext":
			kind = FullText
		default:
			col.Add(diag.Diagnostic{
				Severity: diag.Warning,
				Code:     diag.CodeUnknownAttribute,
				Model:    decl.Name,
				Message:  fmt.Sprintf("unknown block attribute @@%s ignored", attr.Name),
				Pos:      attr.Pos,
			})
			continue
		}
		out = append(out, Constraint{Kind: kind, Paths: attr.Paths, Pos: attr.Pos})
	}
	return out
}
