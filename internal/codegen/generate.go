package codegen

import (
	"bytes"
	"fmt"

	"github.com/dave/jennifer/jen"
	"github.com/go-openapi/inflect"

	"matryoshka/internal/schema"
)

// Генератор типизированного клиента: из замороженной таблицы деклараций
// делает Go-структуры моделей и встроенных типов с bson-тегами по именам
// хранилища. Таблицу только читает.

// Generate отдаёт исходник пакета pkg со структурами для всех деклараций
// таблицы (сначала композитные типы, потом модели — в порядке объявления)
func Generate(t *schema.Table, pkg string) (string, error) {
	f := jen.NewFile(pkg)
	f.HeaderComment("Code generated by matryoshka. DO NOT EDIT.")

	for _, ct := range t.Types {
		addStruct(f, ct.Name, ct.Fields)
	}
	for _, m := range t.Models {
		addStruct(f, m.Name, m.Fields)
	}

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return "", fmt.Errorf("render client: %w", err)
	}
	return buf.String(), nil
}

func addStruct(f *jen.File, name string, fields []*schema.Field) {
	f.Type().Id(exported(name)).StructFunc(func(g *jen.Group) {
		for _, fld := range fields {
			g.Id(exported(fld.Name)).Add(typeExpr(fld)).Tag(map[string]string{"bson": bsonTag(fld)})
		}
	})
}

func exported(name string) string {
	return inflect.Camelize(name)
}

func bsonTag(f *schema.Field) string {
	tag := f.Storage()
	if f.ID && f.StorageName == "" {
		tag = "_id"
	}
	if f.Optional {
		tag += ",omitempty"
	}
	return tag
}

func typeExpr(f *schema.Field) jen.Code {
	var base jen.Code
	switch f.Kind {
	case schema.FieldScalar:
		base = scalarExpr(f.Scalar)
	case schema.FieldComposite, schema.FieldCompositeList:
		base = jen.Id(exported(f.Ref))
	}

	if f.List {
		return jen.Index().Add(base)
	}
	if f.Optional {
		return jen.Op("*").Add(base)
	}
	return base
}

func scalarExpr(k schema.ScalarKind) jen.Code {
	switch k {
	case schema.KindString:
		return jen.String()
	case schema.KindInt:
		return jen.Int64()
	case schema.KindFloat:
		return jen.Float64()
	case schema.KindBoolean:
		return jen.Bool()
	case schema.KindDateTime:
		return jen.Qual("time", "Time")
	case schema.KindJson:
		return jen.Qual("encoding/json", "RawMessage")
	case schema.KindBytes:
		return jen.Index().Byte()
	}
	return jen.Any()
}
