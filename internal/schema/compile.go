package schema

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"matryoshka/internal/diag"
	"matryoshka/internal/dsl"
)

// ConstraintDescriptor — нормализованное, готовое для адаптера хранилища
// описание ограничения. Движок сам переводит его в родной синтаксис
// индексов/валидаторов; этот слой wire-формата не знает.
type ConstraintDescriptor struct {
	Kind  ConstraintKind `json:"kind" msgpack:"kind"`
	Model string         `json:"model" msgpack:"model"`
	Paths []ResolvedPath `json:"paths" msgpack:"paths"`
}

// Result — замороженный результат одного прогона компиляции
type Result struct {
	Table       *Table                 `json:"-" msgpack:"-"`
	Descriptors []ConstraintDescriptor `json:"descriptors,omitempty" msgpack:"descriptors"`
	Diagnostics []diag.Diagnostic      `json:"diagnostics" msgpack:"diagnostics"`
}

// OK — успех прогона: ни одной диагностики уровня error. Предупреждения
// успех не блокируют.
func (r *Result) OK() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == diag.Error {
			return false
		}
	}
	return true
}

// DescriptorsFor возвращает дескрипторы одной модели (в порядке объявления)
func (r *Result) DescriptorsFor(model string) []ConstraintDescriptor {
	var out []ConstraintDescriptor
	for _, d := range r.Descriptors {
		if d.Model == model {
			out = append(out, d)
		}
	}
	return out
}

// CompileSource — разбор и компиляция одного исходника
func CompileSource(file, src string) *Result {
	col := &diag.Collector{}
	s := dsl.Parse(file, src, col)
	return Compile(s, col)
}

// Compile строит таблицу деклараций, затем для каждой модели разрешает пути
// ограничений и применяет правила по виду ограничения. Коллектор должен
// содержать диагностики разбора этой же схемы.
//
// Таблица к этому моменту заморожена, модели независимы — компилируем их
// параллельно и склеиваем в порядке объявления, чтобы результат был
// детерминирован.
func Compile(s *dsl.Schema, col *diag.Collector) *Result {
	table := Build(s, col)

	descs := make([][]ConstraintDescriptor, len(table.Models))
	diags := make([][]diag.Diagnostic, len(table.Models))

	var g errgroup.Group
	for i, m := range table.Models {
		i, m := i, m
		g.Go(func() error {
			descs[i], diags[i] = compileModel(table, m)
			return nil
		})
	}
	_ = g.Wait()

	for _, ds := range diags {
		col.Append(ds...)
	}

	res := &Result{Table: table, Diagnostics: col.All()}
	if !col.HasErrors() {
		for _, ds := range descs {
			res.Descriptors = append(res.Descriptors, ds...)
		}
	}
	return res
}

func compileModel(t *Table, m *Model) ([]ConstraintDescriptor, []diag.Diagnostic) {
	var out []ConstraintDescriptor
	var diags []diag.Diagnostic

	// @unique на поле — одиночный unique-дескриптор
	for _, f := range m.Fields {
		if !f.Unique {
			continue
		}
		rp, d, ok := resolvePath(t, m, dsl.PathRef{Raw: f.Name, Pos: f.Pos})
		if d != nil {
			diags = append(diags, *d)
		}
		if !ok {
			continue
		}
		out = append(out, ConstraintDescriptor{Kind: Unique, Model: m.Name, Paths: []ResolvedPath{rp}})
	}

	for _, c := range m.Constraints {
		paths := make([]ResolvedPath, 0, len(c.Paths))
		valid := true
		for _, ref := range c.Paths {
			rp, d, ok := resolvePath(t, m, ref)
			if d != nil {
				diags = append(diags, *d)
			}
			if !ok {
				valid = false
				continue
			}
			if c.Kind == FullText && !rp.Scalar.Textual() {
				diags = append(diags, diag.Diagnostic{
					Severity: diag.Error,
					Code:     diag.CodeFullTextNonText,
					Model:    m.Name,
					Path:     ref.Raw,
					Message:  fmt.Sprintf("fulltext path %q must end at a String field", ref.Raw),
					Pos:      ref.Pos,
				})
				valid = false
				continue
			}
			paths = append(paths, rp)
		}
		if !valid || len(paths) == 0 {
			continue
		}
		out = append(out, ConstraintDescriptor{Kind: c.Kind, Model: m.Name, Paths: paths})
	}
	return out, diags
}
