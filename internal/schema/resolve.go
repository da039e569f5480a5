package schema

import (
	"fmt"
	"strings"

	"matryoshka/internal/diag"
	"matryoshka/internal/dsl"
)

// PathSegment — один разрешённый сегмент атрибутного пути
type PathSegment struct {
	Name  string `json:"name" msgpack:"name"`
	Array bool   `json:"array,omitempty" msgpack:"array"` // сегмент прошёл через массив
}

// ResolvedPath — нормализованный путь ограничения: сегменты, путь в хранилище
// (с учётом @map) и флаг прохода через массив для адаптера движка
type ResolvedPath struct {
	Raw            string        `json:"raw" msgpack:"raw"`
	Segments       []PathSegment `json:"segments" msgpack:"segments"`
	StoragePath    string        `json:"storagePath" msgpack:"storagePath"`
	ArrayTraversed bool          `json:"arrayTraversed,omitempty" msgpack:"arrayTraversed"`
	Scalar         ScalarKind    `json:"scalar,omitempty" msgpack:"scalar"` // пусто, если путь закончился на композите
}

// resolvePath идёт по точечному пути слева направо, спускаясь во встроенные
// типы. Проход через массивный сегмент помечает путь; второй проход через
// массив запрещён — у двух независимых массивов нет соответствия элементов,
// движок такой индекс не выполнит.
//
// Возврат (zero, nil, false) — «тихий» отказ: ссылка на тип уже провалена
// как unknown_type при сборке таблицы, второй диагноз не нужен.
func resolvePath(t *Table, m *Model, ref dsl.PathRef) (ResolvedPath, *diag.Diagnostic, bool) {
	segs := strings.Split(ref.Raw, ".")

	rp := ResolvedPath{Raw: ref.Raw}
	var storage []string

	fields := m.Fields
	owner := m.Name
	for i, name := range segs {
		f, ok := findField(fields, name)
		if !ok {
			return ResolvedPath{}, &diag.Diagnostic{
				Severity: diag.Error,
				Code:     diag.CodePathSegmentNotFound,
				Model:    m.Name,
				Path:     ref.Raw,
				Message:  fmt.Sprintf("path %q: segment %q not found in %q", ref.Raw, name, owner),
				Pos:      ref.Pos,
			}, false
		}

		last := i == len(segs)-1
		seg := PathSegment{Name: f.Name}
		storage = append(storage, f.Storage())

		switch f.Kind {
		case FieldScalar:
			if !last {
				return ResolvedPath{}, &diag.Diagnostic{
					Severity: diag.Error,
					Code:     diag.CodePathPastScalar,
					Model:    m.Name,
					Path:     ref.Raw,
					Message:  fmt.Sprintf("path %q continues past scalar field %q", ref.Raw, f.Name),
					Pos:      ref.Pos,
				}, false
			}
			// терминальный скалярный массив (String[]) — тоже проход
			// через массивное измерение
			if f.List {
				if rp.ArrayTraversed {
					return ResolvedPath{}, multipleArrays(m.Name, ref), false
				}
				seg.Array = true
				rp.ArrayTraversed = true
			}
			rp.Scalar = f.Scalar

		case FieldCompositeList:
			if rp.ArrayTraversed {
				return ResolvedPath{}, multipleArrays(m.Name, ref), false
			}
			seg.Array = true
			rp.ArrayTraversed = true
			fallthrough

		case FieldComposite:
			ct, ok := t.Type(f.Ref)
			if !ok {
				// тип не объявлен: уже зарепорчено при сборке таблицы
				return ResolvedPath{}, nil, false
			}
			if !last {
				fields = ct.Fields
				owner = ct.Name
			}
		}

		rp.Segments = append(rp.Segments, seg)
	}

	rp.StoragePath = strings.Join(storage, ".")
	return rp, nil, true
}

func multipleArrays(model string, ref dsl.PathRef) *diag.Diagnostic {
	return &diag.Diagnostic{
		Severity: diag.Error,
		Code:     diag.CodeMultipleArrayTraversals,
		Model:    model,
		Path:     ref.Raw,
		Message:  fmt.Sprintf("path %q traverses more than one array", ref.Raw),
		Pos:      ref.Pos,
	}
}
