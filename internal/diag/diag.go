package diag

// Severity разделяет блокирующие ошибки и предупреждения
type Severity string

const (
	Error   Severity = "error"
	Warning Severity = "warning"
)

// Коды диагностик (стабильные, на них завязаны клиенты API)
const (
	CodeSyntax                  = "syntax_error"
	CodeDuplicateDeclaration    = "duplicate_declaration"
	CodeDuplicateField          = "duplicate_field"
	CodeUnknownType             = "unknown_type"
	CodeMultipleID              = "multiple_id"
	CodeUnknownAttribute        = "unknown_attribute"
	CodePathSegmentNotFound     = "path_segment_not_found"
	CodePathPastScalar          = "path_past_scalar"
	CodeMultipleArrayTraversals = "multiple_array_traversals"
	CodeFullTextNonText         = "fulltext_non_text"
)

// Pos указывает на место в исходнике схемы
type Pos struct {
	File   string `json:"file,omitempty" msgpack:"file"`
	Line   int    `json:"line" msgpack:"line"`
	Column int    `json:"column" msgpack:"column"`
}

type Diagnostic struct {
	Severity Severity `json:"severity" msgpack:"severity"`
	Code     string   `json:"code" msgpack:"code"`
	Model    string   `json:"model,omitempty" msgpack:"model"`
	Field    string   `json:"field,omitempty" msgpack:"field"`
	Path     string   `json:"path,omitempty" msgpack:"path"`
	Message  string   `json:"message" msgpack:"message"`
	Pos      Pos      `json:"pos" msgpack:"pos"`
}

// Collector накапливает диагностики всех стадий компиляции.
// Ни одна стадия не прерывается на первой ошибке: один прогон — полный отчёт.
type Collector struct {
	diags []Diagnostic
}

func (c *Collector) Add(d Diagnostic) {
	c.diags = append(c.diags, d)
}

func (c *Collector) Append(ds ...Diagnostic) {
	c.diags = append(c.diags, ds...)
}

// All возвращает копию в порядке добавления (то есть в порядке исходника)
func (c *Collector) All() []Diagnostic {
	out := make([]Diagnostic, len(c.diags))
	copy(out, c.diags)
	return out
}

func (c *Collector) HasErrors() bool {
	for _, d := range c.diags {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

func (c *Collector) Len() int { return len(c.diags) }
