package mongo

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/go-openapi/inflect"

	"matryoshka/internal/schema"
)

// Адаптер MongoDB: переводит дескрипторы ограничений в документы команды
// createIndexes. Дальше этого слоя знание о движке не уходит — сетевого
// транспорта и драйвера здесь нет, только командные документы.
//
// Пути, прошедшие через массив, Mongo индексирует как multikey сами по
// себе; уникальность по элементам массива движок обеспечивает на уровне
// такого индекса, отдельного флага в команде нет.

// KeyElem — один ключ индекса: путь в хранилище и направление (1) либо "text"
type KeyElem struct {
	Path  string
	Value any
}

// KeyDoc сохраняет порядок ключей: для составных индексов он значим,
// обычный map его теряет
type KeyDoc []KeyElem

func (k KeyDoc) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range k {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(e.Path)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type Index struct {
	Key    KeyDoc `json:"key"`
	Name   string `json:"name"`
	Unique bool   `json:"unique,omitempty"`
}

type Command struct {
	CreateIndexes string  `json:"createIndexes"`
	Indexes       []Index `json:"indexes"`
}

// collection: имя коллекции — множественное число модели в нижнем регистре
func collection(model string) string {
	return inflect.Pluralize(strings.ToLower(model))
}

func indexName(model string, paths []schema.ResolvedPath, suffix string) string {
	parts := []string{strings.ToLower(model)}
	for _, p := range paths {
		parts = append(parts, strings.ReplaceAll(strings.ToLower(p.Raw), ".", "_"))
	}
	parts = append(parts, suffix)
	return strings.Join(parts, "_")
}

// BuildCommands собирает по одной команде createIndexes на модель, в порядке
// объявления моделей. Все fulltext-дескрипторы модели сливаются в один
// text-индекс: Mongo допускает не больше одного text-индекса на коллекцию.
func BuildCommands(res *schema.Result) []Command {
	var out []Command
	for _, m := range res.Table.Models {
		if cmd, ok := buildModelCommand(res, m.Name); ok {
			out = append(out, cmd)
		}
	}
	return out
}

// BuildModelCommand — команда для одной модели
func BuildModelCommand(res *schema.Result, model string) (Command, bool) {
	return buildModelCommand(res, model)
}

func buildModelCommand(res *schema.Result, model string) (Command, bool) {
	descs := res.DescriptorsFor(model)
	if len(descs) == 0 {
		return Command{}, false
	}

	cmd := Command{CreateIndexes: collection(model)}
	var textKeys KeyDoc
	var textPaths []schema.ResolvedPath

	for _, d := range descs {
		switch d.Kind {
		case schema.Unique, schema.Index:
			var key KeyDoc
			for _, p := range d.Paths {
				key = append(key, KeyElem{Path: p.StoragePath, Value: 1})
			}
			suffix := "idx"
			if d.Kind == schema.Unique {
				suffix = "uq"
			}
			cmd.Indexes = append(cmd.Indexes, Index{
				Key:    key,
				Name:   indexName(model, d.Paths, suffix),
				Unique: d.Kind == schema.Unique,
			})
		case schema.FullText:
			for _, p := range d.Paths {
				textKeys = append(textKeys, KeyElem{Path: p.StoragePath, Value: "text"})
				textPaths = append(textPaths, p)
			}
		}
	}

	if len(textKeys) > 0 {
		cmd.Indexes = append(cmd.Indexes, Index{
			Key:  textKeys,
			Name: indexName(model, textPaths, "txt"),
		})
	}
	return cmd, true
}
