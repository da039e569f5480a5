package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"matryoshka/internal/codegen"
	"matryoshka/internal/mongo"
	"matryoshka/internal/schema"
)

type compileRequest struct {
	Source string `json:"source" binding:"required"`
}

// CompileHandler компилирует присланный исходник. Состояние сервера не
// трогает: каждый запрос — независимый прогон (lint-режим для тулинга).
func CompileHandler(st *State) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req compileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "body must be {\"source\": \"...\"}"})
			return
		}
		res := schema.CompileSource("request", req.Source)
		c.JSON(http.StatusOK, gin.H{
			"run_id":      st.NewRunID(),
			"ok":          res.OK(),
			"diagnostics": res.Diagnostics,
			"descriptors": res.Descriptors,
		})
	}
}

type metaListItem struct {
	Name string `json:"name"`
	Kind string `json:"kind"` // model | type
}

func MetaListHandler(st *State) gin.HandlerFunc {
	return func(c *gin.Context) {
		res := st.Get()
		out := make([]metaListItem, 0, len(res.Table.Models)+len(res.Table.Types))
		for _, ct := range res.Table.Types {
			out = append(out, metaListItem{Name: ct.Name, Kind: "type"})
		}
		for _, m := range res.Table.Models {
			out = append(out, metaListItem{Name: m.Name, Kind: "model"})
		}
		c.JSON(http.StatusOK, out)
	}
}

type metaField struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	List     bool   `json:"list,omitempty"`
	Optional bool   `json:"optional,omitempty"`
	ID       bool   `json:"id,omitempty"`
	Unique   bool   `json:"unique,omitempty"`
	Storage  string `json:"storage,omitempty"` // только если отличается от имени
}

type metaConstraint struct {
	Kind  string   `json:"kind"`
	Paths []string `json:"paths"`
}

type metaModel struct {
	Name        string                        `json:"name"`
	Fields      []metaField                   `json:"fields"`
	Constraints []metaConstraint              `json:"constraints,omitempty"`
	Descriptors []schema.ConstraintDescriptor `json:"descriptors,omitempty"`
}

// MetaModelHandler отдаёт декларацию модели из таблицы (только чтение)
func MetaModelHandler(st *State) gin.HandlerFunc {
	return func(c *gin.Context) {
		res := st.Get()
		m, ok := res.Table.LookupModel(c.Param("model"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "model not found"})
			return
		}

		fields := make([]metaField, 0, len(m.Fields))
		for _, f := range m.Fields {
			typ := string(f.Scalar)
			if f.Kind != schema.FieldScalar {
				typ = f.Ref
			}
			mf := metaField{
				Name:     f.Name,
				Type:     typ,
				List:     f.List,
				Optional: f.Optional,
				ID:       f.ID,
				Unique:   f.Unique,
			}
			if f.StorageName != "" {
				mf.Storage = f.StorageName
			}
			fields = append(fields, mf)
		}

		constraints := make([]metaConstraint, 0, len(m.Constraints))
		for _, cs := range m.Constraints {
			mc := metaConstraint{Kind: string(cs.Kind)}
			for _, p := range cs.Paths {
				mc.Paths = append(mc.Paths, p.Raw)
			}
			constraints = append(constraints, mc)
		}

		c.JSON(http.StatusOK, metaModel{
			Name:        m.Name,
			Fields:      fields,
			Constraints: constraints,
			Descriptors: res.DescriptorsFor(m.Name),
		})
	}
}

// LintHandler — диагностики текущей схемы сервера
func LintHandler(st *State) gin.HandlerFunc {
	return func(c *gin.Context) {
		res := st.Get()
		c.JSON(http.StatusOK, gin.H{
			"ok":          res.OK(),
			"diagnostics": res.Diagnostics,
		})
	}
}

// IndexesHandler — команда createIndexes для модели (выход адаптера Mongo)
func IndexesHandler(st *State) gin.HandlerFunc {
	return func(c *gin.Context) {
		res := st.Get()
		m, ok := res.Table.LookupModel(c.Param("model"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "model not found"})
			return
		}
		cmd, ok := mongo.BuildModelCommand(res, m.Name)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "model has no constraints"})
			return
		}
		c.JSON(http.StatusOK, cmd)
	}
}

// ClientHandler — сгенерированный типизированный клиент по текущей таблице
func ClientHandler(st *State, pkg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		res := st.Get()
		if !res.OK() {
			c.JSON(http.StatusConflict, gin.H{"error": "schema has errors, client not generated"})
			return
		}
		src, err := codegen.Generate(res.Table, pkg)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.String(http.StatusOK, src)
	}
}
