package main

import (
	"os"

	"github.com/rs/zerolog"

	"matryoshka/internal/api"
	"matryoshka/internal/artifact"
	"matryoshka/internal/codegen"
	"matryoshka/internal/config"
	"matryoshka/internal/diag"
	"matryoshka/internal/dsl"
	"matryoshka/internal/schema"
	"matryoshka/internal/watch"
)

func main() {
	cfg := config.LoadWithPath("matryoshka.yaml")

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	// 1. Первичный прогон: разбор каталога схем и компиляция
	col := &diag.Collector{}
	s, err := dsl.ParseDir(cfg.SchemaDir, col)
	if err != nil {
		logger.Fatal().Err(err).Str("dir", cfg.SchemaDir).Msg("schema load failed")
	}
	res := schema.Compile(s, col)
	logDiagnostics(logger, res)

	st := api.NewState(res)
	publish := func(r *schema.Result) {
		st.Set(r)
		if cfg.ArtifactPath == "" {
			return
		}
		if err := artifact.Write(cfg.ArtifactPath, artifact.New(st.NewRunID(), r)); err != nil {
			logger.Error().Err(err).Msg("snapshot write failed")
		}
	}
	publish(res)

	// 2. Кодген клиента — только по чистой схеме
	if cfg.ClientOut != "" && res.OK() {
		src, err := codegen.Generate(res.Table, cfg.ClientPackage)
		if err != nil {
			logger.Fatal().Err(err).Msg("client generation failed")
		}
		if err := os.WriteFile(cfg.ClientOut, []byte(src), 0o644); err != nil {
			logger.Fatal().Err(err).Msg("client write failed")
		}
		logger.Info().Str("out", cfg.ClientOut).Msg("client generated")
	}

	// 3. Вотчер: каждое изменение схемы — свежий независимый прогон
	if cfg.Watch {
		w, err := watch.New(cfg.SchemaDir, logger, publish)
		if err != nil {
			logger.Fatal().Err(err).Msg("watcher start failed")
		}
		w.Start()
		defer func() { _ = w.Close() }()
		logger.Info().Str("dir", cfg.SchemaDir).Msg("watching schema directory")
	}

	// 4. REST API
	logger.Info().Str("port", cfg.Port).Msg("matryoshka listening")
	api.RunServer(":"+cfg.Port, st, cfg.ClientPackage)
}

func logDiagnostics(logger zerolog.Logger, res *schema.Result) {
	logger.Info().
		Int("models", len(res.Table.Models)).
		Int("types", len(res.Table.Types)).
		Int("descriptors", len(res.Descriptors)).
		Bool("ok", res.OK()).
		Msg("schema compiled")

	for _, d := range res.Diagnostics {
		ev := logger.Warn()
		if d.Severity == diag.Error {
			ev = logger.Error()
		}
		ev.Str("code", d.Code).
			Str("model", d.Model).
			Str("path", d.Path).
			Str("at", d.Pos.File).
			Int("line", d.Pos.Line).
			Msg(d.Message)
	}
}
