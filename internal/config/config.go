package config

import (
	"flag"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port          string `yaml:"port"`
	SchemaDir     string `yaml:"schemaDir"`
	ArtifactPath  string `yaml:"artifactPath"`  // пусто = слепок не пишем
	ClientOut     string `yaml:"clientOut"`     // пусто = кодген выключен
	ClientPackage string `yaml:"clientPackage"` // имя пакета сгенерированного клиента
	Watch         bool   `yaml:"watch"`
	LogLevel      string `yaml:"logLevel"`
}

func def() Config {
	return Config{
		Port:          "8080",
		SchemaDir:     "dsl",
		ArtifactPath:  "",
		ClientOut:     "",
		ClientPackage: "client",
		Watch:         false,
		LogLevel:      "info",
	}
}

func loadYAML(path string) (Config, error) {
	c := def()
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, err
	}
	return c, nil
}

func getenv(k, fallback string) string {
	if v, ok := os.LookupEnv(k); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

func getenvBool(k string, fallback bool) bool {
	if v, ok := os.LookupEnv(k); ok {
		v = strings.TrimSpace(strings.ToLower(v))
		if v == "1" || v == "true" || v == "yes" {
			return true
		}
		if v == "0" || v == "false" || v == "no" {
			return false
		}
	}
	return fallback
}

// LoadWithPath читает YAML по указанному пути, потом применяет ENV и флаги.
func LoadWithPath(yamlPath string) Config {
	cfg := def()

	// YAML (если файл существует)
	if st, err := os.Stat(yamlPath); err == nil && !st.IsDir() {
		if c2, err := loadYAML(yamlPath); err == nil {
			cfg = c2
		}
	}

	// ENV overrides
	cfg.Port = getenv("MATRYOSHKA_PORT", cfg.Port)
	cfg.SchemaDir = getenv("MATRYOSHKA_SCHEMA_DIR", cfg.SchemaDir)
	cfg.ArtifactPath = getenv("MATRYOSHKA_ARTIFACT", cfg.ArtifactPath)
	cfg.ClientOut = getenv("MATRYOSHKA_CLIENT_OUT", cfg.ClientOut)
	cfg.ClientPackage = getenv("MATRYOSHKA_CLIENT_PKG", cfg.ClientPackage)
	cfg.Watch = getenvBool("MATRYOSHKA_WATCH", cfg.Watch)
	cfg.LogLevel = getenv("MATRYOSHKA_LOG_LEVEL", cfg.LogLevel)

	// Flags overrides
	configPath := flag.String("config", yamlPath, "Path to config YAML")
	port := flag.String("port", cfg.Port, "HTTP port")
	dir := flag.String("schema", cfg.SchemaDir, "Path to schema directory")
	art := flag.String("artifact", cfg.ArtifactPath, "Path to compile snapshot (empty = off)")
	clientOut := flag.String("client-out", cfg.ClientOut, "Generated client output file (empty = off)")
	clientPkg := flag.String("client-pkg", cfg.ClientPackage, "Generated client package name")
	watch := flag.Bool("watch", cfg.Watch, "Recompile on schema changes")
	level := flag.String("log-level", cfg.LogLevel, "Log level (debug/info/warn/error)")

	flag.Parse()

	// Если через флаг передали другой конфиг — перечитаем
	if *configPath != yamlPath {
		return LoadWithPath(*configPath)
	}

	cfg.Port = strings.TrimSpace(*port)
	cfg.SchemaDir = strings.TrimSpace(*dir)
	cfg.ArtifactPath = strings.TrimSpace(*art)
	cfg.ClientOut = strings.TrimSpace(*clientOut)
	cfg.ClientPackage = strings.TrimSpace(*clientPkg)
	cfg.Watch = *watch
	cfg.LogLevel = strings.TrimSpace(*level)

	return cfg
}
