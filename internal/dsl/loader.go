package dsl

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"matryoshka/internal/diag"
)

// ParseDir читает все *.dsl под root и склеивает декларации в одну схему.
// Порядок файлов — лексикографический, чтобы прогоны были детерминированы.
func ParseDir(root string, col *diag.Collector) (*Schema, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(d.Name()), ".dsl") {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	combined := &Schema{}
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		s := Parse(path, string(data), col)
		combined.Datasources = append(combined.Datasources, s.Datasources...)
		combined.Generators = append(combined.Generators, s.Generators...)
		combined.Types = append(combined.Types, s.Types...)
		combined.Models = append(combined.Models, s.Models...)
	}
	return combined, nil
}
