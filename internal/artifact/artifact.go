package artifact

import (
	"fmt"
	"os"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"matryoshka/internal/diag"
	"matryoshka/internal/schema"
)

// Snapshot — сериализуемый слепок одного прогона компиляции. Его пишет
// вотчер после каждого прогона; потребители (мигратор, кодген в CI) читают
// слепок вместо повторного разбора схемы.
type Snapshot struct {
	RunID       string                        `msgpack:"run_id"`
	CreatedAt   time.Time                     `msgpack:"created_at"`
	OK          bool                          `msgpack:"ok"`
	Descriptors []schema.ConstraintDescriptor `msgpack:"descriptors"`
	Diagnostics []diag.Diagnostic             `msgpack:"diagnostics"`
}

func New(runID string, res *schema.Result) *Snapshot {
	return &Snapshot{
		RunID:       runID,
		CreatedAt:   time.Now().UTC(),
		OK:          res.OK(),
		Descriptors: res.Descriptors,
		Diagnostics: res.Diagnostics,
	}
}

// Write атомарно пишет слепок: сначала во временный файл, потом rename
func Write(path string, s *Snapshot) error {
	data, err := msgpack.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

func Read(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var s Snapshot
	if err := msgpack.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &s, nil
}
