package watch

import (
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"matryoshka/internal/diag"
	"matryoshka/internal/dsl"
	"matryoshka/internal/schema"
)

// debounce: редакторы пишут файл несколькими событиями подряд
const settle = 200 * time.Millisecond

// Watcher следит за каталогом схем и на каждое изменение запускает свежий,
// независимый прогон компиляции. Никакого инкрементального состояния:
// результат каждого прогона целиком замещает предыдущий.
type Watcher struct {
	dir      string
	log      zerolog.Logger
	fw       *fsnotify.Watcher
	onResult func(*schema.Result)
	stop     chan struct{}
	done     chan struct{}
}

func New(dir string, log zerolog.Logger, onResult func(*schema.Result)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// fsnotify не рекурсивен: подписываемся на корень и все подкаталоги
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return fw.Add(path)
		}
		return nil
	})
	if err != nil {
		_ = fw.Close()
		return nil, err
	}

	return &Watcher{
		dir:      dir,
		log:      log,
		fw:       fw,
		onResult: onResult,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

func (w *Watcher) Start() {
	go w.loop()
}

func (w *Watcher) Close() error {
	close(w.stop)
	<-w.done
	return w.fw.Close()
}

func (w *Watcher) loop() {
	defer close(w.done)

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-w.stop:
			return

		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".dsl") {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.log.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("schema change")
			if timer == nil {
				timer = time.NewTimer(settle)
			} else {
				timer.Reset(settle)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.recompile()

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.log.Error().Err(err).Msg("watch error")
		}
	}
}

func (w *Watcher) recompile() {
	started := time.Now()
	col := &diag.Collector{}
	s, err := dsl.ParseDir(w.dir, col)
	if err != nil {
		w.log.Error().Err(err).Msg("schema reload failed, keeping old result")
		return
	}
	res := schema.Compile(s, col)
	w.log.Info().
		Int("models", len(res.Table.Models)).
		Int("descriptors", len(res.Descriptors)).
		Int("diagnostics", len(res.Diagnostics)).
		Bool("ok", res.OK()).
		Dur("took", time.Since(started)).
		Msg("schema recompiled")
	w.onResult(res)
}
