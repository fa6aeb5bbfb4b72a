package config

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitora o arquivo .env e recarrega as Settings quando ele muda.
// A entrega é debounced porque editores costumam gravar o arquivo em múltiplos eventos.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	target   string
	debounce *time.Timer
	window   time.Duration
	done     chan struct{}
	closed   bool

	// Callback chamado com as novas settings (injetado pelo app.go)
	onChange func(*Settings)
}

// NewWatcher cria um Watcher para o arquivo .env em envPath
func NewWatcher(envPath string, onChange func(*Settings)) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	// Monitorar o diretório, não o arquivo: renames de editores quebram watch direto.
	dir := filepath.Dir(envPath)
	if err := fsWatcher.Add(dir); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w := &Watcher{
		watcher:  fsWatcher,
		target:   filepath.Clean(envPath),
		window:   500 * time.Millisecond,
		done:     make(chan struct{}),
		onChange: onChange,
	}

	go w.eventLoop()
	log.Printf("[CONFIG] Watching settings file %s", w.target)
	return w, nil
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.scheduleReload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[CONFIG] Watcher error: %v", err)

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(w.window, w.reload)
}

func (w *Watcher) reload() {
	settings, err := LoadSettings()
	if err != nil {
		log.Printf("[CONFIG] Settings reload failed: %v", err)
		return
	}

	log.Printf("[CONFIG] Settings reloaded from %s", w.target)
	if w.onChange != nil {
		w.onChange(settings)
	}
}

// Close encerra o watcher e libera o loop de eventos
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	if w.debounce != nil {
		w.debounce.Stop()
	}
	close(w.done)
	return w.watcher.Close()
}
