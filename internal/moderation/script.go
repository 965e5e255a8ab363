package moderation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/fsnotify/fsnotify"
)

// ScriptClassifier runs a Tengo script against each message. The script
// receives the message as `input` and must assign a boolean to `spam`:
//
//	text := import("text")
//	spam := text.contains(text.to_lower(input), "spam")
//
// The script file is watched and reloaded on change, so moderation rules
// can be tuned without a restart.
type ScriptClassifier struct {
	path     string
	fallback Classifier

	mu     sync.RWMutex
	source []byte

	watcher *fsnotify.Watcher
}

// NewScriptClassifier loads the script at path and starts watching it for
// changes. When the script fails to load or run, classification falls back
// to the given Classifier (never failing open without a verdict).
func NewScriptClassifier(path string, fallback Classifier) (*ScriptClassifier, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read moderation script: %w", err)
	}

	sc := &ScriptClassifier{
		path:     path,
		fallback: fallback,
		source:   source,
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create script watcher: %w", err)
	}
	// Watch the directory, not the file: editors replace files on save and
	// a file watch would be lost after the first rename.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch script directory: %w", err)
	}
	sc.watcher = watcher
	go sc.watch()

	return sc, nil
}

// IsSpam implements Classifier by evaluating the current script.
func (sc *ScriptClassifier) IsSpam(text string) bool {
	sc.mu.RLock()
	source := sc.source
	sc.mu.RUnlock()

	script := tengo.NewScript(source)
	script.SetImports(stdlib.GetModuleMap("text", "math", "times"))
	if err := script.Add("input", text); err != nil {
		slog.Error("Moderation script rejected input variable", "error", err)
		return sc.fallback.IsSpam(text)
	}

	compiled, err := script.Run()
	if err != nil {
		slog.Error("Moderation script failed, using fallback classifier", "error", err)
		return sc.fallback.IsSpam(text)
	}

	verdict := compiled.Get("spam")
	if verdict == nil {
		slog.Error("Moderation script did not set 'spam', using fallback classifier", "path", sc.path)
		return sc.fallback.IsSpam(text)
	}
	return verdict.Bool()
}

// Close stops the file watcher.
func (sc *ScriptClassifier) Close() error {
	return sc.watcher.Close()
}

// watch reloads the script whenever its file is written or recreated.
func (sc *ScriptClassifier) watch() {
	for {
		select {
		case event, ok := <-sc.watcher.Events:
			if !ok {
				return
			}
			if event.Name != sc.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			sc.reload()

		case err, ok := <-sc.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Moderation script watcher error", "error", err)
		}
	}
}

func (sc *ScriptClassifier) reload() {
	source, err := os.ReadFile(sc.path)
	if err != nil {
		slog.Error("Failed to reload moderation script, keeping previous version", "path", sc.path, "error", err)
		return
	}

	sc.mu.Lock()
	sc.source = source
	sc.mu.Unlock()
	slog.Info("Moderation script reloaded", "path", sc.path)
}
