package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/nistor1/DEAL-Ecommerce-Application-sub000/notify"
)

// LoadSession reads the auth-state file the storefront session manager writes.
// A missing file is a logged-out state, not an error; a present but corrupt
// file is an error so a half-written state never opens a session.
func LoadSession(path string) (notify.AuthState, error) {
	var a notify.AuthState
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return notify.AuthState{}, nil
		}
		return a, fmt.Errorf("read session file: %w", err)
	}
	if err := json.Unmarshal(raw, &a); err != nil {
		return a, fmt.Errorf("parse session file: %w", err)
	}
	return a, nil
}

// SessionWatcher turns writes to the auth-state file into AuthState updates.
// It watches the parent directory so atomic rename-into-place and deletion
// both register.
type SessionWatcher struct {
	path string
	log  *zap.Logger

	watcher *fsnotify.Watcher

	mu       sync.Mutex
	lastLoad time.Time

	stopOnce sync.Once
	stopChan chan struct{}
	doneChan chan struct{}
}

func NewSessionWatcher(path string, log *zap.Logger) (*SessionWatcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	return &SessionWatcher{
		path:     path,
		log:      log,
		watcher:  fsw,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}, nil
}

// Start delivers the current state once, then again on every file change.
// onUpdate runs on the watch goroutine.
func (w *SessionWatcher) Start(ctx context.Context, onUpdate func(notify.AuthState)) error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch session dir: %w", err)
	}

	a, err := LoadSession(w.path)
	if err != nil {
		w.log.Warn("session file unreadable at startup", zap.Error(err))
	} else if onUpdate != nil {
		onUpdate(a)
	}

	go w.loop(ctx, onUpdate)
	return nil
}

func (w *SessionWatcher) Stop() error {
	w.stopOnce.Do(func() { close(w.stopChan) })
	select {
	case <-w.doneChan:
	case <-time.After(time.Second):
	}
	return w.watcher.Close()
}

func (w *SessionWatcher) loop(ctx context.Context, onUpdate func(notify.AuthState)) {
	defer close(w.doneChan)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.handleChange(onUpdate)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("session watcher error", zap.Error(err))
		}
	}
}

func (w *SessionWatcher) handleChange(onUpdate func(notify.AuthState)) {
	// Editors and atomic writers emit several events per save.
	w.mu.Lock()
	if time.Since(w.lastLoad) < 50*time.Millisecond {
		w.mu.Unlock()
		return
	}
	w.lastLoad = time.Now()
	w.mu.Unlock()

	a, err := LoadSession(w.path)
	if err != nil {
		w.log.Warn("session file unreadable, keeping previous state", zap.Error(err))
		return
	}
	w.log.Debug("session state changed",
		zap.Bool("loggedIn", a.LoggedIn), zap.String("userId", a.User.ID))
	if onUpdate != nil {
		onUpdate(a)
	}
}
