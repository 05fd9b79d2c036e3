package config

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestWatcherReloadsOnWrite(t *testing.T) {
	path := writeTempConfig(t, validConfig)

	w, err := NewWatcher(path, 10*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer w.Stop()

	var mu sync.Mutex
	var got []AppConfig
	if err := w.Start(context.Background(), func(cfg AppConfig) {
		mu.Lock()
		got = append(got, cfg)
		mu.Unlock()
	}); err != nil {
		t.Fatalf("start watcher: %v", err)
	}

	updated := strings.Replace(validConfig, "env: dev", "env: staging", 1)
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(got)
		env := ""
		if n > 0 {
			env = got[n-1].Env
		}
		mu.Unlock()
		if env == "staging" {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("timed out waiting for config reload")
}

func TestWatcherSkipsInvalidIntermediate(t *testing.T) {
	path := writeTempConfig(t, validConfig)

	w, err := NewWatcher(path, 10*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer w.Stop()

	var mu sync.Mutex
	count := 0
	if err := w.Start(context.Background(), func(AppConfig) {
		mu.Lock()
		count++
		mu.Unlock()
	}); err != nil {
		t.Fatalf("start watcher: %v", err)
	}

	// An unparseable file must never reach the callback.
	if err := os.WriteFile(path, []byte("env: ["), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if count != 0 {
		t.Errorf("invalid config reached the callback %d times", count)
	}
}
