package config

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestManagerCreatesConfigFile(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewManager(WithConfigDir(dir))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "config.json")); err != nil {
		t.Fatalf("config file not created: %v", err)
	}
	if got := mgr.Get(); got.LLMProvider != "deepseek" {
		t.Fatalf("default provider = %q, want deepseek", got.LLMProvider)
	}
}

func TestManagerUpdatePersists(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewManager(WithConfigDir(dir))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	next := mgr.Get()
	next.DeepSeekModel = "deepseek-reasoner"
	next.CacheEnabled = false
	if err := mgr.Update(next); err != nil {
		t.Fatalf("Update: %v", err)
	}

	// 重新打开应读到落盘后的改动
	reopened, err := NewManager(WithConfigDir(dir))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got := reopened.Get()
	if got.DeepSeekModel != "deepseek-reasoner" {
		t.Errorf("model = %q, want deepseek-reasoner", got.DeepSeekModel)
	}
	if got.CacheEnabled {
		t.Error("cache_enabled should persist as false")
	}
}

func TestManagerUpdateFromJSON(t *testing.T) {
	mgr, err := NewManager(WithConfigDir(t.TempDir()))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	next := mgr.Get()
	next.UserAgent = "finsight-test/1.0"
	raw, _ := json.Marshal(next)
	if err := mgr.UpdateFromJSON(string(raw)); err != nil {
		t.Fatalf("UpdateFromJSON: %v", err)
	}
	if got := mgr.Get(); got.UserAgent != "finsight-test/1.0" {
		t.Errorf("user agent = %q", got.UserAgent)
	}
}

func TestManagerRejectsInvalidUpdate(t *testing.T) {
	mgr, err := NewManager(WithConfigDir(t.TempDir()))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	next := mgr.Get()
	next.LLMProvider = "nonsense"
	if err := mgr.Update(next); err == nil {
		t.Fatal("expected validation error for unknown provider")
	}
	if got := mgr.Get(); got.LLMProvider != "deepseek" {
		t.Errorf("rejected update must not apply, provider = %q", got.LLMProvider)
	}
}

func TestManagerWatchReloads(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewManager(WithConfigDir(dir))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan Config, 1)
	if err := mgr.Watch(ctx, func(cfg Config) {
		reloaded <- cfg
	}); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	// 外部写入（编辑器保存）应触发回调
	next := mgr.Get()
	next.DeepSeekModel = "deepseek-coder"
	if err := writeConfigFile(mgr.Path(), next); err != nil {
		t.Fatalf("writeConfigFile: %v", err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.DeepSeekModel != "deepseek-coder" {
			t.Errorf("reloaded model = %q", cfg.DeepSeekModel)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not fire on config change")
	}
}
