package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "result.json")

	payload := map[string]any{"sector": "医药", "score": 82.5}
	if err := SaveJSON(path, payload); err != nil {
		t.Fatalf("SaveJSON: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	text := string(raw)
	if !strings.Contains(text, "医药") {
		t.Fatal("chinese text should survive round-trip unescaped or escaped consistently")
	}
	if !strings.Contains(text, "\n") {
		t.Fatal("output should be indented")
	}
}

func TestWriteMarkdown(t *testing.T) {
	dir := t.TempDir()
	if err := WriteMarkdown(filepath.Join(dir, "reports"), "final.md", "# 标题\n"); err != nil {
		t.Fatalf("WriteMarkdown: %v", err)
	}
	raw, err := os.ReadFile(filepath.Join(dir, "reports", "final.md"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(raw) != "# 标题\n" {
		t.Fatalf("content = %q", raw)
	}
}
