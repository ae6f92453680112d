package extractor

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>医药行业周报</w:t></w:r></w:p>
    <w:p><w:r><w:t>创新药管线持续</w:t></w:r><w:r><w:t>放量增长</w:t></w:r></w:p>
    <w:p><w:r><w:t xml:space="preserve"> </w:t></w:r></w:p>
    <w:tbl>
      <w:tr>
        <w:tc><w:p><w:r><w:t>公司</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>评级</w:t></w:r></w:p></w:tc>
      </w:tr>
      <w:tr>
        <w:tc><w:p><w:r><w:t>恒瑞医药</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>买入</w:t></w:r></w:p></w:tc>
      </w:tr>
    </w:tbl>
  </w:body>
</w:document>`

func writeDOCX(t *testing.T, dir, name, documentXML string) string {
	t.Helper()
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return path
}

func TestExtractDOCX(t *testing.T) {
	path := writeDOCX(t, t.TempDir(), "report.docx", documentXML)

	text, err := ExtractDOCX(path)
	if err != nil {
		t.Fatalf("ExtractDOCX failed: %v", err)
	}

	lines := strings.Split(text, "\n")
	want := []string{
		"医药行业周报",
		"创新药管线持续放量增长",
		"公司 | 评级",
		"恒瑞医药 | 买入",
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines %q, want %d", len(lines), lines, len(want))
	}
	for i, line := range want {
		if lines[i] != line {
			t.Errorf("line %d = %q, want %q", i, lines[i], line)
		}
	}
}

func TestExtractDOCXMissingDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.docx")

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	zw.Close()
	f.Close()

	if _, err := ExtractDOCX(path); err == nil {
		t.Fatal("expected error for docx without document.xml")
	}
}

func TestExtractDirEmpty(t *testing.T) {
	e := New(zap.NewNop().Sugar())

	docs, err := e.ExtractDir(t.TempDir())
	if err != nil {
		t.Fatalf("ExtractDir failed: %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("empty dir should yield no documents, got %d", len(docs))
	}
}

func TestExtractDirEmbedsPerFileErrors(t *testing.T) {
	dir := t.TempDir()
	writeDOCX(t, dir, "good.docx", documentXML)
	if err := os.WriteFile(filepath.Join(dir, "broken.docx"), []byte("not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}
	// Word 临时文件不应被读取
	if err := os.WriteFile(filepath.Join(dir, "~$good.docx"), []byte("lock"), 0o644); err != nil {
		t.Fatal(err)
	}

	e := New(zap.NewNop().Sugar())
	docs, err := e.ExtractDir(dir)
	if err != nil {
		t.Fatalf("ExtractDir failed: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2", len(docs))
	}

	// name order: broken.docx before good.docx
	if !strings.HasPrefix(docs[0].Content, "Error reading ") {
		t.Errorf("broken file content = %q, want embedded error", docs[0].Content)
	}
	if !strings.Contains(docs[1].Content, "医药行业周报") {
		t.Errorf("good file content missing text: %q", docs[1].Content)
	}
	if docs[1].Type != "docx" {
		t.Errorf("type = %q, want docx", docs[1].Type)
	}
	if docs[1].Length != len([]rune(docs[1].Content)) {
		t.Errorf("length = %d, want rune count %d", docs[1].Length, len([]rune(docs[1].Content)))
	}
}

func TestDecodeContentText(t *testing.T) {
	stream := `BT /F1 12 Tf 72 712 Td (半导体行业) Tj T* (景气度回升) Tj ET
[(国产)-120(替代)] TJ (ignored, no operator)`

	text := DecodeContentText(stream)
	for _, want := range []string{"半导体行业", "景气度回升", "国产", "替代"} {
		if !strings.Contains(text, want) {
			t.Errorf("decoded text %q missing %q", text, want)
		}
	}
	if strings.Contains(text, "ignored") {
		t.Errorf("decoded text %q contains unshown literal", text)
	}
}

func TestDecodeContentTextEscapes(t *testing.T) {
	text := DecodeContentText(`(a\(b\)c) Tj`)
	if !strings.Contains(text, "a(b)c") {
		t.Errorf("decoded %q, want escaped parens preserved", text)
	}
}
