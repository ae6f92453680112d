// Package extractor reads research-report documents (.docx, .pdf) into plain
// text for downstream keyword analysis.
package extractor

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// Document is one extracted report.
type Document struct {
	Path    string `json:"path"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Content string `json:"content"`
	Length  int    `json:"length"` // 字符数（非字节数）
}

// Extractor reads every supported report in a directory.
type Extractor struct {
	logger *zap.SugaredLogger
}

// New creates a report extractor
func New(logger *zap.SugaredLogger) *Extractor {
	return &Extractor{logger: logger}
}

// ExtractFile dispatches on the file extension.
func (e *Extractor) ExtractFile(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".docx":
		return ExtractDOCX(path)
	case ".pdf":
		return ExtractPDF(path)
	default:
		return "", fmt.Errorf("unsupported report format: %s", path)
	}
}

// ExtractDir reads every .docx and .pdf directly under dir (non-recursive) in
// name order. A file that fails to parse still yields a document whose content
// is the error text, so one broken report never sinks a batch; an empty or
// reportless directory yields an empty slice.
func (e *Extractor) ExtractDir(dir string) ([]Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read report dir %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		// Word 临时文件（~$开头）和隐藏文件不算报告
		if strings.HasPrefix(name, "~$") || strings.HasPrefix(name, ".") {
			continue
		}
		ext := strings.ToLower(filepath.Ext(name))
		if ext == ".docx" || ext == ".pdf" {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	docs := make([]Document, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		content, err := e.ExtractFile(path)
		if err != nil {
			e.logger.Warnf("extract %s: %v", path, err)
			content = fmt.Sprintf("Error reading %s: %v", path, err)
		}
		docs = append(docs, Document{
			Path:    path,
			Name:    name,
			Type:    strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), "."),
			Content: content,
			Length:  utf8.RuneCountInString(content),
		})
	}

	return docs, nil
}
