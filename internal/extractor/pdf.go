package extractor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ExtractPDF pulls the text out of a PDF. pdfcpu has no direct text
// extraction, so the page content streams are dumped and the text-showing
// operators (Tj, TJ, ') decoded out of them.
func ExtractPDF(path string) (string, error) {
	pdfCtx, err := api.ReadContextFile(path)
	if err != nil {
		return "", fmt.Errorf("read pdf %s: %w", path, err)
	}
	pageCount := pdfCtx.PageCount

	outDir, err := os.MkdirTemp("", "finsight-pdf-*")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractContentFile(path, outDir, nil, conf); err != nil {
		return "", fmt.Errorf("extract pdf content %s: %w", path, err)
	}

	pageTexts := make(map[int]string)
	entries, _ := os.ReadDir(outDir)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		var pageNum int
		if _, err := fmt.Sscanf(entry.Name(), "Content_page_%d", &pageNum); err != nil {
			if _, err := fmt.Sscanf(entry.Name(), "page_%d", &pageNum); err != nil {
				continue
			}
		}
		content, err := os.ReadFile(filepath.Join(outDir, entry.Name()))
		if err != nil {
			continue
		}
		pageTexts[pageNum] = DecodeContentText(string(content))
	}

	var builder strings.Builder
	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		text := strings.TrimSpace(pageTexts[pageNum])
		if text == "" {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(text)
	}

	return builder.String(), nil
}

// DecodeContentText recovers the literal strings shown by Tj/TJ/' operators
// from a raw page content stream. Hex strings and multi-byte CID encodings
// are skipped; reports from the usual publishers carry WinAnsi/UTF-8 literals
// that survive this.
func DecodeContentText(stream string) string {
	var builder strings.Builder
	i := 0
	n := len(stream)

	for i < n {
		if stream[i] != '(' {
			if stream[i] == 'T' && i+1 < n && (stream[i+1] == 'd' || stream[i+1] == '*' || stream[i+1] == 'D') {
				// text positioning operator: treat as a line break
				builder.WriteString("\n")
				i += 2
				continue
			}
			i++
			continue
		}

		// literal string: scan to the balancing ')', honoring escapes
		i++
		depth := 1
		var literal strings.Builder
		for i < n && depth > 0 {
			c := stream[i]
			switch c {
			case '\\':
				if i+1 < n {
					literal.WriteString(unescapePDF(stream[i+1]))
					i += 2
					continue
				}
				i++
			case '(':
				depth++
				literal.WriteByte(c)
				i++
			case ')':
				depth--
				if depth > 0 {
					literal.WriteByte(c)
				}
				i++
			default:
				literal.WriteByte(c)
				i++
			}
		}

		// only keep strings actually shown by a text operator
		rest := strings.TrimLeft(stream[i:min(i+8, n)], " \t\r\n")
		if strings.HasPrefix(rest, "Tj") || strings.HasPrefix(rest, "'") ||
			strings.HasPrefix(rest, "\"") || looksLikeTJArray(stream, i) {
			builder.WriteString(literal.String())
		}
	}

	return builder.String()
}

// looksLikeTJArray reports whether the literal at pos sits inside a TJ array,
// i.e. the next structural token is ']' followed by TJ or another element.
func looksLikeTJArray(stream string, pos int) bool {
	for pos < len(stream) {
		switch stream[pos] {
		case ' ', '\t', '\r', '\n':
			pos++
		case ']':
			rest := strings.TrimLeft(stream[pos+1:min(pos+9, len(stream))], " \t\r\n")
			return strings.HasPrefix(rest, "TJ")
		case '-', '.', '(', ')':
			return true // kerning number or adjacent element
		default:
			if stream[pos] >= '0' && stream[pos] <= '9' {
				return true
			}
			return false
		}
	}
	return false
}

func unescapePDF(c byte) string {
	switch c {
	case 'n':
		return "\n"
	case 'r':
		return "\r"
	case 't':
		return "\t"
	case '(', ')', '\\':
		return string(c)
	default:
		return ""
	}
}
