package extractor

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// ExtractDOCX pulls the plain text out of a .docx file: body paragraphs in
// document order, then table rows with cells joined by " | ".
func ExtractDOCX(path string) (string, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("open docx %s: %w", path, err)
	}
	defer reader.Close()

	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("open document.xml in %s: %w", path, err)
		}
		defer rc.Close()
		return extractDocumentXML(rc)
	}

	return "", fmt.Errorf("%s has no word/document.xml", path)
}

// extractDocumentXML walks the WordprocessingML token stream. Body paragraphs
// come out first, then every table row as one line with its w:tc cells joined
// by " | ".
func extractDocumentXML(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)

	var (
		paraLines  []string
		tableLines []string
		tableDepth int
		paragraph  strings.Builder
		cell       strings.Builder
		row        []string
	)

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document.xml: %w", err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				tableDepth++
			case "tr":
				row = row[:0]
			case "tc":
				cell.Reset()
			case "p":
				if tableDepth == 0 {
					paragraph.Reset()
				}
			case "t":
				var text string
				if err := decoder.DecodeElement(&text, &t); err != nil {
					continue
				}
				if tableDepth > 0 {
					cell.WriteString(text)
				} else {
					paragraph.WriteString(text)
				}
			case "tab":
				if tableDepth == 0 {
					paragraph.WriteString("\t")
				}
			case "br":
				if tableDepth == 0 {
					paragraph.WriteString("\n")
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "tbl":
				if tableDepth > 0 {
					tableDepth--
				}
			case "tr":
				if tableDepth > 0 {
					tableLines = append(tableLines, strings.Join(row, " | "))
				}
			case "tc":
				if tableDepth > 0 {
					row = append(row, strings.TrimSpace(cell.String()))
				}
			case "p":
				if tableDepth == 0 {
					if text := strings.TrimSpace(paragraph.String()); text != "" {
						paraLines = append(paraLines, text)
					}
				} else {
					// paragraph break inside a cell
					cell.WriteString(" ")
				}
			}
		}
	}

	return strings.Join(append(paraLines, tableLines...), "\n"), nil
}
