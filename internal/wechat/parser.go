// Package wechat converts WeChat official-account articles into Markdown.
package wechat

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// ImageRef is one image found in the article body. Src keeps the remote URL;
// the body carries an IMAGE_n placeholder until images are materialized.
type ImageRef struct {
	Src string
	Alt string
}

// Article is a parsed WeChat article.
type Article struct {
	Title       string
	Author      string
	PublishTime string
	URL         string
	Body        string // markdown with IMAGE_n placeholders
	Images      []ImageRef
}

var (
	crlfRe     = regexp.MustCompile(`[\r\n]+`)
	spacesRe   = regexp.MustCompile(`[ \t]+`)
	newline3Re = regexp.MustCompile(`\n{3,}`)
)

// Parse walks the article HTML with a streaming tokenizer. The title, author
// and publish-time regions are recognized by the fixed ids WeChat uses;
// everything under js_content becomes Markdown.
func Parse(htmlText string) *Article {
	z := html.NewTokenizer(strings.NewReader(htmlText))

	article := &Article{}
	var md strings.Builder
	var linkHrefs []string

	var (
		inTitle      bool
		inAuthor     bool
		inTime       bool
		inContent    bool
		contentDepth int
		rawSkipDepth int // inside script/style
	)

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}

		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			token := z.Token()
			tag := token.Data
			attrs := attrMap(token.Attr)

			if tag == "script" || tag == "style" {
				if tt == html.StartTagToken {
					rawSkipDepth++
				}
				continue
			}

			switch {
			case attrs["id"] == "activity-name" || strings.Contains(attrs["class"], "rich_media_title"):
				inTitle = true
			case attrs["id"] == "js_name":
				inAuthor = true
			case attrs["id"] == "publish_time":
				inTime = true
			case attrs["id"] == "js_content":
				inContent = true
				contentDepth = 1
				continue
			}

			if !inContent {
				continue
			}
			if tt == html.StartTagToken && !isVoidTag(tag) {
				contentDepth++
			}

			switch tag {
			case "img":
				src := attrs["data-src"]
				if src == "" {
					src = attrs["src"]
				}
				if src != "" && !strings.HasPrefix(src, "data:") {
					alt := attrs["alt"]
					if alt == "" {
						alt = "image"
					}
					md.WriteString("\n![" + alt + "](IMAGE_" + strconv.Itoa(len(article.Images)) + ")\n")
					article.Images = append(article.Images, ImageRef{Src: src, Alt: alt})
				}
			case "br":
				md.WriteString("\n")
			case "p":
				md.WriteString("\n\n")
			case "h1":
				md.WriteString("\n\n# ")
			case "h2":
				md.WriteString("\n\n## ")
			case "h3":
				md.WriteString("\n\n### ")
			case "h4":
				md.WriteString("\n\n#### ")
			case "strong", "b":
				md.WriteString("**")
			case "em", "i":
				if !inTime {
					md.WriteString("*")
				}
			case "blockquote":
				md.WriteString("\n\n> ")
			case "li":
				md.WriteString("\n- ")
			case "a":
				linkHrefs = append(linkHrefs, attrs["href"])
				md.WriteString("[")
			case "code":
				md.WriteString("`")
			case "pre":
				md.WriteString("\n\n```\n")
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)

			if tag == "script" || tag == "style" {
				if rawSkipDepth > 0 {
					rawSkipDepth--
				}
				continue
			}

			if inTitle && (tag == "h1" || tag == "h2") {
				inTitle = false
			}
			if inAuthor && (tag == "a" || tag == "span") {
				inAuthor = false
			}
			if inTime && tag == "em" {
				inTime = false
			}

			if !inContent {
				continue
			}
			if !isVoidTag(tag) {
				contentDepth--
				if contentDepth <= 0 {
					inContent = false
					continue
				}
			}

			switch tag {
			case "strong", "b":
				md.WriteString("**")
			case "em", "i":
				if !inTime {
					md.WriteString("*")
				}
			case "a":
				href := ""
				if n := len(linkHrefs); n > 0 {
					href = linkHrefs[n-1]
					linkHrefs = linkHrefs[:n-1]
				}
				md.WriteString("](" + href + ")")
			case "code":
				md.WriteString("`")
			case "pre":
				md.WriteString("\n```\n")
			case "p", "div", "section", "h1", "h2", "h3", "h4":
				md.WriteString("\n")
			}

		case html.TextToken:
			if rawSkipDepth > 0 {
				continue
			}
			text := string(z.Text())

			switch {
			case inTitle && article.Title == "":
				article.Title = strings.TrimSpace(text)
			case inAuthor && article.Author == "":
				article.Author = strings.TrimSpace(text)
			case inTime && article.PublishTime == "":
				article.PublishTime = strings.TrimSpace(text)
			case inContent:
				cleaned := crlfRe.ReplaceAllString(text, " ")
				cleaned = spacesRe.ReplaceAllString(cleaned, " ")
				if strings.TrimSpace(cleaned) != "" {
					md.WriteString(cleaned)
				}
			}
		}
	}

	body := newline3Re.ReplaceAllString(md.String(), "\n\n")
	article.Body = strings.TrimSpace(body)
	return article
}

// Render assembles the final document with the quoted metadata block. resolved
// maps placeholder index to the path or URL that replaces it.
func (a *Article) Render(resolved map[int]string) string {
	body := a.Body
	// replace back to front so IMAGE_1 never clobbers IMAGE_10
	for i := len(a.Images) - 1; i >= 0; i-- {
		target, ok := resolved[i]
		if !ok {
			target = a.Images[i].Src
		}
		body = strings.ReplaceAll(body, "IMAGE_"+strconv.Itoa(i), target)
	}

	var out strings.Builder
	out.WriteString("# " + a.Title + "\n\n")
	out.WriteString("> **作者**: " + a.Author + "\n")
	out.WriteString("> **发布时间**: " + a.PublishTime + "\n")
	out.WriteString("> **原文链接**: " + a.URL + "\n\n")
	out.WriteString("---\n\n")
	out.WriteString(body)
	out.WriteString("\n")
	return out.String()
}

func attrMap(attrs []html.Attribute) map[string]string {
	m := make(map[string]string, len(attrs))
	for _, attr := range attrs {
		m[attr.Key] = attr.Val
	}
	return m
}

// isVoidTag reports tags that never close, so content depth ignores them.
func isVoidTag(tag string) bool {
	switch tag {
	case "img", "br", "hr", "input", "meta", "link", "source", "wbr":
		return true
	}
	return false
}

