package wechat

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/yikesong/finsight/config"
)

const browserUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Client fetches WeChat articles and their images. WeChat serves different
// content to non-browser agents, so requests carry a full browser header set.
type Client struct {
	client *resty.Client
	logger *zap.SugaredLogger
}

// NewClient creates a WeChat article client
func NewClient(cfg *config.Config, logger *zap.SugaredLogger) *Client {
	client := resty.New()
	client.SetTimeout(cfg.HTTPTimeout)
	client.SetHeaders(map[string]string{
		"User-Agent":                browserUA,
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
		"Accept-Language":           "zh-CN,zh;q=0.9,en;q=0.8",
		"Connection":                "keep-alive",
		"Upgrade-Insecure-Requests": "1",
	})

	return &Client{client: client, logger: logger}
}

// FetchArticle downloads and parses one article.
func (c *Client) FetchArticle(ctx context.Context, url string) (*Article, error) {
	if !strings.Contains(url, "mp.weixin.qq.com") {
		return nil, fmt.Errorf("not a wechat article url: %s", url)
	}

	resp, err := c.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch article: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("fetch article: HTTP %d", resp.StatusCode())
	}

	c.logger.Debugf("fetched %d bytes from %s", len(resp.Body()), url)

	article := Parse(string(resp.Body()))
	article.URL = url
	if article.Title == "" {
		// 被拦截或需登录的文章正文缺失，退回 og meta
		if fallback := parseOpenGraph(string(resp.Body())); fallback != nil {
			c.logger.Warnf("js_content missing for %s, using og meta", url)
			fallback.URL = url
			return fallback, nil
		}
		return nil, fmt.Errorf("no article content found (deleted or login-gated?)")
	}
	return article, nil
}

func parseOpenGraph(htmlText string) *Article {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlText))
	if err != nil {
		return nil
	}

	title, _ := doc.Find(`meta[property="og:title"]`).Attr("content")
	title = strings.TrimSpace(title)
	if title == "" {
		return nil
	}
	desc, _ := doc.Find(`meta[property="og:description"]`).Attr("content")
	author, _ := doc.Find(`meta[name="author"]`).Attr("content")

	return &Article{
		Title:  title,
		Author: strings.TrimSpace(author),
		Body:   strings.TrimSpace(desc),
	}
}
