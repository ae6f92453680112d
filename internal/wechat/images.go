package wechat

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// imageExt sniffs the extension from the image URL; WeChat CDN encodes the
// format as a wx_fmt query parameter.
func imageExt(src string) string {
	switch {
	case strings.Contains(src, "png"):
		return ".png"
	case strings.Contains(src, "gif"):
		return ".gif"
	case strings.Contains(src, "webp"):
		return ".webp"
	default:
		return ".jpg"
	}
}

// DownloadImages saves the article's images under imagesDir and returns the
// placeholder resolution map. A failed download falls back to the remote URL
// so the rendered Markdown never loses an image.
func (c *Client) DownloadImages(ctx context.Context, article *Article, imagesDir string) map[int]string {
	resolved := make(map[int]string, len(article.Images))
	if len(article.Images) == 0 {
		return resolved
	}

	if err := os.MkdirAll(imagesDir, 0755); err != nil {
		c.logger.Warnf("create images dir %s: %v", imagesDir, err)
		for i, img := range article.Images {
			resolved[i] = img.Src
		}
		return resolved
	}

	for i, img := range article.Images {
		filename := fmt.Sprintf("image_%02d%s", i+1, imageExt(img.Src))
		path := filepath.Join(imagesDir, filename)

		if err := c.downloadImage(ctx, img.Src, path); err != nil {
			c.logger.Warnf("download image %d/%d: %v", i+1, len(article.Images), err)
			resolved[i] = img.Src
			continue
		}
		resolved[i] = "./images/" + filename
	}
	return resolved
}

func (c *Client) downloadImage(ctx context.Context, src, path string) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Referer", "https://mp.weixin.qq.com/").
		SetHeader("Accept", "image/avif,image/webp,image/apng,image/*,*/*;q=0.8").
		Get(src)
	if err != nil {
		return err
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("HTTP %d", resp.StatusCode())
	}

	return os.WriteFile(path, resp.Body(), 0644)
}
