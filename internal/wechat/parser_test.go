package wechat

import (
	"strings"
	"testing"
)

const articleHTML = `<!DOCTYPE html>
<html><head><title>ignored</title>
<script>var ignored = "脚本内容不进正文";</script></head>
<body>
<h1 class="rich_media_title" id="activity-name">
  半导体行业深度观察
</h1>
<a id="js_name">芯片研究所</a>
<em id="publish_time">2025年06月20日 08:30</em>
<div id="js_content">
  <p>国产替代进入<strong>深水区</strong>，设备端<em>值得关注</em>。</p>
  <h2>一、行业景气度</h2>
  <p>晶圆厂稼动率回升。</p>
  <img data-src="https://mmbiz.qpic.cn/a?wx_fmt=png" alt="产能图"/>
  <blockquote>机构观点：维持超配。</blockquote>
  <ul><li>设备</li><li>材料</li></ul>
  <p>详见<a href="https://example.com/ref">参考链接</a>。</p>
  <pre><code>SMIC 0981.HK</code></pre>
</div>
<script>var tail = "尾部脚本";</script>
</body></html>`

func TestParseArticleMetadata(t *testing.T) {
	article := Parse(articleHTML)

	if article.Title != "半导体行业深度观察" {
		t.Errorf("title = %q", article.Title)
	}
	if article.Author != "芯片研究所" {
		t.Errorf("author = %q", article.Author)
	}
	if article.PublishTime != "2025年06月20日 08:30" {
		t.Errorf("publish_time = %q", article.PublishTime)
	}
}

func TestParseArticleBody(t *testing.T) {
	article := Parse(articleHTML)
	body := article.Body

	for _, want := range []string{
		"**深水区**",
		"*值得关注*",
		"## 一、行业景气度",
		"![产能图](IMAGE_0)",
		"> 机构观点：维持超配。",
		"- 设备",
		"- 材料",
		"[参考链接](https://example.com/ref)",
		"`SMIC 0981.HK`",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q\nbody:\n%s", want, body)
		}
	}

	if strings.Contains(body, "脚本内容") || strings.Contains(body, "尾部脚本") {
		t.Error("script text leaked into body")
	}
	if strings.Contains(body, "\n\n\n") {
		t.Error("body has more than two consecutive newlines")
	}
	if len(article.Images) != 1 || article.Images[0].Src != "https://mmbiz.qpic.cn/a?wx_fmt=png" {
		t.Errorf("images = %+v", article.Images)
	}
}

func TestParseHeadingInsideContent(t *testing.T) {
	html := `<div id="js_content"><h1>Title</h1><p>body text</p></div>`
	article := Parse(html)

	if !strings.HasPrefix(article.Body, "# Title") {
		t.Errorf("body = %q, want it to begin with %q", article.Body, "# Title")
	}
}

func TestParseSkipsDataURIImages(t *testing.T) {
	html := `<div id="js_content"><img src="data:image/png;base64,xxx"/><img data-src="https://mmbiz.qpic.cn/real.jpg"/></div>`
	article := Parse(html)

	if len(article.Images) != 1 {
		t.Fatalf("images = %d, want 1 (data: URI skipped)", len(article.Images))
	}
	if article.Images[0].Src != "https://mmbiz.qpic.cn/real.jpg" {
		t.Errorf("src = %q", article.Images[0].Src)
	}
}

func TestParseContentStopsAtContainerClose(t *testing.T) {
	html := `<div id="js_content"><p>正文</p></div><p>页脚推广文字</p>`
	article := Parse(html)

	if strings.Contains(article.Body, "页脚推广文字") {
		t.Errorf("body leaked past js_content: %q", article.Body)
	}
}

func TestRenderDocument(t *testing.T) {
	article := Parse(articleHTML)
	article.URL = "https://mp.weixin.qq.com/s/abc"

	out := article.Render(map[int]string{0: "./images/image_01.png"})

	if !strings.HasPrefix(out, "# 半导体行业深度观察\n") {
		t.Errorf("render prefix = %q", out[:40])
	}
	for _, want := range []string{
		"> **作者**: 芯片研究所",
		"> **发布时间**: 2025年06月20日 08:30",
		"> **原文链接**: https://mp.weixin.qq.com/s/abc",
		"\n---\n",
		"![产能图](./images/image_01.png)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("render missing %q", want)
		}
	}
	if strings.Contains(out, "IMAGE_0") {
		t.Error("unresolved image placeholder in render")
	}
}

func TestRenderFallsBackToRemoteURL(t *testing.T) {
	article := Parse(articleHTML)
	article.URL = "https://mp.weixin.qq.com/s/abc"

	out := article.Render(nil)
	if !strings.Contains(out, "![产能图](https://mmbiz.qpic.cn/a?wx_fmt=png)") {
		t.Error("render should fall back to the remote image URL")
	}
}

func TestImageExt(t *testing.T) {
	cases := map[string]string{
		"https://x/a?wx_fmt=png":  ".png",
		"https://x/a?wx_fmt=gif":  ".gif",
		"https://x/a?wx_fmt=webp": ".webp",
		"https://x/a?wx_fmt=jpeg": ".jpg",
	}
	for src, want := range cases {
		if got := imageExt(src); got != want {
			t.Errorf("imageExt(%q) = %q, want %q", src, got, want)
		}
	}
}

func TestParseOpenGraphFallback(t *testing.T) {
	html := `<html><head>
<meta property="og:title" content="环保验证 - 测试文章" />
<meta property="og:description" content="这是文章摘要。" />
<meta name="author" content="测试公众号" />
</head><body>当前环境异常，完成验证后即可继续访问。</body></html>`

	article := parseOpenGraph(html)
	if article == nil {
		t.Fatal("parseOpenGraph returned nil")
	}
	if article.Title != "环保验证 - 测试文章" {
		t.Errorf("title = %q", article.Title)
	}
	if article.Author != "测试公众号" {
		t.Errorf("author = %q", article.Author)
	}
	if article.Body != "这是文章摘要。" {
		t.Errorf("body = %q", article.Body)
	}

	if got := parseOpenGraph(`<html><head></head><body>x</body></html>`); got != nil {
		t.Errorf("expected nil without og:title, got %+v", got)
	}
}
