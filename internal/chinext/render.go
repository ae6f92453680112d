package chinext

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"

	"github.com/yikesong/finsight/internal/fetcher"
)

// 创业板指数行情页，用来预热浏览器会话
const quotePageURL = "https://quote.eastmoney.com/zs399006.html"

// FetchKlinesViaBrowser 通过无头浏览器访问K线接口，绕过对直连请求的封锁。
// 浏览器渲染裸JSON时会包在 <pre> 标签里。
func FetchKlinesViaBrowser(ctx context.Context, q fetcher.KlineQuery, timeout time.Duration) ([]fetcher.KlineBar, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, timeoutCancel := context.WithTimeout(browserCtx, timeout)
	defer timeoutCancel()

	// 先访问行情页取得会话cookie，再请求K线接口
	var pageHTML string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(quotePageURL),
		chromedp.Sleep(2*time.Second),
		chromedp.Navigate(fetcher.KlineURL(q)),
		chromedp.Sleep(2*time.Second),
		chromedp.OuterHTML("html", &pageHTML),
	)
	if err != nil {
		return nil, fmt.Errorf("browser fetch: %w", err)
	}

	payload, err := extractPreJSON(pageHTML)
	if err != nil {
		return nil, err
	}
	return fetcher.ParseKlines([]byte(payload))
}

func extractPreJSON(pageHTML string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return "", fmt.Errorf("parse rendered page: %w", err)
	}
	payload := strings.TrimSpace(doc.Find("pre").First().Text())
	if payload == "" {
		// 某些浏览器版本直接把JSON放在body里
		payload = strings.TrimSpace(doc.Find("body").Text())
	}
	if !strings.HasPrefix(payload, "{") {
		return "", fmt.Errorf("no JSON payload in rendered page")
	}
	return payload, nil
}
