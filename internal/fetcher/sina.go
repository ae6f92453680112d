package fetcher

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/time/rate"

	"github.com/yikesong/finsight/config"
	"github.com/yikesong/finsight/internal/market"
)

const sinaQuoteURL = "https://hq.sinajs.cn/list=%s"

// SinaClient fetches quotes from the Sina Finance list endpoint. The payload
// is GBK-encoded positional comma fields inside a quoted JS assignment.
type SinaClient struct {
	client  *resty.Client
	cache   *CacheManager
	limiter *rate.Limiter
	logger  *zap.SugaredLogger
}

// NewSinaClient creates a new Sina Finance client
func NewSinaClient(cfg *config.Config, logger *zap.SugaredLogger) *SinaClient {
	cacheDir := filepath.Join(cfg.DataCacheDir, "sina")
	cache := NewCacheManager(cacheDir, 1*time.Minute, cfg.CacheEnabled)

	client := resty.New()
	client.SetTimeout(cfg.HTTPTimeout)
	client.SetHeader("User-Agent", cfg.UserAgent)
	client.SetHeader("Referer", "https://finance.sina.com.cn")

	return &SinaClient{
		client:  client,
		cache:   cache,
		limiter: rate.NewLimiter(rate.Every(200*time.Millisecond), 1),
		logger:  logger,
	}
}

var sinaBodyRe = regexp.MustCompile(`"(.+)"`)
var sinaFuturesLineRe = regexp.MustCompile(`hq_str_nf_(\w+)="([^"]*)"`)

// fetchRaw requests one or more vendor codes and returns the decoded body.
func (sc *SinaClient) fetchRaw(ctx context.Context, codes string) (string, error) {
	if err := sc.limiter.Wait(ctx); err != nil {
		return "", err
	}

	var body string
	err := WithRetry(DefaultRetryConfig(), func() error {
		resp, err := sc.client.R().SetContext(ctx).Get(fmt.Sprintf(sinaQuoteURL, codes))
		if err != nil {
			return fmt.Errorf("sina request for %s: %w", codes, err)
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("sina HTTP %d for %s", resp.StatusCode(), codes)
		}

		decoded, err := simplifiedchinese.GBK.NewDecoder().Bytes(resp.Body())
		if err != nil {
			return fmt.Errorf("decode GBK payload: %w", err)
		}
		body = strings.TrimSpace(string(decoded))
		return nil
	})
	return body, err
}

// GetAShare fetches an A-share quote (sh600519 / sz002594 vendor codes).
func (sc *SinaClient) GetAShare(ctx context.Context, symbol string) (*market.Quote, error) {
	code, suffix, ok := splitSymbol(symbol)
	if !ok {
		return nil, fmt.Errorf("not an A-share symbol: %s", symbol)
	}

	var sinaCode string
	switch suffix {
	case "SS":
		sinaCode = "sh" + code
	case "SZ":
		sinaCode = "sz" + code
	default:
		return nil, fmt.Errorf("not an A-share symbol: %s", symbol)
	}

	var cached market.Quote
	if sc.cache.Get("sina", "a_share", symbol, &cached) {
		return &cached, nil
	}

	body, err := sc.fetchRaw(ctx, sinaCode)
	if err != nil {
		return nil, err
	}

	quote, err := ParseSinaAShare(symbol, suffix, body)
	if err != nil {
		return nil, err
	}

	sc.cache.Set("sina", "a_share", symbol, quote)
	return quote, nil
}

// GetHKStock fetches a Hong Kong quote (hk00700 vendor code).
func (sc *SinaClient) GetHKStock(ctx context.Context, symbol string) (*market.Quote, error) {
	code := strings.TrimLeft(strings.TrimSuffix(symbol, ".HK"), "0")
	if code == "" || len(code) > 5 {
		return nil, fmt.Errorf("not a HK symbol: %s", symbol)
	}
	sinaCode := "hk" + strings.Repeat("0", 5-len(code)) + code

	var cached market.Quote
	if sc.cache.Get("sina", "hk", symbol, &cached) {
		return &cached, nil
	}

	body, err := sc.fetchRaw(ctx, sinaCode)
	if err != nil {
		return nil, err
	}

	quote, err := ParseSinaHK(symbol, code, body)
	if err != nil {
		return nil, err
	}

	sc.cache.Set("sina", "hk", symbol, quote)
	return quote, nil
}

// GetUSStock fetches a US quote (gb_tsla vendor code).
func (sc *SinaClient) GetUSStock(ctx context.Context, symbol string) (*market.Quote, error) {
	sinaCode := "gb_" + strings.ToLower(symbol)

	var cached market.Quote
	if sc.cache.Get("sina", "us", symbol, &cached) {
		return &cached, nil
	}

	body, err := sc.fetchRaw(ctx, sinaCode)
	if err != nil {
		return nil, err
	}

	quote, err := ParseSinaUS(symbol, body)
	if err != nil {
		return nil, err
	}

	sc.cache.Set("sina", "us", symbol, quote)
	return quote, nil
}

// GetFutures fetches commodity futures quotes (nf_LH2501 vendor codes).
// Contracts that fail to parse are skipped, not fatal.
func (sc *SinaClient) GetFutures(ctx context.Context, contracts []string) ([]*market.Quote, error) {
	codes := make([]string, 0, len(contracts))
	for _, c := range contracts {
		codes = append(codes, "nf_"+strings.ToUpper(c))
	}

	body, err := sc.fetchRaw(ctx, strings.Join(codes, ","))
	if err != nil {
		return nil, err
	}

	quotes := ParseSinaFutures(body)
	if len(quotes) == 0 {
		return nil, fmt.Errorf("sina futures payload had no parsable contracts")
	}
	if len(quotes) < len(contracts) {
		sc.logger.Warnf("sina futures: %d/%d contracts parsed", len(quotes), len(contracts))
	}
	return quotes, nil
}

// ParseSinaAShare parses the A-share positional payload:
// var hq_str_sh600519="贵州茅台,1829.00,1831.98,...";
func ParseSinaAShare(symbol, suffix, body string) (*market.Quote, error) {
	match := sinaBodyRe.FindStringSubmatch(body)
	if match == nil {
		return nil, fmt.Errorf("no quoted payload in sina response")
	}

	fields := strings.Split(match[1], ",")
	if len(fields) < 32 {
		return nil, fmt.Errorf("sina A-share payload has %d fields, want >= 32", len(fields))
	}

	price := &market.PriceBlock{
		Open:      decField(fields[1]),
		PrevClose: decField(fields[2]),
		Current:   decField(fields[3]),
		High:      decField(fields[4]),
		Low:       decField(fields[5]),
	}
	price.DeriveChange()

	mkt := market.AShareSZ
	if suffix == "SS" {
		mkt = market.AShareSH
	}

	return &market.Quote{
		Symbol:    symbol,
		Name:      fields[0],
		Market:    mkt,
		UpdatedAt: fields[30] + "T" + fields[31],
		Price:     price,
		Volume:    intField(fields[8]),
		Turnover:  decField(fields[9]).Round(2),
		Source:    "sina_finance",
	}, nil
}

// ParseSinaHK parses the HK positional payload.
func ParseSinaHK(symbol, code, body string) (*market.Quote, error) {
	match := sinaBodyRe.FindStringSubmatch(body)
	if match == nil {
		return nil, fmt.Errorf("no quoted payload in sina response")
	}

	fields := strings.Split(match[1], ",")
	if len(fields) < 17 {
		return nil, fmt.Errorf("sina HK payload has %d fields, want >= 17", len(fields))
	}

	changePct := decField(fields[8])
	price := &market.PriceBlock{
		Open:      decField(fields[2]),
		PrevClose: decField(fields[3]),
		High:      decField(fields[4]),
		Low:       decField(fields[5]),
		Current:   decField(fields[6]),
		Change:    decField(fields[7]),
		ChangePct: market.FormatChangePct(changePct),
	}

	name := fields[1]
	if name == "" {
		name = "HK" + code
	}

	updatedAt := time.Now().Format(time.RFC3339)
	if len(fields) > 18 && fields[17] != "" {
		updatedAt = fields[17] + "T" + fields[18]
	}

	quote := &market.Quote{
		Symbol:    symbol,
		Name:      name,
		Market:    market.HongKong,
		UpdatedAt: updatedAt,
		Price:     price,
		Volume:    intField(fields[12]),
		Turnover:  decField(fields[11]),
		Source:    "sina_finance",
	}

	if pe := decField(fields[14]); pe.IsPositive() {
		quote.PERatio = market.Dec(pe.Round(2))
	}
	high52 := decField(fields[15])
	low52 := decField(fields[16])
	if !high52.IsZero() && !low52.IsZero() {
		quote.Range52W = &market.Range52W{High: high52, Low: low52}
	}

	return quote, nil
}

// ParseSinaUS parses the US positional payload.
func ParseSinaUS(symbol, body string) (*market.Quote, error) {
	match := sinaBodyRe.FindStringSubmatch(body)
	if match == nil {
		return nil, fmt.Errorf("no quoted payload in sina response")
	}

	fields := strings.Split(match[1], ",")
	if len(fields) < 26 {
		return nil, fmt.Errorf("sina US payload has %d fields, want >= 26", len(fields))
	}

	current := decField(fields[1])
	change := decField(fields[2])
	prevClose := current.Sub(change)
	if len(fields) > 26 && fields[26] != "" {
		prevClose = decField(fields[26])
	}

	changePct := fields[3]
	if !strings.Contains(changePct, "%") {
		changePct += "%"
	}

	price := &market.PriceBlock{
		Current:   current,
		Open:      decField(fields[5]),
		High:      decField(fields[6]),
		Low:       decField(fields[7]),
		PrevClose: prevClose.Round(2),
		Change:    change,
		ChangePct: changePct,
	}

	name := fields[0]
	if name == "" {
		name = symbol
	}

	updatedAt := time.Now().Format(time.RFC3339)
	if len(fields) > 25 && fields[25] != "" {
		updatedAt = fields[25]
	}

	quote := &market.Quote{
		Symbol:    symbol,
		Name:      name,
		Market:    market.US,
		UpdatedAt: updatedAt,
		Price:     price,
		Volume:    intField(fields[10]),
		Source:    "sina_finance",
	}

	if pe := decField(fields[12]); !pe.IsZero() {
		quote.PERatio = market.Dec(pe.Round(2))
	}
	if eps := decField(fields[11]); !eps.IsZero() {
		quote.EPS = market.Dec(eps)
	}
	if mc := decField(fields[13]); !mc.IsZero() {
		quote.MarketCap = market.Dec(mc)
	}
	high52 := decField(fields[8])
	low52 := decField(fields[9])
	if !high52.IsZero() && !low52.IsZero() {
		quote.Range52W = &market.Range52W{High: high52, Low: low52}
	}

	return quote, nil
}

// ParseSinaFutures parses one quote per hq_str_nf_* line.
func ParseSinaFutures(body string) []*market.Quote {
	var quotes []*market.Quote

	for _, line := range strings.Split(body, "\n") {
		if !strings.Contains(line, "=") {
			continue
		}
		match := sinaFuturesLineRe.FindStringSubmatch(line)
		if match == nil {
			continue
		}

		code := match[1]
		fields := strings.Split(match[2], ",")
		if len(fields) < 15 {
			continue
		}

		name := fields[0]
		if name == "" {
			name = code
		}

		price := &market.PriceBlock{
			Open:      decField(fields[2]),
			High:      decField(fields[3]),
			Low:       decField(fields[4]),
			Current:   decField(fields[6]),
			PrevClose: decField(fields[7]),
		}
		price.DeriveChange()

		quotes = append(quotes, &market.Quote{
			Symbol:     code,
			Name:       name,
			Market:     market.Commodity,
			UpdatedAt:  time.Now().Format(time.RFC3339),
			Price:      price,
			Settle:     market.Dec(decField(fields[5])),
			PrevSettle: market.Dec(decField(fields[7])),
			Position:   intField(fields[13]),
			Volume:     intField(fields[14]),
			Source:     "sina_finance",
		})
	}

	return quotes
}

// decField parses a positional field, treating empty/garbage as zero the way
// the vendor payloads expect.
func decField(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func intField(s string) int64 {
	return decField(s).IntPart()
}

// splitSymbol splits "600519.SS" into code and suffix.
func splitSymbol(symbol string) (code, suffix string, ok bool) {
	parts := strings.SplitN(symbol, ".", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}
