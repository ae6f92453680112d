package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/yikesong/finsight/config"
	"github.com/yikesong/finsight/internal/market"
)

const (
	eastmoneySnapshotURL = "https://push2.eastmoney.com/api/qt/stock/get"
	eastmoneyKlineURL    = "https://push2his.eastmoney.com/api/qt/stock/kline/get"

	// Vendor-required query token, fixed per endpoint.
	eastmoneySnapshotUT = "fa5fd1943c7b386f172d6893dbbd1567"
	eastmoneyKlineUT    = "fa5fd1943c7b386f172d6893dbfba10b"
)

// snapshotFields is the f-field list the stock snapshot endpoint is asked for.
const snapshotFields = "f43,f44,f45,f46,f47,f48,f50,f51,f52,f55,f57,f58,f60,f116,f117,f162,f167,f170,f171,f173"

// futuresFields is the narrower list used for futures contracts.
const futuresFields = "f43,f44,f45,f46,f47,f48,f50,f57,f58,f60,f116,f117"

// EastMoneyClient fetches quotes and klines from the EastMoney push2 API.
// Prices arrive as scaled integers: /1000 for stocks, /100 for futures.
type EastMoneyClient struct {
	client  *resty.Client
	cache   *CacheManager
	limiter *rate.Limiter
	logger  *zap.SugaredLogger
}

// NewEastMoneyClient creates a new EastMoney client
func NewEastMoneyClient(cfg *config.Config, logger *zap.SugaredLogger) *EastMoneyClient {
	cacheDir := filepath.Join(cfg.DataCacheDir, "eastmoney")
	cache := NewCacheManager(cacheDir, 1*time.Minute, cfg.CacheEnabled)

	client := resty.New()
	client.SetTimeout(cfg.HTTPTimeout)
	client.SetHeader("User-Agent", cfg.UserAgent)
	client.SetHeader("Referer", "https://quote.eastmoney.com/")

	return &EastMoneyClient{
		client:  client,
		cache:   cache,
		limiter: rate.NewLimiter(rate.Every(200*time.Millisecond), 1),
		logger:  logger,
	}
}

// snapshotEnvelope is the common push2 response wrapper.
type snapshotEnvelope struct {
	Data map[string]json.RawMessage `json:"data"`
}

func (ec *EastMoneyClient) fetchSnapshot(ctx context.Context, secid, fields string) (map[string]json.RawMessage, error) {
	if err := ec.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var data map[string]json.RawMessage
	err := WithRetry(DefaultRetryConfig(), func() error {
		resp, err := ec.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"secid":  secid,
				"fields": fields,
				"ut":     eastmoneySnapshotUT,
			}).
			Get(eastmoneySnapshotURL)
		if err != nil {
			return fmt.Errorf("eastmoney request for %s: %w", secid, err)
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("eastmoney HTTP %d for %s", resp.StatusCode(), secid)
		}

		parsed, err := ParseEastMoneySnapshot(resp.Body())
		if err != nil {
			return err
		}
		data = parsed
		return nil
	})
	return data, err
}

// ParseEastMoneySnapshot unwraps the push2 envelope and returns the raw
// f-field map. A null data object means the symbol is unknown to the vendor.
func ParseEastMoneySnapshot(body []byte) (map[string]json.RawMessage, error) {
	var envelope snapshotEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode eastmoney payload: %w", err)
	}
	if len(envelope.Data) == 0 {
		return nil, fmt.Errorf("eastmoney payload has no data object")
	}
	return envelope.Data, nil
}

// GetAShare fetches an A-share snapshot with fundamentals attached.
func (ec *EastMoneyClient) GetAShare(ctx context.Context, symbol string) (*market.Quote, error) {
	code, suffix, ok := splitSymbol(symbol)
	if !ok {
		return nil, fmt.Errorf("not an A-share symbol: %s", symbol)
	}

	var secid string
	var mkt market.Market
	switch suffix {
	case "SS":
		secid = "1." + code
		mkt = market.AShareSH
	case "SZ":
		secid = "0." + code
		mkt = market.AShareSZ
	default:
		return nil, fmt.Errorf("not an A-share symbol: %s", symbol)
	}

	var cached market.Quote
	if ec.cache.Get("eastmoney", "a_share", symbol, &cached) {
		return &cached, nil
	}

	data, err := ec.fetchSnapshot(ctx, secid, snapshotFields)
	if err != nil {
		return nil, err
	}

	quote := BuildAShareQuote(symbol, mkt, data)
	ec.cache.Set("eastmoney", "a_share", symbol, quote)
	return quote, nil
}

// BuildAShareQuote maps the snapshot f-fields into a normalized quote.
// Price fields are thousandths, pe/pb/turnover-rate hundredths.
func BuildAShareQuote(symbol string, mkt market.Market, data map[string]json.RawMessage) *market.Quote {
	thousand := decimal.NewFromInt(1000)
	hundred := decimal.NewFromInt(100)

	price := &market.PriceBlock{
		Current:   numField(data, "f43").Div(thousand),
		High:      numField(data, "f44").Div(thousand),
		Low:       numField(data, "f45").Div(thousand),
		Open:      numField(data, "f46").Div(thousand),
		PrevClose: numField(data, "f60").Div(thousand),
	}
	price.DeriveChange()

	quote := &market.Quote{
		Symbol:    symbol,
		Name:      strField(data, "f58"),
		Market:    mkt,
		UpdatedAt: time.Now().Format(time.RFC3339),
		Price:     price,
		Volume:    numField(data, "f47").IntPart(),
		Turnover:  numField(data, "f48"),
		Source:    "eastmoney",
	}

	high52 := numField(data, "f51").Div(thousand)
	low52 := numField(data, "f52").Div(thousand)
	if !high52.IsZero() && !low52.IsZero() {
		quote.Range52W = &market.Range52W{High: high52, Low: low52}
	}
	if pe := numField(data, "f167"); !pe.IsZero() {
		quote.PERatio = market.Dec(pe.Div(hundred).Round(2))
	}
	if pb := numField(data, "f173"); !pb.IsZero() {
		quote.PBRatio = market.Dec(pb.Div(hundred).Round(2))
	}
	if mc := numField(data, "f116"); !mc.IsZero() {
		quote.MarketCap = market.Dec(mc)
	}
	if cmc := numField(data, "f117"); !cmc.IsZero() {
		quote.CircMarketCap = market.Dec(cmc)
	}
	if tr := numField(data, "f170"); !tr.IsZero() {
		quote.TurnoverRate = tr.Div(hundred).StringFixed(2) + "%"
	}

	return quote
}

// GetFuturesContract fetches one commodity futures contract (secid 114.lh2501).
func (ec *EastMoneyClient) GetFuturesContract(ctx context.Context, contract string) (*market.Quote, error) {
	contract = strings.ToLower(contract)

	var cached market.Quote
	if ec.cache.Get("eastmoney", "futures", contract, &cached) {
		return &cached, nil
	}

	data, err := ec.fetchSnapshot(ctx, "114."+contract, futuresFields)
	if err != nil {
		return nil, err
	}

	quote := BuildFuturesQuote(contract, data)
	ec.cache.Set("eastmoney", "futures", contract, quote)
	return quote, nil
}

// BuildFuturesQuote maps futures f-fields; prices are hundredths.
func BuildFuturesQuote(contract string, data map[string]json.RawMessage) *market.Quote {
	hundred := decimal.NewFromInt(100)

	price := &market.PriceBlock{
		Current:   numField(data, "f43").Div(hundred),
		High:      numField(data, "f44").Div(hundred),
		Low:       numField(data, "f45").Div(hundred),
		Open:      numField(data, "f46").Div(hundred),
		PrevClose: numField(data, "f60").Div(hundred),
	}
	price.DeriveChange()

	code := strField(data, "f57")
	if code == "" {
		code = contract
	}

	return &market.Quote{
		Symbol:    code,
		Name:      strField(data, "f58"),
		Market:    market.Commodity,
		UpdatedAt: time.Now().Format(time.RFC3339),
		Price:     price,
		Volume:    numField(data, "f47").IntPart(),
		Turnover:  numField(data, "f48"),
		Position:  numField(data, "f116").IntPart(),
		Source:    "eastmoney",
	}
}

// GetFutures fetches a contract list; failed contracts are logged and skipped.
func (ec *EastMoneyClient) GetFutures(ctx context.Context, contracts []string) ([]*market.Quote, error) {
	var quotes []*market.Quote
	for _, contract := range contracts {
		quote, err := ec.GetFuturesContract(ctx, contract)
		if err != nil {
			ec.logger.Warnf("eastmoney futures %s: %v", contract, err)
			continue
		}
		quotes = append(quotes, quote)
	}
	if len(quotes) == 0 {
		return nil, fmt.Errorf("no futures contract could be fetched")
	}
	return quotes, nil
}

// KlineBar is one daily bar of the kline endpoint.
type KlineBar struct {
	Date      string  `json:"date"`
	Open      float64 `json:"open"`
	Close     float64 `json:"close"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Volume    float64 `json:"volume"`
	Amount    float64 `json:"amount"`
	Amplitude float64 `json:"amplitude"`
	ChangePct float64 `json:"change_pct"`
	Change    float64 `json:"change"`
	Turnover  float64 `json:"turnover"`
}

type klineEnvelope struct {
	Data *struct {
		Klines []string `json:"klines"`
	} `json:"data"`
}

// KlineQuery parameterizes the daily-kline request.
type KlineQuery struct {
	SecID string // e.g. "0.399006" for the ChiNext index
	Limit int    // number of trailing daily bars
}

// KlineURL builds the full request URL; the browser-driven variant navigates
// to the same address.
func KlineURL(q KlineQuery) string {
	return fmt.Sprintf("%s?secid=%s&fields1=f1,f2,f3,f4,f5,f6&fields2=f51,f52,f53,f54,f55,f56,f57,f58,f59,f60,f61&klt=101&fqt=1&beg=0&end=20500101&lmt=%d&ut=%s",
		eastmoneyKlineURL, q.SecID, q.Limit, eastmoneyKlineUT)
}

// GetKlines fetches trailing daily bars for an index or stock.
func (ec *EastMoneyClient) GetKlines(ctx context.Context, q KlineQuery) ([]KlineBar, error) {
	if err := ec.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var bars []KlineBar
	err := WithRetry(DefaultRetryConfig(), func() error {
		resp, err := ec.client.R().SetContext(ctx).Get(KlineURL(q))
		if err != nil {
			return fmt.Errorf("eastmoney kline request: %w", err)
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("eastmoney kline HTTP %d", resp.StatusCode())
		}

		parsed, err := ParseKlines(resp.Body())
		if err != nil {
			return err
		}
		bars = parsed
		return nil
	})
	return bars, err
}

// ParseKlines decodes the kline envelope. Each kline entry is a
// comma-separated bar: date,open,close,high,low,volume,amount,amplitude,
// change_pct,change,turnover.
func ParseKlines(body []byte) ([]KlineBar, error) {
	var envelope klineEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode kline payload: %w", err)
	}
	if envelope.Data == nil || len(envelope.Data.Klines) == 0 {
		return nil, fmt.Errorf("kline payload has no bars")
	}

	bars := make([]KlineBar, 0, len(envelope.Data.Klines))
	for _, line := range envelope.Data.Klines {
		parts := strings.Split(line, ",")
		if len(parts) < 11 {
			continue
		}
		bars = append(bars, KlineBar{
			Date:      parts[0],
			Open:      floatField(parts[1]),
			Close:     floatField(parts[2]),
			High:      floatField(parts[3]),
			Low:       floatField(parts[4]),
			Volume:    floatField(parts[5]),
			Amount:    floatField(parts[6]),
			Amplitude: floatField(parts[7]),
			ChangePct: floatField(parts[8]),
			Change:    floatField(parts[9]),
			Turnover:  floatField(parts[10]),
		})
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("kline payload had no parsable bars")
	}
	return bars, nil
}

// numField reads a numeric f-field; "-" placeholders and missing keys
// come back as zero.
func numField(data map[string]json.RawMessage, key string) decimal.Decimal {
	raw, ok := data[key]
	if !ok {
		return decimal.Zero
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err != nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(num.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

func strField(data map[string]json.RawMessage, key string) string {
	raw, ok := data[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return strings.Trim(string(raw), `"`)
	}
	return s
}

func floatField(s string) float64 {
	f, _ := decField(s).Float64()
	return f
}
