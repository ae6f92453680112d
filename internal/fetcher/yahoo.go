package fetcher

import (
	"fmt"
	"time"

	"github.com/piquette/finance-go/equity"
	"github.com/shopspring/decimal"

	"github.com/yikesong/finsight/internal/market"
)

// YahooClient is the fallback vendor for US symbols when Sina has no data.
// finance-go maintains its own HTTP session, so no resty client is needed here.
type YahooClient struct{}

// NewYahooClient creates a new Yahoo Finance client
func NewYahooClient() *YahooClient {
	return &YahooClient{}
}

// GetUSStock fetches a US quote through the Yahoo Finance API. Equity carries
// the fundamentals (PE, EPS, market cap) the plain quote endpoint lacks.
func (yc *YahooClient) GetUSStock(symbol string) (*market.Quote, error) {
	q, err := equity.Get(symbol)
	if err != nil {
		return nil, fmt.Errorf("yahoo quote for %s: %w", symbol, err)
	}
	if q == nil {
		return nil, fmt.Errorf("yahoo returned no quote for %s", symbol)
	}

	price := &market.PriceBlock{
		Current:   decimal.NewFromFloat(q.RegularMarketPrice),
		Open:      decimal.NewFromFloat(q.RegularMarketOpen),
		High:      decimal.NewFromFloat(q.RegularMarketDayHigh),
		Low:       decimal.NewFromFloat(q.RegularMarketDayLow),
		PrevClose: decimal.NewFromFloat(q.RegularMarketPreviousClose),
	}
	price.DeriveChange()

	result := &market.Quote{
		Symbol:    symbol,
		Name:      q.ShortName,
		Market:    market.US,
		UpdatedAt: time.Now().Format(time.RFC3339),
		Price:     price,
		Volume:    int64(q.RegularMarketVolume),
		Source:    "yahoo",
	}

	if q.FiftyTwoWeekHigh > 0 && q.FiftyTwoWeekLow > 0 {
		result.Range52W = &market.Range52W{
			High: decimal.NewFromFloat(q.FiftyTwoWeekHigh),
			Low:  decimal.NewFromFloat(q.FiftyTwoWeekLow),
		}
	}
	if q.TrailingPE > 0 {
		result.PERatio = market.Dec(decimal.NewFromFloat(q.TrailingPE).Round(2))
	}
	if q.EpsTrailingTwelveMonths != 0 {
		result.EPS = market.Dec(decimal.NewFromFloat(q.EpsTrailingTwelveMonths).Round(2))
	}
	if q.MarketCap > 0 {
		result.MarketCap = market.Dec(decimal.NewFromInt(q.MarketCap))
	}

	return result, nil
}
