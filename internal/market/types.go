package market

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Market identifies which vendor path a symbol is routed to.
type Market string

const (
	AShareSH  Market = "A股沪市"
	AShareSZ  Market = "A股深市"
	HongKong  Market = "港股"
	US        Market = "美股"
	Commodity Market = "大宗商品"
	Unknown   Market = "unknown"
)

// PriceBlock carries the normalized price fields of a quote.
// ChangePct keeps the vendor convention of a signed percent string ("+1.23%").
type PriceBlock struct {
	Current   decimal.Decimal `json:"current"`
	Open      decimal.Decimal `json:"open"`
	PrevClose decimal.Decimal `json:"prev_close"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Change    decimal.Decimal `json:"change"`
	ChangePct string          `json:"change_pct"`
}

// Range52W is the optional 52-week high/low block.
type Range52W struct {
	High decimal.Decimal `json:"high"`
	Low  decimal.Decimal `json:"low"`
}

// Quote is the normalized record produced by every vendor parser.
// It is created fresh per fetch and never mutated afterwards.
type Quote struct {
	Symbol    string     `json:"symbol"`
	Name      string     `json:"name,omitempty"`
	Market    Market     `json:"market,omitempty"`
	UpdatedAt string     `json:"updated_at"`
	Price     *PriceBlock `json:"price,omitempty"`

	Volume   int64           `json:"volume,omitempty"`
	Turnover decimal.Decimal `json:"turnover,omitempty"`

	// Fundamentals are pointers so absent values drop out of the JSON
	// instead of serializing as "0".
	Range52W      *Range52W        `json:"range_52w,omitempty"`
	PERatio       *decimal.Decimal `json:"pe_ratio,omitempty"`
	PBRatio       *decimal.Decimal `json:"pb_ratio,omitempty"`
	MarketCap     *decimal.Decimal `json:"market_cap,omitempty"`
	CircMarketCap *decimal.Decimal `json:"circ_market_cap,omitempty"`
	TurnoverRate  string           `json:"turnover_rate,omitempty"`
	EPS           *decimal.Decimal `json:"eps,omitempty"`

	// Futures-only fields.
	Settle     *decimal.Decimal `json:"settle,omitempty"`
	PrevSettle *decimal.Decimal `json:"prev_settle,omitempty"`
	Position   int64            `json:"position,omitempty"`

	Source string `json:"_source,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Dec boxes a decimal for the optional fundamentals fields.
func Dec(d decimal.Decimal) *decimal.Decimal {
	return &d
}

// ErrorQuote is the degraded result returned when every vendor failed.
func ErrorQuote(symbol, msg string) *Quote {
	return &Quote{
		Symbol:    symbol,
		Error:     msg,
		UpdatedAt: time.Now().Format(time.RFC3339),
	}
}

// FormatChangePct renders the signed percent string used across all vendors.
func FormatChangePct(pct decimal.Decimal) string {
	if pct.Sign() >= 0 {
		return fmt.Sprintf("+%s%%", pct.StringFixed(2))
	}
	return fmt.Sprintf("%s%%", pct.StringFixed(2))
}

// DeriveChange fills Change and ChangePct from current and prev close when the
// vendor payload does not carry them.
func (p *PriceBlock) DeriveChange() {
	p.Change = p.Current.Sub(p.PrevClose).Round(3)
	if p.PrevClose.IsPositive() {
		pct := p.Current.Sub(p.PrevClose).
			Div(p.PrevClose).
			Mul(decimal.NewFromInt(100)).
			Round(2)
		p.ChangePct = FormatChangePct(pct)
	} else {
		p.ChangePct = "+0.00%"
	}
}
