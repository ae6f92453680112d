package fetcher

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/yikesong/finsight/config"
	"github.com/yikesong/finsight/internal/market"
)

// Service routes a symbol to its market's vendor chain. Every vendor failure
// is logged and the next vendor tried; only when the whole chain is exhausted
// does the caller get a degraded quote carrying the error text. Fetch never
// returns a Go error for vendor trouble, so batch lookups keep going.
type Service struct {
	sina      *SinaClient
	eastmoney *EastMoneyClient
	yahoo     *YahooClient
	logger    *zap.SugaredLogger
}

// NewService wires the vendor clients
func NewService(cfg *config.Config, logger *zap.SugaredLogger) *Service {
	return &Service{
		sina:      NewSinaClient(cfg, logger),
		eastmoney: NewEastMoneyClient(cfg, logger),
		yahoo:     NewYahooClient(),
		logger:    logger,
	}
}

// EastMoney exposes the underlying client for kline queries.
func (s *Service) EastMoney() *EastMoneyClient {
	return s.eastmoney
}

// Sina exposes the underlying client for futures contract lists.
func (s *Service) Sina() *SinaClient {
	return s.sina
}

// Fetch normalizes the input, classifies the market and walks the vendor
// chain for it.
func (s *Service) Fetch(ctx context.Context, input string) *market.Quote {
	symbol := market.Normalize(input)
	mkt := market.Classify(symbol)

	switch mkt {
	case market.AShareSH, market.AShareSZ:
		return s.fetchAShare(ctx, symbol)
	case market.HongKong:
		return s.fetchHK(ctx, symbol)
	case market.US:
		return s.fetchUS(ctx, symbol)
	case market.Commodity:
		return s.fetchCommodity(ctx, symbol)
	default:
		return market.ErrorQuote(symbol, fmt.Sprintf("无法识别的代码: %s", input))
	}
}

// FetchAll runs Fetch over the whole symbol list sequentially.
func (s *Service) FetchAll(ctx context.Context, inputs []string) []*market.Quote {
	quotes := make([]*market.Quote, 0, len(inputs))
	for _, input := range inputs {
		quotes = append(quotes, s.Fetch(ctx, input))
	}
	return quotes
}

// A-share chain: EastMoney first for its fundamentals, Sina as backstop.
func (s *Service) fetchAShare(ctx context.Context, symbol string) *market.Quote {
	quote, err := s.eastmoney.GetAShare(ctx, symbol)
	if err == nil {
		return quote
	}
	s.logger.Warnf("eastmoney a-share %s: %v", symbol, err)

	quote, err2 := s.sina.GetAShare(ctx, symbol)
	if err2 == nil {
		return quote
	}
	s.logger.Warnf("sina a-share %s: %v", symbol, err2)

	return market.ErrorQuote(symbol, fmt.Sprintf("eastmoney: %v; sina: %v", err, err2))
}

func (s *Service) fetchHK(ctx context.Context, symbol string) *market.Quote {
	quote, err := s.sina.GetHKStock(ctx, symbol)
	if err == nil {
		return quote
	}
	s.logger.Warnf("sina hk %s: %v", symbol, err)

	return market.ErrorQuote(symbol, fmt.Sprintf("sina: %v", err))
}

// US chain: Sina first (mainland reachability), Yahoo as backstop.
func (s *Service) fetchUS(ctx context.Context, symbol string) *market.Quote {
	quote, err := s.sina.GetUSStock(ctx, symbol)
	if err == nil {
		return quote
	}
	s.logger.Warnf("sina us %s: %v", symbol, err)

	quote, err2 := s.yahoo.GetUSStock(symbol)
	if err2 == nil {
		return quote
	}
	s.logger.Warnf("yahoo us %s: %v", symbol, err2)

	return market.ErrorQuote(symbol, fmt.Sprintf("sina: %v; yahoo: %v", err, err2))
}

// Commodity chain: EastMoney futures first, then Sina's nf_ feed.
func (s *Service) fetchCommodity(ctx context.Context, symbol string) *market.Quote {
	info, ok := market.LookupCommodity(symbol)
	if !ok {
		return market.ErrorQuote(symbol, fmt.Sprintf("未收录的商品代码: %s", symbol))
	}

	var err error
	if info.EastMoneyContract != "" {
		var quote *market.Quote
		quote, err = s.eastmoney.GetFuturesContract(ctx, info.EastMoneyContract)
		if err == nil {
			quote.Symbol = symbol
			quote.Name = info.Name
			return quote
		}
		s.logger.Warnf("eastmoney futures %s: %v", symbol, err)
	} else {
		err = fmt.Errorf("no contract for %s", symbol)
	}

	var err2 error
	if info.SinaContract != "" {
		var quotes []*market.Quote
		quotes, err2 = s.sina.GetFutures(ctx, []string{info.SinaContract})
		if err2 == nil && len(quotes) > 0 {
			quote := quotes[0]
			quote.Symbol = symbol
			quote.Name = info.Name
			return quote
		}
		s.logger.Warnf("sina futures %s: %v", symbol, err2)
	} else {
		err2 = fmt.Errorf("no contract for %s", symbol)
	}

	return market.ErrorQuote(symbol, fmt.Sprintf("eastmoney: %v; sina: %v", err, err2))
}
