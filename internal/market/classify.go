package market

import (
	"regexp"
	"strings"
)

// CommodityInfo describes a known commodity code. SinaContract is the 内盘
// continuous-contract code of Sina's nf_ feed; EastMoneyContract the push2
// one. Either may be empty when a vendor has no matching domestic contract.
type CommodityInfo struct {
	Name              string
	Type              string
	SinaContract      string
	EastMoneyContract string
}

// commodityMap holds the codes routed to the commodity path. Codes here take
// priority over the US-equity pattern (XAU is not a ticker).
var commodityMap = map[string]CommodityInfo{
	"XAU":     {Name: "黄金", Type: "precious_metal", SinaContract: "AU0", EastMoneyContract: "au0"},
	"GOLD":    {Name: "黄金", Type: "precious_metal", SinaContract: "AU0", EastMoneyContract: "au0"},
	"XAG":     {Name: "白银", Type: "precious_metal", SinaContract: "AG0", EastMoneyContract: "ag0"},
	"SILVER":  {Name: "白银", Type: "precious_metal", SinaContract: "AG0", EastMoneyContract: "ag0"},
	"XPT":     {Name: "铂金", Type: "precious_metal"},
	"XPD":     {Name: "钯金", Type: "precious_metal"},
	"CL":      {Name: "原油(WTI)", Type: "energy", SinaContract: "SC0", EastMoneyContract: "sc0"},
	"OIL":     {Name: "原油(WTI)", Type: "energy", SinaContract: "SC0", EastMoneyContract: "sc0"},
	"BRENT":   {Name: "原油(布伦特)", Type: "energy", SinaContract: "SC0", EastMoneyContract: "sc0"},
	"NG":      {Name: "天然气", Type: "energy"},
	"SOYBEAN": {Name: "大豆", Type: "agriculture", SinaContract: "A0", EastMoneyContract: "a0"},
	"CORN":    {Name: "玉米", Type: "agriculture", SinaContract: "C0", EastMoneyContract: "c0"},
	"WHEAT":   {Name: "小麦", Type: "agriculture", SinaContract: "WH0", EastMoneyContract: "wh0"},
}

// nameAliases maps common Chinese display names to canonical symbols.
var nameAliases = map[string]string{
	"比亚迪":  "002594.SZ",
	"茅台":   "600519.SS",
	"贵州茅台": "600519.SS",
	"特斯拉":  "TSLA",
	"苹果":   "AAPL",
	"腾讯":   "0700.HK",
	"阿里":   "BABA",
	"阿里巴巴": "BABA",
	"宁德时代": "300750.SZ",
	"中国平安": "601318.SS",
	"黄金":   "XAU",
	"白银":   "XAG",
	"原油":   "CL",
}

var (
	aShareCodeRe = regexp.MustCompile(`^\d{6}$`)
	hkCodeRe     = regexp.MustCompile(`^\d{4,5}$`)
	usTickerRe   = regexp.MustCompile(`^[A-Z]+$`)
	aShareSymRe  = regexp.MustCompile(`^\d{6}\.(SS|SZ)$`)
)

// Normalize resolves name aliases and bare numeric codes into the canonical
// symbol form (002594.SZ, 00700.HK, TSLA, XAU).
func Normalize(symbol string) string {
	s := strings.TrimSpace(symbol)
	if resolved, ok := nameAliases[s]; ok {
		return resolved
	}
	s = strings.ToUpper(s)

	if aShareCodeRe.MatchString(s) {
		if strings.HasPrefix(s, "6") {
			return s + ".SS"
		}
		return s + ".SZ"
	}
	if hkCodeRe.MatchString(s) {
		return strings.Repeat("0", 5-len(s)) + s + ".HK"
	}
	return s
}

// Classify routes a normalized symbol to its market.
func Classify(symbol string) Market {
	s := strings.ToUpper(strings.TrimSpace(symbol))

	if _, ok := commodityMap[s]; ok {
		return Commodity
	}
	if aShareSymRe.MatchString(s) {
		if strings.HasSuffix(s, ".SS") {
			return AShareSH
		}
		return AShareSZ
	}
	if strings.HasSuffix(s, ".HK") {
		return HongKong
	}
	if usTickerRe.MatchString(s) {
		return US
	}
	return Unknown
}

// LookupCommodity returns the commodity metadata for a code.
func LookupCommodity(symbol string) (CommodityInfo, bool) {
	info, ok := commodityMap[strings.ToUpper(strings.TrimSpace(symbol))]
	return info, ok
}
