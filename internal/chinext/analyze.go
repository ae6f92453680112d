package chinext

import (
	"fmt"
	"math"
	"strings"

	"github.com/yikesong/finsight/internal/fetcher"
)

// Summary 当日技术分析简报
type Summary struct {
	Date       string  `json:"date"`
	Close      float64 `json:"close"`
	ChangePct  float64 `json:"change_pct"`
	Score      float64 `json:"score"`
	Trend      string  `json:"trend"`
	Suggestion string  `json:"suggestion"`
}

// MALine 单条均线的读数
type MALine struct {
	Period    int
	Value     float64
	Deviation float64 // 乖离率 %
}

// Analysis 对最新交易日的完整技术研判
type Analysis struct {
	Latest fetcher.KlineBar

	WeekChange  float64 // 近5日涨跌 %
	MonthChange float64 // 近20日涨跌 %
	HasWeek     bool
	HasMonth    bool

	MALines []MALine
	MATrend string
	MAScore float64

	MACD       float64
	Signal     float64
	Histogram  float64
	MACDSignal string
	MACDScore  float64

	RSI       float64
	RSISignal string
	RSIScore  float64

	K         float64
	D         float64
	J         float64
	KDJSignal string
	KDJScore  float64

	BBUpper    float64
	BBMiddle   float64
	BBLower    float64
	BBPosition float64 // 0%=下轨, 100%=上轨
	BBSignal   string
	BBScore    float64

	VolumeRatio  float64 // 量比 %
	VolumeSignal string

	TotalScore float64
	Signals    []string
	Warnings   []string
	Trend      string
	Suggestion string

	Supports    []string
	Resistances []string
}

// Analyze 对K线序列的最后一根进行多指标综合评分
func Analyze(bars []fetcher.KlineBar, ind *Indicators) (*Analysis, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("no bars to analyze")
	}

	last := len(bars) - 1
	prev := last
	if len(bars) > 1 {
		prev = last - 1
	}

	a := &Analysis{Latest: bars[last]}
	latest := bars[last]

	if len(bars) >= 6 {
		base := bars[last-5].Close
		a.WeekChange = (latest.Close - base) / base * 100
		a.HasWeek = true
	}
	if len(bars) >= 21 {
		base := bars[last-20].Close
		a.MonthChange = (latest.Close - base) / base * 100
		a.HasMonth = true
	}

	a.scoreMA(latest.Close, ind, last)
	a.scoreMACD(ind, last, prev)
	a.scoreRSI(ind, last)
	a.scoreKDJ(ind, last, prev)
	a.scoreBollinger(latest.Close, ind, last)
	a.scoreVolume(bars, last)

	a.TotalScore = a.MAScore + a.MACDScore + a.RSIScore + a.KDJScore + a.BBScore

	if a.MAScore > 1 {
		a.Signals = append(a.Signals, fmt.Sprintf("均线多头排列 (+%.1f分)", a.MAScore))
	} else if a.MAScore < -1 {
		a.Warnings = append(a.Warnings, fmt.Sprintf("均线空头排列 (%.1f分)", a.MAScore))
	}
	if a.MACDScore > 1 {
		a.Signals = append(a.Signals, fmt.Sprintf("MACD金叉或强势 (+%.1f分)", a.MACDScore))
	} else if a.MACDScore < -1 {
		a.Warnings = append(a.Warnings, fmt.Sprintf("MACD死叉或弱势 (%.1f分)", a.MACDScore))
	}
	if a.RSIScore > 1 {
		a.Signals = append(a.Signals, fmt.Sprintf("RSI超卖反弹 (+%.1f分)", a.RSIScore))
	} else if a.RSIScore < -1 {
		a.Warnings = append(a.Warnings, fmt.Sprintf("RSI超买回调 (%.1f分)", a.RSIScore))
	}

	switch {
	case a.TotalScore >= 4:
		a.Trend = "🚀 强势多头"
		a.Suggestion = "技术面非常强势，但需注意不要追高，等待回调买入"
	case a.TotalScore >= 2:
		a.Trend = "📈 偏多格局"
		a.Suggestion = "技术面偏强，可逢低适量买入"
	case a.TotalScore >= 0:
		a.Trend = "↗️ 震荡偏强"
		a.Suggestion = "技术面中性偏强，谨慎操作，控制仓位"
	case a.TotalScore >= -2:
		a.Trend = "↘️ 震荡偏弱"
		a.Suggestion = "技术面中性偏弱，观望为主，减少操作"
	case a.TotalScore >= -4:
		a.Trend = "📉 偏空格局"
		a.Suggestion = "技术面偏弱，建议减仓规避风险"
	default:
		a.Trend = "🔻 弱势空头"
		a.Suggestion = "技术面很弱，严格控制风险，等待企稳信号"
	}

	if !math.IsNaN(ind.MA20[last]) {
		a.Supports = append(a.Supports,
			fmt.Sprintf("%.2f 点 (布林下轨)", ind.BBLower[last]),
			fmt.Sprintf("%.2f 点 (20日均线)", ind.MA20[last]))
		if !math.IsNaN(ind.MA60[last]) {
			a.Resistances = append(a.Resistances, fmt.Sprintf("%.2f 点 (60日均线)", ind.MA60[last]))
		}
		a.Resistances = append(a.Resistances, fmt.Sprintf("%.2f 点 (布林上轨)", ind.BBUpper[last]))
	}

	return a, nil
}

// Brief 提取简报字段
func (a *Analysis) Brief() Summary {
	return Summary{
		Date:       a.Latest.Date,
		Close:      a.Latest.Close,
		ChangePct:  a.Latest.ChangePct,
		Score:      a.TotalScore,
		Trend:      a.Trend,
		Suggestion: a.Suggestion,
	}
}

func (a *Analysis) scoreMA(close float64, ind *Indicators, last int) {
	series := []struct {
		period int
		values []float64
	}{
		{5, ind.MA5}, {10, ind.MA10}, {20, ind.MA20}, {30, ind.MA30}, {60, ind.MA60},
	}
	mas := map[int]float64{}
	for _, s := range series {
		v := s.values[last]
		if math.IsNaN(v) {
			continue
		}
		mas[s.period] = v
		a.MALines = append(a.MALines, MALine{
			Period:    s.period,
			Value:     v,
			Deviation: (close - v) / v * 100,
		})
	}

	if len(mas) < 4 {
		return
	}
	ma5, ma10, ma20, ma30 := mas[5], mas[10], mas[20], mas[30]
	switch {
	case close > ma5 && ma5 > ma10 && ma10 > ma20 && ma20 > ma30:
		a.MATrend = "完美多头排列 🚀（强势上涨）"
		a.MAScore = 2.0
	case close > ma5 && ma5 > ma10 && ma10 > ma20:
		a.MATrend = "多头排列 📈（偏强）"
		a.MAScore = 1.5
	case close < ma5 && ma5 < ma10 && ma10 < ma20 && ma20 < ma30:
		a.MATrend = "完美空头排列 📉（弱势下跌）"
		a.MAScore = -2.0
	case close < ma5 && ma5 < ma10 && ma10 < ma20:
		a.MATrend = "空头排列 📉（偏弱）"
		a.MAScore = -1.5
	default:
		a.MATrend = "均线缠绕 ↔️（震荡整理）"
		a.MAScore = 0
	}
}

func (a *Analysis) scoreMACD(ind *Indicators, last, prev int) {
	a.MACD = ind.MACD[last]
	a.Signal = ind.Signal[last]
	a.Histogram = ind.Histogram[last]

	switch {
	case a.MACD > a.Signal && ind.MACD[prev] <= ind.Signal[prev]:
		a.MACDSignal = "金叉 🟢（买入信号）"
		a.MACDScore = 1.5
	case a.MACD < a.Signal && ind.MACD[prev] >= ind.Signal[prev]:
		a.MACDSignal = "死叉 🔴（卖出信号）"
		a.MACDScore = -1.5
	case a.MACD > a.Signal:
		a.MACDSignal = "多头区域（看涨）"
		a.MACDScore = 1.0
	default:
		a.MACDSignal = "空头区域（看跌）"
		a.MACDScore = -1.0
	}

	if a.Histogram > 0 && a.Histogram > ind.Histogram[prev] {
		a.MACDSignal += " - 柱状图增强"
		a.MACDScore += 0.5
	} else if a.Histogram < 0 && a.Histogram < ind.Histogram[prev] {
		a.MACDSignal += " - 柱状图走弱"
		a.MACDScore -= 0.5
	}
}

func (a *Analysis) scoreRSI(ind *Indicators, last int) {
	a.RSI = ind.RSI[last]
	if math.IsNaN(a.RSI) {
		return
	}
	switch {
	case a.RSI > 80:
		a.RSISignal = "严重超买 ⚠️⚠️（强烈回调风险）"
		a.RSIScore = -2.0
	case a.RSI > 70:
		a.RSISignal = "超买区域 ⚠️（注意回调）"
		a.RSIScore = -1.0
	case a.RSI < 20:
		a.RSISignal = "严重超卖 ⚠️⚠️（强烈反弹信号）"
		a.RSIScore = 2.0
	case a.RSI < 30:
		a.RSISignal = "超卖区域 ⚠️（可能反弹）"
		a.RSIScore = 1.0
	case a.RSI > 50:
		a.RSISignal = "强势区域（偏多）"
		a.RSIScore = 0.5
	default:
		a.RSISignal = "弱势区域（偏空）"
		a.RSIScore = -0.5
	}
}

func (a *Analysis) scoreKDJ(ind *Indicators, last, prev int) {
	a.K, a.D, a.J = ind.K[last], ind.D[last], ind.J[last]
	switch {
	case a.K > a.D && ind.K[prev] <= ind.D[prev]:
		a.KDJSignal = "K线上穿D线 🟢（金叉，买入）"
		a.KDJScore = 1.0
	case a.K < a.D && ind.K[prev] >= ind.D[prev]:
		a.KDJSignal = "K线下穿D线 🔴（死叉，卖出）"
		a.KDJScore = -1.0
	case a.J > 100:
		a.KDJSignal = "J值超过100（超买）"
		a.KDJScore = -0.5
	case a.J < 0:
		a.KDJSignal = "J值低于0（超卖）"
		a.KDJScore = 0.5
	default:
		a.KDJSignal = "正常震荡"
		a.KDJScore = 0
	}
}

func (a *Analysis) scoreBollinger(close float64, ind *Indicators, last int) {
	a.BBUpper = ind.BBUpper[last]
	a.BBMiddle = ind.BBMiddle[last]
	a.BBLower = ind.BBLower[last]
	if math.IsNaN(a.BBUpper) {
		return
	}

	width := a.BBUpper - a.BBLower
	if width > 0 {
		a.BBPosition = (close - a.BBLower) / width * 100
	} else {
		a.BBPosition = 50
	}

	switch {
	case close > a.BBUpper:
		a.BBSignal = "突破上轨（强势超买，注意回调）"
		a.BBScore = -0.5
	case close < a.BBLower:
		a.BBSignal = "跌破下轨（超卖，可能反弹）"
		a.BBScore = 0.5
	case a.BBPosition > 70:
		a.BBSignal = "接近上轨（偏强）"
		a.BBScore = 0.3
	case a.BBPosition < 30:
		a.BBSignal = "接近下轨（偏弱）"
		a.BBScore = -0.3
	default:
		a.BBSignal = "中轨区域（震荡）"
		a.BBScore = 0
	}
}

func (a *Analysis) scoreVolume(bars []fetcher.KlineBar, last int) {
	if len(bars) < 6 {
		return
	}
	var sum float64
	for i := last - 4; i <= last; i++ {
		sum += bars[i].Volume
	}
	avg5 := sum / 5
	if avg5 > 0 {
		a.VolumeRatio = bars[last].Volume / avg5 * 100
	} else {
		a.VolumeRatio = 100
	}

	pct := bars[last].ChangePct
	switch {
	case a.VolumeRatio > 150 && pct > 0:
		a.VolumeSignal = "放量上涨 🔥（强势）"
	case a.VolumeRatio > 150 && pct < 0:
		a.VolumeSignal = "放量下跌 ⚠️（警惕）"
	case a.VolumeRatio < 70:
		a.VolumeSignal = "缩量交易（观望情绪浓厚）"
	default:
		a.VolumeSignal = "正常交易"
	}
}

// Report 渲染控制台版技术分析报告
func (a *Analysis) Report() string {
	var b strings.Builder
	line := strings.Repeat("=", 70)

	b.WriteString(line + "\n")
	b.WriteString("创业板指数（399006）技术分析报告\n")
	b.WriteString(line + "\n")

	l := a.Latest
	b.WriteString("\n【基本信息】\n")
	fmt.Fprintf(&b, "日期:     %s\n", l.Date)
	fmt.Fprintf(&b, "收盘价:   %.2f 点\n", l.Close)
	fmt.Fprintf(&b, "开盘价:   %.2f 点\n", l.Open)
	fmt.Fprintf(&b, "最高价:   %.2f 点\n", l.High)
	fmt.Fprintf(&b, "最低价:   %.2f 点\n", l.Low)
	fmt.Fprintf(&b, "涨跌幅:   %+.2f%%\n", l.ChangePct)
	fmt.Fprintf(&b, "涨跌额:   %+.2f 点\n", l.Change)
	fmt.Fprintf(&b, "成交量:   %.2f 亿手\n", l.Volume/1e8)
	fmt.Fprintf(&b, "成交额:   %.2f 亿元\n", l.Amount)
	fmt.Fprintf(&b, "振幅:     %.2f%%\n", l.Amplitude)

	if a.HasWeek || a.HasMonth {
		b.WriteString("\n【近期表现】\n")
		if a.HasWeek {
			fmt.Fprintf(&b, "近5日涨跌:  %+.2f%%\n", a.WeekChange)
		}
		if a.HasMonth {
			fmt.Fprintf(&b, "近20日涨跌: %+.2f%%\n", a.MonthChange)
		}
	}

	if len(a.MALines) > 0 {
		b.WriteString("\n【均线系统】\n")
		for _, ma := range a.MALines {
			fmt.Fprintf(&b, "MA%-2d:  %8.2f 点 (乖离率: %+.2f%%)\n", ma.Period, ma.Value, ma.Deviation)
		}
		if a.MATrend != "" {
			fmt.Fprintf(&b, "\n均线形态: %s\n", a.MATrend)
		}
	}

	b.WriteString("\n【MACD指标】\n")
	fmt.Fprintf(&b, "MACD线:      %.3f\n", a.MACD)
	fmt.Fprintf(&b, "Signal线:    %.3f\n", a.Signal)
	fmt.Fprintf(&b, "柱状图:      %.3f\n", a.Histogram)
	fmt.Fprintf(&b, "MACD信号: %s\n", a.MACDSignal)

	if a.RSISignal != "" {
		b.WriteString("\n【RSI指标】\n")
		fmt.Fprintf(&b, "RSI(14):  %.2f\n", a.RSI)
		fmt.Fprintf(&b, "RSI状态:  %s\n", a.RSISignal)
	}

	b.WriteString("\n【KDJ指标】\n")
	fmt.Fprintf(&b, "K值:  %.2f\n", a.K)
	fmt.Fprintf(&b, "D值:  %.2f\n", a.D)
	fmt.Fprintf(&b, "J值:  %.2f\n", a.J)
	fmt.Fprintf(&b, "KDJ信号: %s\n", a.KDJSignal)

	if a.BBSignal != "" {
		b.WriteString("\n【布林带】\n")
		fmt.Fprintf(&b, "上轨:  %.2f 点\n", a.BBUpper)
		fmt.Fprintf(&b, "中轨:  %.2f 点\n", a.BBMiddle)
		fmt.Fprintf(&b, "下轨:  %.2f 点\n", a.BBLower)
		fmt.Fprintf(&b, "当前位置: %.1f%% (0%%=下轨, 50%%=中轨, 100%%=上轨)\n", a.BBPosition)
		fmt.Fprintf(&b, "布林带信号: %s\n", a.BBSignal)
	}

	if a.VolumeSignal != "" {
		b.WriteString("\n【成交量分析】\n")
		fmt.Fprintf(&b, "量比: %.1f%%\n", a.VolumeRatio)
		fmt.Fprintf(&b, "成交量状态: %s\n", a.VolumeSignal)
	}

	b.WriteString("\n" + line + "\n【综合研判】\n" + line + "\n")
	fmt.Fprintf(&b, "\n技术评分: %.1f 分\n", a.TotalScore)
	b.WriteString("评分说明: >3分=强势多头, 1-3分=偏多, -1到1分=震荡, -3到-1分=偏空, <-3分=弱势\n")

	if len(a.Signals) > 0 {
		b.WriteString("\n看多信号:\n")
		for _, s := range a.Signals {
			fmt.Fprintf(&b, "  ✓ %s\n", s)
		}
	}
	if len(a.Warnings) > 0 {
		b.WriteString("\n风险提示:\n")
		for _, w := range a.Warnings {
			fmt.Fprintf(&b, "  ⚠ %s\n", w)
		}
	}

	fmt.Fprintf(&b, "\n综合研判: %s\n", a.Trend)
	fmt.Fprintf(&b, "操作建议: %s\n", a.Suggestion)

	if len(a.Supports) > 0 {
		b.WriteString("\n【关键价位】\n")
		for i, s := range a.Supports {
			fmt.Fprintf(&b, "支撑位%d: %s\n", i+1, s)
		}
		for i, r := range a.Resistances {
			fmt.Fprintf(&b, "压力位%d: %s\n", i+1, r)
		}
	}

	b.WriteString("\n" + line + "\n")
	b.WriteString("免责声明: 以上分析仅供参考，不构成投资建议。\n")
	b.WriteString("          股市有风险，投资需谨慎！请根据自身情况理性决策。\n")
	b.WriteString(line + "\n")
	return b.String()
}
