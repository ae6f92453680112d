package chinext

import (
	"math"

	"github.com/yikesong/finsight/internal/fetcher"
)

// Indicators 指标序列，与K线数组等长，窗口未满时为 NaN
type Indicators struct {
	MA5  []float64
	MA10 []float64
	MA20 []float64
	MA30 []float64
	MA60 []float64

	MACD      []float64 // DIF
	Signal    []float64 // DEA
	Histogram []float64

	RSI []float64

	BBUpper  []float64
	BBMiddle []float64
	BBLower  []float64

	K []float64
	D []float64
	J []float64
}

func closes(bars []fetcher.KlineBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// SMA 简单移动平均，前 period-1 个位置为 NaN
func SMA(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	var sum float64
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// EMA 指数移动平均，以首个值为种子
func EMA(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	multiplier := 2.0 / float64(period+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = (values[i]-out[i-1])*multiplier + out[i-1]
	}
	return out
}

// emaCom 按质心参数的指数平均（alpha = 1/(1+com)），用于KDJ平滑
func emaCom(values []float64, com float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	alpha := 1.0 / (1.0 + com)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// RSI 相对强弱指标，基于 period 窗口的平均涨跌幅
func RSI(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	gains := make([]float64, len(values))
	losses := make([]float64, len(values))
	out[0] = math.NaN()
	for i := 1; i < len(values); i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	avgGain := SMA(gains[1:], period)
	avgLoss := SMA(losses[1:], period)
	for i := 1; i < len(values); i++ {
		g, l := avgGain[i-1], avgLoss[i-1]
		switch {
		case math.IsNaN(g) || math.IsNaN(l):
			out[i] = math.NaN()
		case l == 0:
			out[i] = 100
		default:
			rs := g / l
			out[i] = 100 - 100/(1+rs)
		}
	}
	return out
}

// Bollinger 布林带，中轨为均线，带宽为 numStd 倍样本标准差
func Bollinger(values []float64, period int, numStd float64) (upper, middle, lower []float64) {
	middle = SMA(values, period)
	upper = make([]float64, len(values))
	lower = make([]float64, len(values))
	for i := range values {
		if i < period-1 {
			upper[i] = math.NaN()
			lower[i] = math.NaN()
			continue
		}
		mean := middle[i]
		var sq float64
		for j := i - period + 1; j <= i; j++ {
			d := values[j] - mean
			sq += d * d
		}
		std := math.Sqrt(sq / float64(period-1))
		upper[i] = mean + numStd*std
		lower[i] = mean - numStd*std
	}
	return upper, middle, lower
}

// KDJ 随机指标，n日RSV经两次平滑得到K、D，J=3K-2D
func KDJ(bars []fetcher.KlineBar, n int, m1, m2 float64) (k, d, j []float64) {
	rsv := make([]float64, len(bars))
	for i := range bars {
		lo, hi := math.Inf(1), math.Inf(-1)
		start := i - n + 1
		if start < 0 {
			start = 0
		}
		for x := start; x <= i; x++ {
			if bars[x].Low < lo {
				lo = bars[x].Low
			}
			if bars[x].High > hi {
				hi = bars[x].High
			}
		}
		if hi == lo {
			rsv[i] = 50
		} else {
			rsv[i] = (bars[i].Close - lo) / (hi - lo) * 100
		}
	}
	k = emaCom(rsv, m1-1)
	d = emaCom(k, m2-1)
	j = make([]float64, len(bars))
	for i := range bars {
		j[i] = 3*k[i] - 2*d[i]
	}
	return k, d, j
}

// Compute 在收盘序列上计算全部技术指标
func Compute(bars []fetcher.KlineBar) *Indicators {
	cs := closes(bars)

	ind := &Indicators{
		MA5:  SMA(cs, 5),
		MA10: SMA(cs, 10),
		MA20: SMA(cs, 20),
		MA30: SMA(cs, 30),
		MA60: SMA(cs, 60),
		RSI:  RSI(cs, 14),
	}

	ema12 := EMA(cs, 12)
	ema26 := EMA(cs, 26)
	ind.MACD = make([]float64, len(cs))
	for i := range cs {
		ind.MACD[i] = ema12[i] - ema26[i]
	}
	ind.Signal = EMA(ind.MACD, 9)
	ind.Histogram = make([]float64, len(cs))
	for i := range cs {
		ind.Histogram[i] = ind.MACD[i] - ind.Signal[i]
	}

	ind.BBUpper, ind.BBMiddle, ind.BBLower = Bollinger(cs, 20, 2)
	ind.K, ind.D, ind.J = KDJ(bars, 9, 3, 3)
	return ind
}
