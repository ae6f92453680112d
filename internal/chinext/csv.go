package chinext

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/yikesong/finsight/internal/fetcher"
)

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func writeCSV(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %v", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	// BOM 让 Excel 正确识别 UTF-8 中文
	if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return err
	}

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write headers: %v", err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %v", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteBarsCSV 保存原始K线数据
func WriteBarsCSV(path string, bars []fetcher.KlineBar) error {
	header := []string{"date", "open", "close", "high", "low", "volume", "amount", "amplitude", "change_pct", "change", "turnover"}
	rows := make([][]string, 0, len(bars))
	for _, b := range bars {
		rows = append(rows, []string{
			b.Date,
			formatFloat(b.Open),
			formatFloat(b.Close),
			formatFloat(b.High),
			formatFloat(b.Low),
			formatFloat(b.Volume),
			formatFloat(b.Amount),
			formatFloat(b.Amplitude),
			formatFloat(b.ChangePct),
			formatFloat(b.Change),
			formatFloat(b.Turnover),
		})
	}
	return writeCSV(path, header, rows)
}

// WriteAnalysisCSV 保存带技术指标的数据
func WriteAnalysisCSV(path string, bars []fetcher.KlineBar, ind *Indicators) error {
	header := []string{
		"date", "close",
		"MA5", "MA10", "MA20", "MA30", "MA60",
		"MACD", "Signal", "Histogram",
		"RSI", "K", "D", "J",
		"BB_Upper", "BB_Middle", "BB_Lower",
	}
	rows := make([][]string, 0, len(bars))
	for i, b := range bars {
		rows = append(rows, []string{
			b.Date,
			formatFloat(b.Close),
			formatFloat(ind.MA5[i]),
			formatFloat(ind.MA10[i]),
			formatFloat(ind.MA20[i]),
			formatFloat(ind.MA30[i]),
			formatFloat(ind.MA60[i]),
			formatFloat(ind.MACD[i]),
			formatFloat(ind.Signal[i]),
			formatFloat(ind.Histogram[i]),
			formatFloat(ind.RSI[i]),
			formatFloat(ind.K[i]),
			formatFloat(ind.D[i]),
			formatFloat(ind.J[i]),
			formatFloat(ind.BBUpper[i]),
			formatFloat(ind.BBMiddle[i]),
			formatFloat(ind.BBLower[i]),
		})
	}
	return writeCSV(path, header, rows)
}
