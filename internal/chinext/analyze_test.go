package chinext

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAnalyzeEmpty(t *testing.T) {
	if _, err := Analyze(nil, &Indicators{}); err == nil {
		t.Fatal("expected error for empty bar series")
	}
}

func TestAnalyzeRisingSeries(t *testing.T) {
	bars := risingBars(80)
	ind := Compute(bars)

	a, err := Analyze(bars, ind)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if a.MAScore != 2.0 {
		t.Fatalf("MAScore = %v, want 2.0 for a strictly rising series", a.MAScore)
	}
	if !strings.Contains(a.MATrend, "完美多头排列") {
		t.Fatalf("MATrend = %q, want perfect bull alignment", a.MATrend)
	}
	if len(a.MALines) != 5 {
		t.Fatalf("MALines = %d, want all 5 moving averages", len(a.MALines))
	}
	if a.RSI != 100 || a.RSIScore != -2.0 {
		t.Fatalf("RSI = %v (score %v), want 100 / -2.0 for a loss-free series", a.RSI, a.RSIScore)
	}
	if a.MACDScore <= 0 {
		t.Fatalf("MACDScore = %v, want bullish for a rising series", a.MACDScore)
	}
	if a.Trend == "" || a.Suggestion == "" {
		t.Fatal("trend and suggestion must be set")
	}
	if a.VolumeSignal != "正常交易" {
		t.Fatalf("VolumeSignal = %q, want 正常交易 with constant volume", a.VolumeSignal)
	}
	if len(a.Supports) != 2 || len(a.Resistances) != 2 {
		t.Fatalf("supports/resistances = %d/%d, want 2/2", len(a.Supports), len(a.Resistances))
	}
	if len(a.Signals) == 0 {
		t.Fatal("rising series should emit at least one bullish signal")
	}
}

func TestBriefMatchesLatestBar(t *testing.T) {
	bars := risingBars(80)
	a, err := Analyze(bars, Compute(bars))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	brief := a.Brief()
	last := bars[len(bars)-1]
	if brief.Date != last.Date || brief.Close != last.Close {
		t.Fatalf("brief = %+v, want latest bar %s/%v", brief, last.Date, last.Close)
	}
	if brief.Score != a.TotalScore || brief.Trend != a.Trend {
		t.Fatalf("brief score/trend mismatch: %+v", brief)
	}
}

func TestReportSections(t *testing.T) {
	bars := risingBars(80)
	a, err := Analyze(bars, Compute(bars))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	report := a.Report()
	for _, section := range []string{"【基本信息】", "【均线系统】", "【MACD指标】", "【综合研判】", "【关键价位】", "免责声明"} {
		if !strings.Contains(report, section) {
			t.Fatalf("report missing section %q", section)
		}
	}
}

func TestWriteCSVFiles(t *testing.T) {
	bars := risingBars(30)
	ind := Compute(bars)
	dir := t.TempDir()

	dataPath := filepath.Join(dir, "chinext_data.csv")
	if err := WriteBarsCSV(dataPath, bars); err != nil {
		t.Fatalf("WriteBarsCSV: %v", err)
	}
	analysisPath := filepath.Join(dir, "chinext_analysis.csv")
	if err := WriteAnalysisCSV(analysisPath, bars, ind); err != nil {
		t.Fatalf("WriteAnalysisCSV: %v", err)
	}

	raw, err := os.ReadFile(dataPath)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(raw) < 3 || raw[0] != 0xEF || raw[1] != 0xBB || raw[2] != 0xBF {
		t.Fatal("csv should start with a UTF-8 BOM")
	}
	lines := strings.Split(strings.TrimSpace(string(raw[3:])), "\n")
	if len(lines) != len(bars)+1 {
		t.Fatalf("csv has %d lines, want header + %d bars", len(lines), len(bars))
	}
	if !strings.HasPrefix(lines[0], "date,open,close") {
		t.Fatalf("unexpected header: %q", lines[0])
	}

	analysisRaw, err := os.ReadFile(analysisPath)
	if err != nil {
		t.Fatalf("read analysis csv: %v", err)
	}
	if !strings.Contains(string(analysisRaw), "BB_Upper") {
		t.Fatal("analysis csv missing indicator columns")
	}
	// 前19行指标未就绪，BB列应为空
	firstRow := strings.Split(strings.TrimSpace(string(analysisRaw[3:])), "\n")[1]
	if !strings.HasSuffix(firstRow, ",,") {
		t.Fatalf("warmup row should have empty indicator cells: %q", firstRow)
	}
}
