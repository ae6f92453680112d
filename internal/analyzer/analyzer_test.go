package analyzer

import (
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/yikesong/finsight/internal/extractor"
)

func testDocs(contents ...string) []extractor.Document {
	docs := make([]extractor.Document, 0, len(contents))
	for i, content := range contents {
		docs = append(docs, extractor.Document{
			Name:    string(rune('a'+i)) + ".docx",
			Content: content,
		})
	}
	return docs
}

func TestSentimentNoHitsIsExactlyZero(t *testing.T) {
	if got := Sentiment("这段话没有任何情感词汇出现"); got != 0 {
		t.Fatalf("sentiment = %v, want exactly 0", got)
	}
}

func TestSentimentBounds(t *testing.T) {
	if got := Sentiment("看好 推荐 买入"); got != 1 {
		t.Errorf("all-positive sentiment = %v, want 1", got)
	}
	if got := Sentiment("风险 下跌"); got != -1 {
		t.Errorf("all-negative sentiment = %v, want -1", got)
	}
	got := Sentiment("看好机会但需警惕风险")
	if got <= -1 || got >= 1 {
		t.Errorf("mixed sentiment = %v, want inside (-1,1)", got)
	}
}

func TestAnalyzeEmptyBatch(t *testing.T) {
	a := New(zap.NewNop().Sugar())

	result := a.Analyze(nil)
	if result.Metadata.TotalReports != 0 {
		t.Errorf("total_reports = %d", result.Metadata.TotalReports)
	}
	if len(result.SectorRankings) != 0 || len(result.StockRankings) != 0 {
		t.Errorf("empty batch must produce empty rankings")
	}
	if result.SectorSummary != "无板块数据" {
		t.Errorf("summary = %q", result.SectorSummary)
	}
}

func TestAnalyzeSectorScoring(t *testing.T) {
	a := New(zap.NewNop().Sugar())

	docs := testDocs(
		"看好医药板块，创新药管线丰富，CXO订单回暖。医药估值处于底部。",
		"医药行业推荐配置，龙头优质。",
		"半导体芯片国产替代加速，科技板块机会显著。",
	)
	result := a.Analyze(docs)

	if len(result.SectorRankings) == 0 {
		t.Fatal("expected sector rankings")
	}
	for _, r := range result.SectorRankings {
		if r.Score < 0 || r.Score > 100 {
			t.Errorf("sector %s score %v outside [0,100]", r.Sector, r.Score)
		}
		sum := r.Details.FrequencyScore + r.Details.CoverageScore + r.Details.SentimentScore
		if diff := sum - r.Score; diff > 0.05 || diff < -0.05 {
			t.Errorf("sector %s details sum %v != score %v", r.Sector, sum, r.Score)
		}
	}

	top := result.SectorRankings[0]
	if top.Sector != "医药" {
		t.Errorf("top sector = %s, want 医药", top.Sector)
	}
	if top.Coverage != 2 {
		t.Errorf("医药 coverage = %d, want 2", top.Coverage)
	}
	if top.Rank != 1 {
		t.Errorf("top rank = %d", top.Rank)
	}
}

func TestAnalyzeStockNeedsTwoMentions(t *testing.T) {
	a := New(zap.NewNop().Sugar())

	docs := testDocs(
		"看好600519，重点推荐600519，另外一次提及000001。",
	)
	result := a.Analyze(docs)

	if len(result.StockRankings) != 1 {
		t.Fatalf("got %d stock rankings, want 1 (single mentions are dropped)", len(result.StockRankings))
	}
	if result.StockRankings[0].StockCode != "600519" {
		t.Errorf("stock = %s", result.StockRankings[0].StockCode)
	}
	if result.StockRankings[0].Frequency != 2 {
		t.Errorf("frequency = %d, want 2", result.StockRankings[0].Frequency)
	}
	if s := result.StockRankings[0].Score; s < 0 || s > 100 {
		t.Errorf("score %v outside [0,100]", s)
	}
}

func TestAnalyzeInvestmentLogic(t *testing.T) {
	a := New(zap.NewNop().Sugar())

	repeated := "半导体行业业绩增长的核心驱动是国产替代"
	docs := testDocs(
		repeated+"。短句忽略。估值修复逻辑值得关注,空间充足。",
		repeated+"。政策预期持续向好带来增量资金入场。",
	)
	result := a.Analyze(docs)

	if len(result.TopLogics) == 0 {
		t.Fatal("expected investment logics")
	}
	if result.TopLogics[0].Logic != repeated {
		t.Errorf("top logic = %q", result.TopLogics[0].Logic)
	}
	if result.TopLogics[0].Frequency != 2 {
		t.Errorf("top logic frequency = %d, want 2", result.TopLogics[0].Frequency)
	}
}

func TestCrossValidationLevels(t *testing.T) {
	a := New(zap.NewNop().Sugar())

	// 医药 in 2/3 reports (67% -> 高), 金融 in 1/3 (33% -> 中)
	docs := testDocs(
		"医药打头，金融银行也提一句。",
		"医药第二份。",
		"只聊别的，汽车产业链。",
	)
	result := a.Analyze(docs)

	levels := make(map[string]string)
	for _, v := range result.CrossValidation {
		levels[v.Sector] = v.ConfidenceLevel
	}
	if levels["医药"] != "高" {
		t.Errorf("医药 confidence = %q, want 高", levels["医药"])
	}
	if levels["金融"] != "中" {
		t.Errorf("金融 confidence = %q, want 中", levels["金融"])
	}
}

func TestAnalyzeTechSubsectors(t *testing.T) {
	a := New(zap.NewNop().Sugar())

	docs := testDocs(
		"AI大模型推动算力需求，看好人工智能应用。科大讯飞受益明显。",
		"半导体芯片景气回升，中芯国际产能满载，国产替代加速。",
	)
	result := a.AnalyzeTechSubsectors(docs)

	if result.TotalSubsectors == 0 {
		t.Fatal("expected subsector rankings")
	}
	for _, r := range result.Rankings {
		if r.Score < 0 || r.Score > 100 {
			t.Errorf("subsector %s score %v outside [0,100]", r.Subsector, r.Score)
		}
	}

	byName := make(map[string]SubsectorRanking)
	for _, r := range result.Rankings {
		byName[r.Subsector] = r
	}
	ai, ok := byName["人工智能/AI"]
	if !ok {
		t.Fatal("missing 人工智能/AI ranking")
	}
	if len(ai.Stocks) == 0 || !strings.Contains(ai.Stocks[0], "科大讯飞") {
		t.Errorf("AI stocks = %v, want 科大讯飞 binding", ai.Stocks)
	}
	if len(ai.Keywords) == 0 {
		t.Error("AI ranking should list matched keywords")
	}
	if !strings.Contains(result.Summary, "细分领域") {
		t.Errorf("summary = %q", result.Summary)
	}
}

func TestSubsectorSentimentUsesAllContexts(t *testing.T) {
	a := New(zap.NewNop().Sugar())

	// 量子计算只命中一个关键词，四份报告都提到，其中三份积极一份悲观。
	// 情感必须对全部上下文取平均，而不是只取展示的前3段。
	docs := testDocs(
		"量子计算取得突破，前景向好。",
		"量子计算产业增长，继续看好。",
		"量子计算应用落地，机会可期。",
		"量子计算商业化仍有压力，短期下滑风险。",
	)
	result := a.AnalyzeTechSubsectors(docs)

	var quantum *SubsectorRanking
	for i := range result.Rankings {
		if result.Rankings[i].Subsector == "量子计算" {
			quantum = &result.Rankings[i]
		}
	}
	if quantum == nil {
		t.Fatal("missing 量子计算 ranking")
	}
	if len(quantum.KeyContexts) != 3 {
		t.Fatalf("key contexts = %d, want display cap 3", len(quantum.KeyContexts))
	}
	// 4段上下文各情感 1,1,1,-1 → 平均 0.5；只平均前3段会得 1.0
	if quantum.Sentiment != 0.5 {
		t.Errorf("sentiment = %v, want 0.5 over all four contexts", quantum.Sentiment)
	}
}

func TestContextWindows(t *testing.T) {
	content := "量子计算起步。量子计算加速。量子计算落地。量子计算展望。"
	got := contextWindows(content, "量子计算", 100, 3)
	if len(got) != 3 {
		t.Fatalf("windows = %d, want capped at 3", len(got))
	}
	for i, w := range got {
		if !strings.Contains(w, "量子计算") {
			t.Errorf("window %d = %q missing needle", i, w)
		}
	}
	if got := contextWindows(content, "区块链", 100, 3); len(got) != 0 {
		t.Errorf("expected no windows for absent needle, got %v", got)
	}
}

func TestContextWindow(t *testing.T) {
	content := strings.Repeat("前", 150) + "600519" + strings.Repeat("后", 150)
	window := contextWindow(content, "600519", 100)

	if !strings.Contains(window, "600519") {
		t.Fatal("window must contain the needle")
	}
	if n := strings.Count(window, "前"); n != 100 {
		t.Errorf("leading runes = %d, want 100", n)
	}
	if n := strings.Count(window, "后"); n != 100 {
		t.Errorf("trailing runes = %d, want 100", n)
	}
}

func TestStockTotalCountedBeforeTruncation(t *testing.T) {
	// 35只股票各提及两次：榜单截断到30，但统计口径是全部合格股票
	var b strings.Builder
	for i := 0; i < 35; i++ {
		code := fmt.Sprintf("6%05d", i)
		b.WriteString(code + "获增持，" + code + "持续受益。")
	}

	a := New(zap.NewNop().Sugar())
	result := a.Analyze(testDocs(b.String()))

	if len(result.StockRankings) != 30 {
		t.Fatalf("rankings = %d, want truncated to 30", len(result.StockRankings))
	}
	if result.Metadata.TotalStocks != 35 {
		t.Fatalf("total stocks = %d, want 35 before truncation", result.Metadata.TotalStocks)
	}
}
