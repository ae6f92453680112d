package report

import (
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/yikesong/finsight/internal/analyzer"
	"github.com/yikesong/finsight/internal/extractor"
)

func TestRating(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{95, "A+"}, {90, "A+"}, {85, "A"}, {80, "A"},
		{75, "B+"}, {65, "B"}, {55, "C"}, {49.99, "D"}, {0, "D"},
	}
	for _, c := range cases {
		if got := Rating(c.score); got != c.want {
			t.Errorf("Rating(%v) = %q, want %q", c.score, got, c.want)
		}
	}
}

func TestStockStars(t *testing.T) {
	if got := StockStars(5, 2); got != "⭐⭐⭐⭐⭐" {
		t.Errorf("StockStars(5,2) = %q", got)
	}
	if got := StockStars(1, 0); got != "⭐" {
		t.Errorf("StockStars(1,0) = %q", got)
	}
}

func TestExtractNamedStocks(t *testing.T) {
	docs := []extractor.Document{
		{Name: "a.docx", Content: "推荐：恒瑞医药（600276），同时提到宁德时代的扩产计划。"},
		{Name: "b.docx", Content: "继续看好 恒瑞医药(600276)。宁德时代宁德时代。"},
	}

	stocks := extractNamedStocks(docs)
	if len(stocks) != 2 {
		t.Fatalf("got %d stocks, want 2", len(stocks))
	}

	byCode := make(map[string]*namedStock)
	for _, s := range stocks {
		byCode[s.Code] = s
	}

	hengrui := byCode["600276"]
	if hengrui == nil || hengrui.Name != "恒瑞医药" {
		t.Fatalf("missing 600276: %+v", byCode)
	}
	if len(hengrui.Reports) != 2 {
		t.Errorf("600276 coverage = %d, want 2", len(hengrui.Reports))
	}

	catl := byCode["300750"]
	if catl == nil || catl.Mentions != 3 {
		t.Fatalf("宁德时代 mentions = %+v, want 3", catl)
	}

	// name occurrences beat paren-annotated mentions here
	if stocks[0].Code != "300750" {
		t.Errorf("top stock = %s, want 300750", stocks[0].Code)
	}
}

func TestFinalReportStructure(t *testing.T) {
	a := analyzer.New(zap.NewNop().Sugar())
	docs := []extractor.Document{
		{Name: "a.docx", Content: "看好医药板块，创新药持续受益。推荐恒瑞医药(600276)与600276共振。"},
		{Name: "b.docx", Content: "科技半导体芯片机会，国产替代。"},
	}
	result := a.Analyze(docs)

	md := Final(result, docs)

	for _, want := range []string{
		"# 📊 投资分析报告汇总",
		"## 二、板块分析与评分（100分制）",
		"| 排名 | 板块 |",
		"## 四、观点交叉验证",
		"## 五、重点关注股票",
		"600276",
		"## 附录：分析报告清单",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("final report missing %q", want)
		}
	}
}

func TestSubsectorReportStructure(t *testing.T) {
	a := analyzer.New(zap.NewNop().Sugar())
	docs := []extractor.Document{
		{Name: "a.docx", Content: "AI大模型带动算力，看好人工智能。科大讯飞受益。"},
	}
	result := a.AnalyzeTechSubsectors(docs)

	md := Subsector(result)

	for _, want := range []string{
		"# 🔬 科技板块细分领域深度分析",
		"## 二、细分领域评分排行（100分制）",
		"人工智能/AI",
		"科大讯飞",
		"### 📈 配置建议",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("subsector report missing %q", want)
		}
	}
}

func TestFinalReportEmptyBatch(t *testing.T) {
	a := analyzer.New(zap.NewNop().Sugar())
	result := a.Analyze(nil)

	md := Final(result, nil)
	if !strings.Contains(md, "未明确标注股票代码") {
		t.Error("empty batch should show the no-stock note")
	}
}
