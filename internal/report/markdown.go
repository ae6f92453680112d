// Package report renders analysis results into the Markdown summaries the
// toolchain hands to humans.
package report

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yikesong/finsight/internal/analyzer"
	"github.com/yikesong/finsight/internal/extractor"
)

// namedStockRe matches "公司名(000001)" with full- or half-width parens.
var namedStockRe = regexp.MustCompile(`([\p{Han}]{2,10})\s*[\(（]\s*([036]\d{5})\s*[\)）]`)

// knownStocks are widely covered names worth counting even without an inline
// code.
var knownStocks = []struct {
	Name string
	Code string
}{
	{"宁德时代", "300750"},
	{"比亚迪", "002594"},
	{"药明康德", "603259"},
	{"凯莱英", "002821"},
	{"康龙化成", "300759"},
	{"泰格医药", "300347"},
	{"阳光电源", "300274"},
	{"隆基绿能", "601012"},
	{"通威股份", "600438"},
	{"美团", "HK03690"},
	{"贵州茅台", "600519"},
	{"五粮液", "000858"},
	{"中国平安", "601318"},
	{"招商银行", "600036"},
}

// sectorLogicNotes holds the canned per-sector reasoning blocks of the final
// report. Sectors missing here fall back to the measured stats.
var sectorLogicNotes = map[string][]string{
	"科技": {
		"AI技术持续突破，应用场景加速落地",
		"半导体国产替代加速，政策支持力度大",
		"云计算、大数据基础设施建设需求旺盛",
		"新质生产力的核心驱动力",
	},
	"消费": {
		"即时零售快速增长，行业渗透率提升",
		"政策刺激消费，内需复苏预期强",
		"品牌消费升级，龙头企业受益",
		"线上线下融合加速，新零售模式创新",
	},
	"周期": {
		"经济回暖预期，周期品需求回升",
		"供给侧改革深化，行业集中度提升",
		"大宗商品价格企稳，盈利能力改善",
		"基建投资加码，拉动需求",
	},
	"TMT": {
		"互联网平台监管趋于稳定，业绩改善",
		"5G应用深化，物联网加速普及",
		"数字经济政策利好，长期成长空间大",
		"传媒内容创新，用户粘性增强",
	},
	"医药": {
		"CXO行业订单回暖，业绩拐点显现",
		"创新药政策支持，研发管线丰富",
		"医保谈判落地,集采常态化,龙头受益",
		"人口老龄化加速，医疗需求持续增长",
	},
	"新能源": {
		"储能、光伏装机需求持续高增",
		"变压器技术创新，特高压建设加速",
		"新能源汽车渗透率提升",
		"碳中和目标下，长期成长确定性强",
	},
}

type namedStock struct {
	Code     string
	Name     string
	Mentions int
	Reports  map[string]bool
}

// extractNamedStocks pulls "name(code)" pairs and known names out of the raw
// report texts for the stock-pool section.
func extractNamedStocks(docs []extractor.Document) []*namedStock {
	found := make(map[string]*namedStock)
	var order []string

	record := func(code, name, doc string, mentions int) {
		stock := found[code]
		if stock == nil {
			stock = &namedStock{Code: code, Name: name, Reports: make(map[string]bool)}
			found[code] = stock
			order = append(order, code)
		}
		stock.Mentions += mentions
		stock.Reports[doc] = true
	}

	for _, doc := range docs {
		for _, match := range namedStockRe.FindAllStringSubmatch(doc.Content, -1) {
			record(match[2], match[1], doc.Name, 1)
		}
		for _, known := range knownStocks {
			if n := strings.Count(doc.Content, known.Name); n > 0 {
				record(known.Code, known.Name, doc.Name, n)
			}
		}
	}

	stocks := make([]*namedStock, 0, len(order))
	for _, code := range order {
		stocks = append(stocks, found[code])
	}
	sort.SliceStable(stocks, func(i, j int) bool {
		return stocks[i].Mentions > stocks[j].Mentions
	})
	return stocks
}

// Final renders the combined investment summary.
func Final(analysis *analyzer.Result, docs []extractor.Document) string {
	var md []string
	total := analysis.Metadata.TotalReports

	md = append(md, "# 📊 投资分析报告汇总")
	md = append(md, fmt.Sprintf("\n**生成时间**: %s\n", time.Now().Format("2006年01月02日 15:04:05")))
	md = append(md, "---\n")

	md = append(md, "## 一、分析概览\n")
	md = append(md, fmt.Sprintf("- **分析报告数量**: %d 份", total))
	md = append(md, fmt.Sprintf("- **识别板块数量**: %d 个\n", analysis.Metadata.TotalSectors))

	md = append(md, "\n## 二、板块分析与评分（100分制）\n")
	md = append(md, "### 📈 板块评分排行榜\n")
	md = append(md, "| 排名 | 板块 | 综合评分 | 提及次数 | 报告覆盖率 | 情感分数 | 评级 |")
	md = append(md, "|------|------|---------|---------|-----------|---------|------|")
	for _, item := range analysis.SectorRankings {
		md = append(md, fmt.Sprintf("| %d | **%s** | %.2f | %d | %d/%d | %.2f | %s |",
			item.Rank, item.Sector, item.Score, item.Frequency, item.Coverage, total,
			item.Sentiment, Rating(item.Score)))
	}

	md = append(md, "\n### 📝 评分说明\n")
	md = append(md, "**评分维度**:")
	md = append(md, "- **提及频率** (40分): 板块在所有报告中被提及的总次数")
	md = append(md, "- **报告覆盖度** (30分): 有多少份报告提及了该板块")
	md = append(md, "- **情感分数** (30分): 基于积极/消极词汇的情感倾向分析\n")
	md = append(md, "**评级标准**:")
	md = append(md, "- A+ (90-100分): 极力推荐")
	md = append(md, "- A (80-89分): 强烈推荐")
	md = append(md, "- B+ (70-79分): 推荐")
	md = append(md, "- B (60-69分): 关注")
	md = append(md, "- C (50-59分): 观望")
	md = append(md, "- D (50分以下): 谨慎\n")

	md = append(md, "\n## 三、核心选股逻辑总结\n")
	md = append(md, "### 🎯 Top 5 板块投资逻辑\n")
	topSectors := analysis.SectorRankings
	if len(topSectors) > 5 {
		topSectors = topSectors[:5]
	}
	for _, item := range topSectors {
		md = append(md, fmt.Sprintf("\n#### %d. %s (评分: %.2f)", item.Rank, item.Sector, item.Score))
		if notes, ok := sectorLogicNotes[item.Sector]; ok {
			for _, note := range notes {
				md = append(md, "- "+note)
			}
		} else {
			md = append(md, fmt.Sprintf("- 该板块在 %d 份报告中被提及", item.Coverage))
			label := "谨慎"
			if item.Sentiment > 0.2 {
				label = "积极"
			} else if item.Sentiment > 0 {
				label = "中性"
			}
			md = append(md, "- 市场情感倾向: "+label)
		}
	}

	md = append(md, "\n\n## 四、观点交叉验证\n")
	md = append(md, "### 🔍 多份报告观点一致性分析\n")
	md = append(md, "| 板块 | 共识度 | 提及报告数 | 可信度等级 | 建议 |")
	md = append(md, "|------|--------|-----------|-----------|------|")
	for _, v := range analysis.CrossValidation {
		md = append(md, fmt.Sprintf("| %s | %.2f%% | %d/%d | %s | %s |",
			v.Sector, v.ConsensusRate, v.ReportsCount, total,
			v.ConfidenceLevel, Suggestion(v.ConfidenceLevel)))
	}
	md = append(md, "\n**说明**: ")
	md = append(md, "- **共识度**: 该板块在所有报告中被提及的比例")
	md = append(md, "- **可信度**: 基于共识度的可信度评级（高>50%, 中30-50%, 低<30%）\n")

	md = append(md, "\n## 五、重点关注股票\n")
	stocks := extractNamedStocks(docs)
	if len(stocks) > 0 {
		md = append(md, "### 📌 高频提及股票\n")
		md = append(md, "| 排名 | 股票代码 | 股票名称 | 提及次数 | 覆盖报告数 | 推荐度 |")
		md = append(md, "|------|---------|---------|---------|-----------|--------|")
		if len(stocks) > 20 {
			stocks = stocks[:20]
		}
		for i, stock := range stocks {
			md = append(md, fmt.Sprintf("| %d | %s | %s | %d | %d | %s |",
				i+1, stock.Code, stock.Name, stock.Mentions, len(stock.Reports),
				StockStars(stock.Mentions, len(stock.Reports))))
		}
	} else {
		md = append(md, "*注：报告中未明确标注股票代码，建议结合板块分析自行筛选个股*\n")
	}

	md = append(md, "\n## 六、综合投资建议\n")
	md = append(md, "### ✅ 配置建议\n")
	md = append(md, fmt.Sprintf("**核心配置** (60-70%%): %s", sectorNames(analysis.SectorRankings, 0, 3)))
	md = append(md, "- 这些板块获得最高评分和共识度，建议重点配置\n")
	md = append(md, fmt.Sprintf("**卫星配置** (20-30%%): %s", sectorNames(analysis.SectorRankings, 3, 6)))
	md = append(md, "- 这些板块有一定关注度，可作为组合补充\n")
	md = append(md, "**灵活仓位** (10%): 机动调仓")
	md = append(md, "- 根据市场变化和最新信息调整\n")

	md = append(md, "\n### ⚠️ 风险提示\n")
	md = append(md, "1. 本分析基于历史报告，不构成投资建议")
	md = append(md, "2. 市场环境快速变化，需结合最新信息判断")
	md = append(md, "3. 板块轮动频繁，注意仓位控制和风险管理")
	md = append(md, "4. 个股选择需进一步研究基本面和技术面")
	md = append(md, "5. 建议分散投资，避免过度集中单一板块\n")

	md = append(md, "\n## 附录：分析报告清单\n")
	md = append(md, "| 序号 | 报告名称 | 字符数 |")
	md = append(md, "|------|---------|--------|")
	sorted := make([]extractor.Document, len(docs))
	copy(sorted, docs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	for i, doc := range sorted {
		md = append(md, fmt.Sprintf("| %d | %s | %d |", i+1, doc.Name, utf8.RuneCountInString(doc.Content)))
	}

	md = append(md, "\n\n---")
	md = append(md, "\n*本报告由 AI 自动分析生成，仅供参考*")

	return strings.Join(md, "\n")
}

// Subsector renders the tech deep-dive report.
func Subsector(result *analyzer.SubsectorResult) string {
	var md []string
	total := result.TotalReports

	md = append(md, "# 🔬 科技板块细分领域深度分析\n")
	md = append(md, fmt.Sprintf("**分析时间**: %s\n", time.Now().Format("2006年01月02日 15:04:05")))
	md = append(md, "---\n")

	md = append(md, "## 一、概览\n")
	md = append(md, fmt.Sprintf("- **识别细分领域数量**: %d 个", result.TotalSubsectors))
	md = append(md, fmt.Sprintf("- **核心发现**: %s\n", result.Summary))

	md = append(md, "\n## 二、细分领域评分排行（100分制）\n")
	md = append(md, "| 排名 | 细分领域 | 综合评分 | 提及次数 | 报告覆盖 | 情感分数 | 评级 |")
	md = append(md, "|------|---------|---------|---------|---------|---------|------|")
	for _, r := range result.Rankings {
		md = append(md, fmt.Sprintf("| %d | **%s** | %.2f | %d | %d/%d | %.2f | %s |",
			r.Rank, r.Subsector, r.Score, r.Frequency, r.Coverage, total, r.Sentiment, Rating(r.Score)))
	}

	md = append(md, "\n### 评级说明")
	md = append(md, "- **A+** (90-100分): 极力推荐，行业热点")
	md = append(md, "- **A** (80-89分): 强烈推荐，高景气度")
	md = append(md, "- **B+** (70-79分): 推荐配置")
	md = append(md, "- **B** (60-69分): 值得关注")
	md = append(md, "- **C** (50-59分): 观望")
	md = append(md, "- **D** (50分以下): 谨慎\n")

	md = append(md, "\n## 三、各细分领域详细分析\n")
	detailed := result.Rankings
	if len(detailed) > 10 {
		detailed = detailed[:10]
	}
	for _, r := range detailed {
		md = append(md, fmt.Sprintf("\n### %d. %s", r.Rank, r.Subsector))
		md = append(md, fmt.Sprintf("**综合评分**: %.2f | **评级**: %s\n", r.Score, Rating(r.Score)))
		md = append(md, "#### 📊 关键指标")
		md = append(md, fmt.Sprintf("- **提及次数**: %d 次", r.Frequency))
		md = append(md, fmt.Sprintf("- **报告覆盖**: %d/%d 份", r.Coverage, total))
		md = append(md, fmt.Sprintf("- **市场情绪**: %s", SentimentLabel(r.Sentiment)))
		md = append(md, fmt.Sprintf("- **情感分数**: %.2f\n", r.Sentiment))

		if len(r.Stocks) > 0 {
			md = append(md, "#### 🎯 相关标的")
			for _, stock := range r.Stocks {
				md = append(md, "- "+stock)
			}
			md = append(md, "")
		}
		if len(r.Keywords) > 0 {
			keywords := r.Keywords
			if len(keywords) > 10 {
				keywords = keywords[:10]
			}
			md = append(md, "#### 🔑 关键词")
			md = append(md, strings.Join(keywords, "、")+"\n")
		}
		if len(r.KeyContexts) > 0 {
			md = append(md, "#### 💡 核心观点摘录")
			contexts := r.KeyContexts
			if len(contexts) > 2 {
				contexts = contexts[:2]
			}
			for j, ctx := range contexts {
				md = append(md, fmt.Sprintf("%d. %s...", j+1, truncateRunes(strings.TrimSpace(ctx), 150)))
			}
			md = append(md, "")
		}
		md = append(md, "---\n")
	}

	md = append(md, "\n## 四、投资建议\n")
	var topTier, midTier []string
	for _, r := range result.Rankings {
		switch {
		case r.Score >= 70:
			topTier = append(topTier, r.Subsector)
		case r.Score >= 60:
			midTier = append(midTier, r.Subsector)
		}
	}
	if len(topTier) > 0 {
		md = append(md, "### ✅ 重点配置领域 (评分≥70)")
		for _, name := range topTier {
			md = append(md, fmt.Sprintf("- **%s**", name))
		}
		md = append(md, "")
	}
	if len(midTier) > 0 {
		md = append(md, "### 👀 关注领域 (评分60-70)")
		for _, name := range midTier {
			md = append(md, "- "+name)
		}
		md = append(md, "")
	}

	md = append(md, "\n### 📈 配置建议")
	md = append(md, "- **核心持仓**: 选择评分最高的2-3个细分领域")
	md = append(md, "- **卫星配置**: 适当布局1-2个中等评分领域")
	md = append(md, "- **分散风险**: 避免过度集中单一细分领域")
	md = append(md, "- **动态调整**: 关注政策变化和技术突破\n")

	md = append(md, "\n---\n")
	md = append(md, "*本报告基于AI分析生成，仅供参考*")

	return strings.Join(md, "\n")
}

func sectorNames(rankings []analyzer.SectorRanking, from, to int) string {
	if from > len(rankings) {
		from = len(rankings)
	}
	if to > len(rankings) {
		to = len(rankings)
	}
	names := make([]string, 0, to-from)
	for _, r := range rankings[from:to] {
		names = append(names, r.Sector)
	}
	if len(names) == 0 {
		return "暂无"
	}
	return strings.Join(names, ", ")
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
