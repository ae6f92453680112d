package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/yikesong/finsight/internal/analyzer"
	"github.com/yikesong/finsight/internal/market"
	"github.com/yikesong/finsight/internal/report"
)

// UI styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	quoteBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(0, 2)

	upStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#EF4444")). // A股习惯：红涨
		Bold(true)

	downStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")) // 绿跌

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444"))
)

func changeStyle(pct string) lipgloss.Style {
	if strings.HasPrefix(pct, "-") {
		return downStyle
	}
	return upStyle
}

// renderQuote 单只标的的行情卡片
func renderQuote(q *market.Quote) string {
	if q.Error != "" {
		return errorStyle.Render(fmt.Sprintf("✗ %s: %s", q.Symbol, q.Error))
	}

	var b strings.Builder
	header := fmt.Sprintf("%s %s", q.Name, q.Symbol)
	if q.Market != "" {
		header += dimStyle.Render(fmt.Sprintf("  [%s]", q.Market))
	}
	b.WriteString(titleStyle.Render(header) + "\n")

	if q.Price != nil {
		style := changeStyle(q.Price.ChangePct)
		b.WriteString(fmt.Sprintf("最新价: %s  %s\n",
			style.Render(q.Price.Current.String()),
			style.Render(fmt.Sprintf("%s (%s)", q.Price.Change.String(), q.Price.ChangePct))))
		b.WriteString(fmt.Sprintf("开盘: %s  最高: %s  最低: %s  昨收: %s\n",
			q.Price.Open, q.Price.High, q.Price.Low, q.Price.PrevClose))
	}
	if q.Volume > 0 {
		b.WriteString(fmt.Sprintf("成交量: %d", q.Volume))
		if !q.Turnover.IsZero() {
			b.WriteString(fmt.Sprintf("  成交额: %s", q.Turnover))
		}
		b.WriteString("\n")
	}
	var valuation []string
	if q.PERatio != nil {
		valuation = append(valuation, fmt.Sprintf("PE %s", q.PERatio))
	}
	if q.PBRatio != nil {
		valuation = append(valuation, fmt.Sprintf("PB %s", q.PBRatio))
	}
	if q.TurnoverRate != "" {
		valuation = append(valuation, fmt.Sprintf("换手率 %s", q.TurnoverRate))
	}
	if q.MarketCap != nil {
		valuation = append(valuation, fmt.Sprintf("总市值 %s", q.MarketCap))
	}
	if len(valuation) > 0 {
		b.WriteString(strings.Join(valuation, "  ") + "\n")
	}
	if q.Range52W != nil {
		b.WriteString(fmt.Sprintf("52周区间: %s - %s\n", q.Range52W.Low, q.Range52W.High))
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("来源: %s  %s", q.Source, q.UpdatedAt)))

	return quoteBoxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// renderFuturesTable 期货合约行情表
func renderFuturesTable(quotes []*market.Quote, source string) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s 期货行情", source)) + "\n")
	b.WriteString(fmt.Sprintf("%-10s %-10s %-10s %-10s %-10s %-10s %-12s\n",
		"合约", "最新价", "涨跌幅", "开盘", "最高", "最低", "持仓量"))
	b.WriteString(strings.Repeat("-", 74) + "\n")

	for _, q := range quotes {
		if q.Error != "" || q.Price == nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("%-10s 获取失败", q.Symbol)) + "\n")
			continue
		}
		row := fmt.Sprintf("%-10s %-10s %-10s %-10s %-10s %-10s %-12d",
			q.Symbol,
			q.Price.Current.String(),
			q.Price.ChangePct,
			q.Price.Open.String(),
			q.Price.High.String(),
			q.Price.Low.String(),
			q.Position)
		b.WriteString(changeStyle(q.Price.ChangePct).Render(row) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderAnalysisSummary 板块/个股打分结果的终端摘要
func renderAnalysisSummary(result *analyzer.Result) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("📊 研报分析摘要") + "\n\n")
	b.WriteString(fmt.Sprintf("报告数: %d  板块数: %d  个股数: %d\n\n",
		result.Metadata.TotalReports,
		result.Metadata.TotalSectors,
		result.Metadata.TotalStocks))

	b.WriteString("热门板块 Top5:\n")
	for i, s := range result.SectorRankings {
		if i >= 5 {
			break
		}
		b.WriteString(fmt.Sprintf("  %d. %-6s 得分 %.2f  评级 %s  情绪 %s\n",
			i+1, s.Sector, s.Score, report.Rating(s.Score), report.SentimentLabel(s.Sentiment)))
	}

	if len(result.StockRankings) > 0 {
		b.WriteString("\n热门个股 Top5:\n")
		for i, s := range result.StockRankings {
			if i >= 5 {
				break
			}
			b.WriteString(fmt.Sprintf("  %d. %s  提及 %d 次  覆盖 %d 份\n",
				i+1, s.StockCode, s.Frequency, s.Coverage))
		}
	}

	if result.SectorSummary != "" {
		b.WriteString("\n" + result.SectorSummary + "\n")
	}
	return b.String()
}
