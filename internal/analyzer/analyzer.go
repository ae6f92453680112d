// Package analyzer scores research reports: which sectors and stocks the
// brokers keep mentioning, how positively, and with how much consensus.
package analyzer

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yikesong/finsight/internal/extractor"
)

var (
	stockCodeRe     = regexp.MustCompile(`\b[0-9]{6}\b`)
	sentenceSplitRe = regexp.MustCompile(`[。！？\n]`)
)

// ScoreDetails breaks a composite score into its three parts.
type ScoreDetails struct {
	FrequencyScore float64 `json:"frequency_score"`
	CoverageScore  float64 `json:"coverage_score"`
	SentimentScore float64 `json:"sentiment_score"`
}

// SectorRanking is one row of the sector leaderboard.
type SectorRanking struct {
	Rank      int          `json:"rank"`
	Sector    string       `json:"sector"`
	Score     float64      `json:"score"`
	Frequency int          `json:"frequency"`
	Coverage  int          `json:"coverage"`
	Sentiment float64      `json:"sentiment"`
	Details   ScoreDetails `json:"scoring_details"`
}

// StockRanking is one row of the stock leaderboard.
type StockRanking struct {
	Rank      int     `json:"rank"`
	StockCode string  `json:"stock_code"`
	Score     float64 `json:"score"`
	Frequency int     `json:"frequency"`
	Coverage  int     `json:"coverage"`
	Sentiment float64 `json:"sentiment"`
}

// LogicEntry is one recurring investment argument.
type LogicEntry struct {
	Logic     string `json:"logic"`
	Frequency int    `json:"frequency"`
}

// Validation is the consensus check for one top sector.
type Validation struct {
	Sector          string  `json:"sector"`
	ConsensusRate   float64 `json:"consensus_rate"`
	ReportsCount    int     `json:"reports_count"`
	ConfidenceLevel string  `json:"confidence_level"`
}

// Metadata describes the analysis run.
type Metadata struct {
	RunID        string `json:"run_id"`
	AnalysisDate string `json:"analysis_date"`
	TotalReports int    `json:"total_reports"`
	TotalSectors int    `json:"total_sectors"`
	TotalStocks  int    `json:"total_stocks"`
}

// Result is the full output of one analysis run.
type Result struct {
	Metadata        Metadata        `json:"metadata"`
	SectorRankings  []SectorRanking `json:"sector_rankings"`
	SectorSummary   string          `json:"sector_summary"`
	StockRankings   []StockRanking  `json:"stock_rankings"`
	TopLogics       []LogicEntry    `json:"top_investment_logics"`
	CrossValidation []Validation    `json:"cross_validation"`
}

// Analyzer accumulates mention statistics over a report batch.
type Analyzer struct {
	logger *zap.SugaredLogger
}

// New creates a report analyzer
func New(logger *zap.SugaredLogger) *Analyzer {
	return &Analyzer{logger: logger}
}

type sectorStats struct {
	count     int
	docs      []string // one entry per document that matched
	sentiment float64
}

type stockStats struct {
	count     int
	docs      map[string]bool
	sentiment float64
}

// Analyze runs the full scoring pipeline over the extracted documents.
func (a *Analyzer) Analyze(docs []extractor.Document) *Result {
	sectorData := make(map[string]*sectorStats)
	stockData := make(map[string]*stockStats)
	var stockOrder []string
	var logics []string
	logicFreq := make(map[string]int)

	for _, doc := range docs {
		content := doc.Content

		// sector pass: the first matching keyword of each sector carries
		// that document's frequency contribution
		for _, sector := range Sectors {
			for _, keyword := range sector.Keywords {
				if strings.Contains(content, keyword) {
					stats := sectorData[sector.Name]
					if stats == nil {
						stats = &sectorStats{}
						sectorData[sector.Name] = stats
					}
					stats.count += strings.Count(content, keyword)
					stats.docs = append(stats.docs, doc.Name)
					stats.sentiment += Sentiment(content)
					break
				}
			}
		}

		// stock pass: every 6-digit code occurrence counts, sentiment taken
		// from the +/-100 rune window around the first occurrence
		for _, code := range stockCodeRe.FindAllString(content, -1) {
			stats := stockData[code]
			if stats == nil {
				stats = &stockStats{docs: make(map[string]bool)}
				stockData[code] = stats
				stockOrder = append(stockOrder, code)
			}
			stats.count++
			stats.docs[doc.Name] = true
			stats.sentiment += Sentiment(contextWindow(content, code, 100))
		}

		// logic pass: keep up to 5 reasoning sentences per document
		kept := 0
		for _, sentence := range sentenceSplitRe.Split(content, -1) {
			if kept >= 5 {
				break
			}
			sentence = strings.TrimSpace(sentence)
			if utf8.RuneCountInString(sentence) <= 10 {
				continue
			}
			for _, keyword := range logicKeywords {
				if strings.Contains(sentence, keyword) {
					if logicFreq[sentence] == 0 {
						logics = append(logics, sentence)
					}
					logicFreq[sentence]++
					kept++
					break
				}
			}
		}
	}

	totalDocs := len(docs)
	sectorRankings := a.scoreSectors(sectorData, totalDocs)
	stockRankings, totalStocks := a.scoreStocks(stockData, stockOrder, totalDocs)

	a.logger.Infow("analysis complete",
		"reports", totalDocs,
		"sectors", len(sectorRankings),
		"stocks", totalStocks)

	return &Result{
		Metadata: Metadata{
			RunID:        uuid.NewString(),
			AnalysisDate: time.Now().Format("2006-01-02 15:04:05"),
			TotalReports: totalDocs,
			TotalSectors: len(sectorRankings),
			TotalStocks:  totalStocks,
		},
		SectorRankings:  sectorRankings,
		SectorSummary:   sectorSummary(sectorRankings),
		StockRankings:   stockRankings,
		TopLogics:       topLogics(logics, logicFreq, 10),
		CrossValidation: crossValidate(sectorRankings, sectorData, totalDocs),
	}
}

func (a *Analyzer) scoreSectors(data map[string]*sectorStats, totalDocs int) []SectorRanking {
	maxCount := 1
	for _, stats := range data {
		if stats.count > maxCount {
			maxCount = stats.count
		}
	}

	var rankings []SectorRanking
	for _, sector := range Sectors { // dictionary order keeps ties stable
		stats, ok := data[sector.Name]
		if !ok {
			continue
		}

		coverage := uniqueCount(stats.docs)
		avgSentiment := 0.0
		if len(stats.docs) > 0 {
			avgSentiment = stats.sentiment / float64(len(stats.docs))
		}

		freqScore := float64(stats.count) / float64(maxCount) * 40
		covScore := float64(coverage) / float64(totalDocs) * 30
		sentScore := (avgSentiment + 1) / 2 * 30
		details := ScoreDetails{
			FrequencyScore: round2(freqScore),
			CoverageScore:  round2(covScore),
			SentimentScore: round2(sentScore),
		}

		rankings = append(rankings, SectorRanking{
			Sector:    sector.Name,
			Score:     round2(freqScore + covScore + sentScore),
			Frequency: stats.count,
			Coverage:  coverage,
			Sentiment: round2(avgSentiment),
			Details:   details,
		})
	}

	sort.SliceStable(rankings, func(i, j int) bool {
		return rankings[i].Score > rankings[j].Score
	})
	for i := range rankings {
		rankings[i].Rank = i + 1
	}
	return rankings
}

// scoreStocks ranks stocks with >=2 mentions. It returns the top 30 plus the
// full qualifying count, which metadata reports untruncated.
func (a *Analyzer) scoreStocks(data map[string]*stockStats, order []string, totalDocs int) ([]StockRanking, int) {
	maxCount := 1
	for _, stats := range data {
		if stats.count > maxCount {
			maxCount = stats.count
		}
	}

	var rankings []StockRanking
	for _, code := range order { // first-seen order keeps ties stable
		stats := data[code]
		if stats.count < 2 {
			continue
		}

		avgSentiment := stats.sentiment / float64(stats.count)
		score := float64(stats.count)/float64(maxCount)*40 +
			float64(len(stats.docs))/float64(totalDocs)*30 +
			(avgSentiment+1)/2*30

		rankings = append(rankings, StockRanking{
			StockCode: code,
			Score:     round2(score),
			Frequency: stats.count,
			Coverage:  len(stats.docs),
			Sentiment: round2(avgSentiment),
		})
	}

	sort.SliceStable(rankings, func(i, j int) bool {
		return rankings[i].Score > rankings[j].Score
	})
	total := len(rankings)
	if len(rankings) > 30 {
		rankings = rankings[:30]
	}
	for i := range rankings {
		rankings[i].Rank = i + 1
	}
	return rankings, total
}

func topLogics(order []string, freq map[string]int, n int) []LogicEntry {
	sort.SliceStable(order, func(i, j int) bool {
		return freq[order[i]] > freq[order[j]]
	})
	if len(order) > n {
		order = order[:n]
	}
	entries := make([]LogicEntry, 0, len(order))
	for _, logic := range order {
		entries = append(entries, LogicEntry{Logic: logic, Frequency: freq[logic]})
	}
	return entries
}

// crossValidate reports how many documents back each of the top 5 sectors.
func crossValidate(rankings []SectorRanking, data map[string]*sectorStats, totalDocs int) []Validation {
	top := rankings
	if len(top) > 5 {
		top = top[:5]
	}

	validations := make([]Validation, 0, len(top))
	for _, ranking := range top {
		stats := data[ranking.Sector]
		mentioned := uniqueCount(stats.docs)
		consensus := 0.0
		if totalDocs > 0 {
			consensus = float64(mentioned) / float64(totalDocs) * 100
		}

		level := "低"
		if consensus > 50 {
			level = "高"
		} else if consensus > 30 {
			level = "中"
		}

		validations = append(validations, Validation{
			Sector:          ranking.Sector,
			ConsensusRate:   round2(consensus),
			ReportsCount:    mentioned,
			ConfidenceLevel: level,
		})
	}
	return validations
}

func sectorSummary(rankings []SectorRanking) string {
	if len(rankings) == 0 {
		return "无板块数据"
	}

	top := rankings
	if len(top) > 3 {
		top = top[:3]
	}
	names := make([]string, 0, len(top))
	for _, r := range top {
		names = append(names, r.Sector)
	}
	summary := fmt.Sprintf("最受关注的三大板块：%s。", strings.Join(names, ", "))

	var positive []string
	for _, r := range rankings {
		if r.Sentiment > 0.3 {
			positive = append(positive, r.Sector)
		}
	}
	if len(positive) > 3 {
		positive = positive[:3]
	}
	if len(positive) > 0 {
		summary += fmt.Sprintf(" 市场情绪最积极的板块：%s。", strings.Join(positive, ", "))
	}
	return summary
}

// contextWindow slices up to window runes either side of needle's first
// occurrence.
func contextWindow(content, needle string, window int) string {
	idx := strings.Index(content, needle)
	if idx < 0 {
		return ""
	}

	start := idx
	for i := 0; i < window && start > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(content[:start])
		start -= size
	}

	end := idx + len(needle)
	for i := 0; i < window && end < len(content); i++ {
		_, size := utf8.DecodeRuneInString(content[end:])
		end += size
	}

	return content[start:end]
}

// contextWindows collects windows around successive occurrences of needle,
// up to max per call.
func contextWindows(content, needle string, window, max int) []string {
	var out []string
	rest := content
	for len(out) < max {
		idx := strings.Index(rest, needle)
		if idx < 0 {
			break
		}
		out = append(out, contextWindow(rest, needle, window))
		rest = rest[idx+len(needle):]
	}
	return out
}

func uniqueCount(names []string) int {
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		seen[name] = true
	}
	return len(seen)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
