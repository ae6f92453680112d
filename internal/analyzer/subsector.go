package analyzer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yikesong/finsight/internal/extractor"
)

// techSubsectors carries the finer-grained tech dictionary. Unlike the sector
// pass, every matching keyword contributes here.
var techSubsectors = []SectorKeywords{
	{"人工智能/AI", []string{
		"人工智能", "AI", "大模型", "ChatGPT", "GPT", "深度学习",
		"机器学习", "算法", "智能算力", "算力", "AI应用", "AIGC",
		"自然语言", "计算机视觉", "语音识别", "智能化",
	}},
	{"半导体/芯片", []string{
		"半导体", "芯片", "集成电路", "晶圆", "光刻机", "EDA",
		"存储芯片", "功率半导体", "MCU", "GPU", "CPU", "封装测试",
		"国产替代", "芯片设计", "晶圆制造", "ASML", "台积电",
	}},
	{"云计算", []string{
		"云计算", "云服务", "云基础设施", "数据中心", "服务器",
		"IDC", "算力中心", "边缘计算", "混合云", "私有云", "公有云",
		"云原生", "SaaS", "PaaS", "IaaS",
	}},
	{"软件", []string{
		"软件", "操作系统", "数据库", "中间件", "工业软件",
		"办公软件", "ERP", "CRM", "CAD", "CAE", "PLM",
		"信创", "国产软件", "金蝶", "用友", "鸿蒙",
	}},
	{"网络安全", []string{
		"网络安全", "信息安全", "数据安全", "防火墙",
		"态势感知", "安全防护", "网安", "等保", "密码",
	}},
	{"5G/通信", []string{
		"5G", "6G", "通信", "基站", "光通信", "光模块", "光纤",
		"通信设备", "天线", "射频", "物联网", "IoT", "蜂窝",
	}},
	{"大数据", []string{
		"大数据", "数据分析", "数据治理", "数据中台",
		"商业智能", "BI", "数据挖掘", "数据可视化",
	}},
	{"工业互联网", []string{
		"工业互联网", "工业4.0", "智能制造", "数字孪生",
		"MES", "智能工厂", "柔性制造", "工业物联网",
	}},
	{"信创/国产化", []string{
		"信创", "国产化", "自主可控", "去IOE", "国产替代",
		"操作系统国产化", "芯片国产化", "软件国产化",
	}},
	{"卫星互联网", []string{
		"卫星互联网", "低轨卫星", "星链", "卫星通信",
		"北斗", "导航", "遥感卫星",
	}},
	{"消费电子", []string{
		"消费电子", "智能手机", "可穿戴", "TWS", "VR", "AR",
		"元宇宙", "智能音箱", "平板电脑", "智能家居",
	}},
	{"量子计算", []string{
		"量子计算", "量子通信", "量子科技", "量子芯片",
	}},
}

// techCompany is a known listed company and the subsector it belongs to.
type techCompany struct {
	Name      string
	Code      string
	Subsector string
}

var techCompanies = []techCompany{
	{"科大讯飞", "002230", "人工智能/AI"},
	{"寒武纪", "688256", "人工智能/AI"},
	{"海光信息", "688041", "人工智能/AI"},
	{"拓尔思", "300229", "人工智能/AI"},

	{"中芯国际", "688981", "半导体/芯片"},
	{"北方华创", "002371", "半导体/芯片"},
	{"华虹公司", "688347", "半导体/芯片"},
	{"韦尔股份", "603501", "半导体/芯片"},
	{"兆易创新", "603986", "半导体/芯片"},
	{"卓胜微", "300782", "半导体/芯片"},
	{"三安光电", "600703", "半导体/芯片"},
	{"长电科技", "600584", "半导体/芯片"},
	{"紫光国微", "002049", "半导体/芯片"},

	{"浪潮信息", "000977", "云计算"},
	{"紫光股份", "000938", "云计算"},
	{"中科曙光", "603019", "云计算"},
	{"宝信软件", "600845", "云计算"},

	{"用友网络", "600588", "软件"},
	{"金蝶国际", "HK00268", "软件"},
	{"广联达", "002410", "软件"},
	{"恒生电子", "600570", "软件"},
	{"中望软件", "688083", "软件"},

	{"中兴通讯", "000063", "5G/通信"},
	{"烽火通信", "600498", "5G/通信"},
	{"中际旭创", "300308", "5G/通信"},
	{"新易盛", "300502", "5G/通信"},
	{"天孚通信", "300394", "5G/通信"},

	{"深信服", "300454", "网络安全"},
	{"启明星辰", "002439", "网络安全"},
	{"奇安信", "688561", "网络安全"},
	{"安恒信息", "688023", "网络安全"},

	{"立讯精密", "002475", "消费电子"},
	{"歌尔股份", "002241", "消费电子"},
	{"京东方A", "000725", "消费电子"},
	{"TCL科技", "000100", "消费电子"},
}

// SubsectorRanking is one scored tech subsector.
type SubsectorRanking struct {
	Rank        int      `json:"rank"`
	Subsector   string   `json:"subsector"`
	Score       float64  `json:"score"`
	Frequency   int      `json:"frequency"`
	Coverage    int      `json:"coverage"`
	Sentiment   float64  `json:"sentiment"`
	Keywords    []string `json:"keywords"`
	Stocks      []string `json:"stocks"`
	KeyContexts []string `json:"key_contexts"`
}

// SubsectorResult is the tech deep-dive output.
type SubsectorResult struct {
	TotalSubsectors int                `json:"total_subsectors"`
	TotalReports    int                `json:"total_reports"`
	Rankings        []SubsectorRanking `json:"subsector_rankings"`
	Summary         string             `json:"summary"`
}

type subsectorStats struct {
	count    int
	docs     []string
	contexts []string
	keywords []string
	stocks   []string
	seenKw   map[string]bool
	seenStk  map[string]bool
}

// AnalyzeTechSubsectors runs the finer-grained tech pass over the documents.
// Sentiment here comes from keyword context windows, not whole documents.
func (a *Analyzer) AnalyzeTechSubsectors(docs []extractor.Document) *SubsectorResult {
	data := make(map[string]*subsectorStats)
	stats := func(name string) *subsectorStats {
		s := data[name]
		if s == nil {
			s = &subsectorStats{seenKw: make(map[string]bool), seenStk: make(map[string]bool)}
			data[name] = s
		}
		return s
	}

	for _, doc := range docs {
		content := doc.Content

		for _, subsector := range techSubsectors {
			for _, keyword := range subsector.Keywords {
				if !strings.Contains(content, keyword) {
					continue
				}
				s := stats(subsector.Name)
				s.count += strings.Count(content, keyword)
				s.docs = append(s.docs, doc.Name)
				if !s.seenKw[keyword] {
					s.seenKw[keyword] = true
					s.keywords = append(s.keywords, keyword)
				}
				// 每个关键词在每份报告里最多取3段上下文，全部参与情感计算
				s.contexts = append(s.contexts, contextWindows(content, keyword, 100, 3)...)
			}
		}

		for _, company := range techCompanies {
			if !strings.Contains(content, company.Name) && !strings.Contains(content, company.Code) {
				continue
			}
			s := stats(company.Subsector)
			label := fmt.Sprintf("%s(%s)", company.Name, company.Code)
			if !s.seenStk[label] {
				s.seenStk[label] = true
				s.stocks = append(s.stocks, label)
			}
		}
	}

	maxCount := 1
	for _, s := range data {
		if s.count > maxCount {
			maxCount = s.count
		}
	}
	totalDocs := len(docs)

	var rankings []SubsectorRanking
	for _, subsector := range techSubsectors {
		s, ok := data[subsector.Name]
		if !ok || s.count == 0 {
			continue
		}

		avgSentiment := 0.0
		if len(s.contexts) > 0 {
			total := 0.0
			for _, ctx := range s.contexts {
				total += TechSentiment(ctx)
			}
			avgSentiment = total / float64(len(s.contexts))
		}

		coverage := uniqueCount(s.docs)
		score := float64(s.count)/float64(maxCount)*40 +
			float64(coverage)/float64(totalDocs)*30 +
			(avgSentiment+1)/2*30

		// 展示只留前3段，打分用全量
		keyContexts := s.contexts
		if len(keyContexts) > 3 {
			keyContexts = keyContexts[:3]
		}

		rankings = append(rankings, SubsectorRanking{
			Subsector:   subsector.Name,
			Score:       round2(score),
			Frequency:   s.count,
			Coverage:    coverage,
			Sentiment:   round2(avgSentiment),
			Keywords:    s.keywords,
			Stocks:      s.stocks,
			KeyContexts: keyContexts,
		})
	}

	sort.SliceStable(rankings, func(i, j int) bool {
		return rankings[i].Score > rankings[j].Score
	})
	for i := range rankings {
		rankings[i].Rank = i + 1
	}

	a.logger.Infow("tech subsector analysis complete",
		"reports", totalDocs, "subsectors", len(rankings))

	return &SubsectorResult{
		TotalSubsectors: len(rankings),
		TotalReports:    totalDocs,
		Rankings:        rankings,
		Summary:         subsectorSummary(rankings),
	}
}

func subsectorSummary(rankings []SubsectorRanking) string {
	if len(rankings) == 0 {
		return "未识别到科技细分领域"
	}
	top := rankings
	if len(top) > 3 {
		top = top[:3]
	}
	names := make([]string, 0, len(top))
	for _, r := range top {
		names = append(names, r.Subsector)
	}
	return fmt.Sprintf("科技板块最热门的三大细分领域：%s", strings.Join(names, ", "))
}
