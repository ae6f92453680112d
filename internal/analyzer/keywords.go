package analyzer

// SectorKeywords binds a sector to its trigger keywords. Order matters twice:
// ranking ties resolve by list position, and per document only the first
// matching keyword contributes frequency.
type SectorKeywords struct {
	Name     string
	Keywords []string
}

// Sectors is the built-in A-share sector dictionary.
var Sectors = []SectorKeywords{
	{"医药", []string{"医药", "生物", "CXO", "创新药", "药明", "凯莱英", "康龙", "泰格"}},
	{"新能源", []string{"新能源", "光伏", "锂电", "储能", "电池", "宁德", "比亚迪", "阳光电源", "变压器", "特高压"}},
	{"消费", []string{"消费", "零售", "即时零售", "美团", "饿了么", "电商", "食品饮料"}},
	{"科技", []string{"科技", "半导体", "芯片", "AI", "人工智能", "云计算", "软件"}},
	{"金融", []string{"金融", "银行", "保险", "证券", "券商"}},
	{"地产", []string{"地产", "房地产", "建筑"}},
	{"周期", []string{"周期", "钢铁", "煤炭", "化工", "有色"}},
	{"军工", []string{"军工", "国防"}},
	{"汽车", []string{"汽车", "新能源车", "智能驾驶"}},
	{"TMT", []string{"TMT", "传媒", "互联网", "游戏"}},
}

// positiveWords and negativeWords drive the lexicon sentiment score.
var positiveWords = []string{
	"看好", "推荐", "买入", "增持", "超配", "配置", "机会", "上涨", "强势",
	"突破", "反弹", "底部", "低估", "优质", "龙头", "核心", "重点", "持续",
	"受益", "景气", "高增长", "确定性", "可期", "积极", "超预期",
}

var negativeWords = []string{
	"回调", "下跌", "风险", "谨慎", "减持", "卖出", "弱势", "压力",
	"高估", "泡沫", "恐慌", "警惕", "避免", "下行", "疲软",
}

// techPositiveWords extends the base lexicon for the tech subsector pass.
var techPositiveWords = append(append([]string{}, positiveWords...),
	"加速", "领先", "创新",
)

var techNegativeWords = append(append([]string{}, negativeWords...),
	"放缓",
)

// logicKeywords mark sentences worth keeping as investment reasoning.
var logicKeywords = []string{
	"逻辑", "原因", "因为", "由于", "驱动", "催化剂", "支撑",
	"基本面", "估值", "业绩", "增长", "盈利", "政策", "预期",
}
