package report

// Rating maps a composite score to its letter grade.
func Rating(score float64) string {
	switch {
	case score >= 90:
		return "A+"
	case score >= 80:
		return "A"
	case score >= 70:
		return "B+"
	case score >= 60:
		return "B"
	case score >= 50:
		return "C"
	default:
		return "D"
	}
}

// Suggestion turns a confidence level into the tactical advice column.
func Suggestion(confidenceLevel string) string {
	switch confidenceLevel {
	case "高":
		return "重点关注"
	case "中":
		return "适度配置"
	default:
		return "观望为主"
	}
}

// StockStars grades a stock by mentions and report coverage.
func StockStars(mentions, coverage int) string {
	score := mentions*2 + coverage*5
	switch {
	case score >= 20:
		return "⭐⭐⭐⭐⭐"
	case score >= 15:
		return "⭐⭐⭐⭐"
	case score >= 10:
		return "⭐⭐⭐"
	case score >= 5:
		return "⭐⭐"
	default:
		return "⭐"
	}
}

// SentimentLabel renders the mood column of the detail sections.
func SentimentLabel(sentiment float64) string {
	switch {
	case sentiment > 0.2:
		return "积极 📈"
	case sentiment > -0.1:
		return "中性 ➡️"
	default:
		return "谨慎 📉"
	}
}
