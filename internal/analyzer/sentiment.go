package analyzer

import "strings"

// sentimentWith scores text against a lexicon pair: (pos-neg)/(pos+neg) in
// [-1,1], where each word counts once by presence. No hit at all is exactly 0.
func sentimentWith(text string, positive, negative []string) float64 {
	var pos, neg int
	for _, word := range positive {
		if strings.Contains(text, word) {
			pos++
		}
	}
	for _, word := range negative {
		if strings.Contains(text, word) {
			neg++
		}
	}

	total := pos + neg
	if total == 0 {
		return 0
	}
	return float64(pos-neg) / float64(total)
}

// Sentiment scores text with the base lexicon.
func Sentiment(text string) float64 {
	return sentimentWith(text, positiveWords, negativeWords)
}

// TechSentiment scores text with the extended tech lexicon.
func TechSentiment(text string) float64 {
	return sentimentWith(text, techPositiveWords, techNegativeWords)
}
