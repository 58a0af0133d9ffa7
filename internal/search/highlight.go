package search

import "strings"

// Span 高亮片段，Match为真表示该段命中查询词
type Span struct {
	Text  string `json:"text"`
	Match bool   `json:"match"`
}

// Highlight 将文本按查询词命中情况切分为连续片段。
// 多个词的命中区间允许重叠，相邻同类片段会被合并
func Highlight(text, query string) []Span {
	terms := splitTerms(query)
	if text == "" {
		return nil
	}
	if len(terms) == 0 {
		return []Span{{Text: text}}
	}

	runes := []rune(text)
	lower := []rune(strings.ToLower(text))
	marked := make([]bool, len(runes))

	for _, term := range terms {
		termRunes := []rune(term)
		if len(termRunes) == 0 || len(termRunes) > len(lower) {
			continue
		}
		for i := 0; i+len(termRunes) <= len(lower); i++ {
			if string(lower[i:i+len(termRunes)]) == term {
				for j := i; j < i+len(termRunes); j++ {
					marked[j] = true
				}
			}
		}
	}

	var spans []Span
	start := 0
	for i := 1; i <= len(runes); i++ {
		if i == len(runes) || marked[i] != marked[start] {
			spans = append(spans, Span{
				Text:  string(runes[start:i]),
				Match: marked[start],
			})
			start = i
		}
	}
	return spans
}
