package biz

import (
	"math"
	"strings"
)

// CalculateSeoScore 对编排后的 markdown 文档做 SEO 评分。
// 纯函数，异常输入退化为零值评分。
func CalculateSeoScore(content, primaryKeyword string) *SeoScore {
	score := &SeoScore{}
	if strings.TrimSpace(content) == "" || strings.TrimSpace(primaryKeyword) == "" {
		return score
	}

	keyword := strings.ToLower(primaryKeyword)
	lines := strings.Split(content, "\n")

	h1Seen := false
	firstParagraphSeen := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		switch {
		case strings.HasPrefix(trimmed, "# "):
			if !h1Seen {
				h1Seen = true
				score.KeywordInH1 = strings.Contains(strings.ToLower(trimmed), keyword)
			}
		case strings.HasPrefix(trimmed, "## "):
			if strings.Contains(strings.ToLower(trimmed), keyword) {
				score.KeywordInH2 = true
			}
		case strings.HasPrefix(trimmed, "#"), strings.HasPrefix(trimmed, "- "), strings.HasPrefix(trimmed, "* "):
			// 其余标题与列表行不计入首段判定
		default:
			if !firstParagraphSeen {
				firstParagraphSeen = true
				score.KeywordInFirstParagraph = strings.Contains(strings.ToLower(trimmed), keyword)
			}
		}
	}

	plain := plainText(content)
	words := strings.Fields(plain)
	score.WordCount = len(words)

	if score.WordCount > 0 {
		occurrences := strings.Count(strings.ToLower(plain), keyword)
		density := float64(occurrences) / float64(score.WordCount) * 100
		score.EntityDensity = math.Round(density*100) / 100
	}

	return score
}

// plainText 去掉标题标记与强调符号，得到可计数的纯文本
func plainText(markdown string) string {
	var sb strings.Builder
	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimLeft(strings.TrimSpace(line), "#")
		trimmed = strings.TrimSpace(trimmed)
		sb.WriteString(trimmed)
		sb.WriteString("\n")
	}
	out := sb.String()
	out = strings.ReplaceAll(out, "**", "")
	out = strings.ReplaceAll(out, "*", "")
	return out
}
