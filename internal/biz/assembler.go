package biz

import (
	"sort"
	"strings"
)

// AssembleContent 将章节编排为最终文档。
// 纯函数：按 order 升序排序后用空行拼接，引言前缀其标题（即大纲标题）
// 作为一级标题；其余章节自带标题标记，原样拼接。
func AssembleContent(sections []*Section) string {
	if len(sections) == 0 {
		return ""
	}

	sorted := make([]*Section, len(sections))
	copy(sorted, sections)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Order < sorted[j].Order
	})

	parts := make([]string, 0, len(sorted))
	for _, s := range sorted {
		if s.Type == SectionIntroduction {
			parts = append(parts, "# "+s.Heading+"\n\n"+s.Content)
			continue
		}
		parts = append(parts, s.Content)
	}

	return strings.Join(parts, "\n\n")
}
