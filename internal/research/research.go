package research

import "context"

// Provider 定义关键词研究数据源接口
type Provider interface {
	// SearchResults 获取关键词的搜索结果页数据（自然结果、PAA、相关搜索）
	SearchResults(ctx context.Context, keyword string) (*SerpData, error)
	// KeywordSuggestions 获取种子关键词的扩展建议
	KeywordSuggestions(ctx context.Context, seedKeyword string) ([]Suggestion, error)
}

// SerpData 一次搜索结果页快照
type SerpData struct {
	Organic         []SerpResult  `json:"organic"`
	PeopleAlsoAsk   []PAAQuestion `json:"peopleAlsoAsk"`
	RelatedSearches []string      `json:"relatedSearches"`
}

// SerpResult 单条自然搜索结果
type SerpResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Rank    int    `json:"rank"`
}

// PAAQuestion "People Also Ask" 问题
type PAAQuestion struct {
	Question string `json:"question"`
	Snippet  string `json:"snippet"`
	Title    string `json:"title"`
	URL      string `json:"url"`
}

// Suggestion 关键词建议，附带商业价值指标
type Suggestion struct {
	Keyword      string         `json:"keyword"`
	Difficulty   int            `json:"difficulty"`
	SearchVolume int            `json:"searchVolume"`
	CPC          float64        `json:"cpc"`
	Competition  string         `json:"competition"`
	Metadata     map[string]any `json:"metadata"`
	// KCV = search_volume * cpc / (competition_index + 1)
	KCV float64 `json:"kcv"`
}
