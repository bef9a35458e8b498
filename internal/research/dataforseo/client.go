package dataforseo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/iWorld-y/content_pilot/internal/conf"
	"github.com/iWorld-y/content_pilot/internal/logger"
	"github.com/iWorld-y/content_pilot/internal/research"
)

// Client DataForSEO API 客户端
type Client struct {
	baseURL      string
	authToken    string
	locationCode int
	languageCode string
	client       *http.Client
}

// NewClient 创建一个新的 DataForSEO 客户端
func NewClient(cfg conf.ResearchConfig) *Client {
	return &Client{
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		authToken:    cfg.AuthToken,
		locationCode: cfg.LocationCode,
		languageCode: cfg.LanguageCode,
		client:       http.DefaultClient,
	}
}

// Ensure Client implements research.Provider
var _ research.Provider = (*Client)(nil)

// task 请求参数，所有接口共用
type task struct {
	Keyword      string   `json:"keyword,omitempty"`
	Keywords     []string `json:"keywords,omitempty"`
	LocationCode int      `json:"location_code"`
	LanguageCode string   `json:"language_code"`
	Limit        int      `json:"limit,omitempty"`
}

// apiResponse DataForSEO 通用响应包装
type apiResponse struct {
	Tasks []struct {
		Result []json.RawMessage `json:"result"`
	} `json:"tasks"`
}

// SearchResults implements research.Provider
func (c *Client) SearchResults(ctx context.Context, keyword string) (*research.SerpData, error) {
	raw, err := c.post(ctx, "/serp/google/organic/live/regular", []task{{
		Keyword:      keyword,
		LocationCode: c.locationCode,
		LanguageCode: c.languageCode,
	}})
	if err != nil {
		return nil, fmt.Errorf("fetch serp data failed: %w", err)
	}

	// 空结果不是错误，返回空的快照
	empty := &research.SerpData{
		Organic:         []research.SerpResult{},
		PeopleAlsoAsk:   []research.PAAQuestion{},
		RelatedSearches: []string{},
	}
	if len(raw) == 0 {
		logger.Log.Warnf("关键词 [%s] 无 SERP 结果", keyword)
		return empty, nil
	}

	var result struct {
		Items []serpItem `json:"items"`
	}
	if err := json.Unmarshal(raw[0], &result); err != nil {
		return nil, fmt.Errorf("unmarshal serp result failed: %w", err)
	}

	data := empty
	for _, item := range result.Items {
		switch item.Type {
		case "organic":
			rank := item.RankAbsolute
			if rank == 0 {
				rank = item.RankGroup
			}
			data.Organic = append(data.Organic, research.SerpResult{
				Title:   item.Title,
				URL:     item.URL,
				Snippet: item.Description,
				Rank:    rank,
			})
		case "people_also_ask":
			for _, sub := range item.Items {
				q := sub.Question
				if q == "" {
					q = sub.Title
				}
				data.PeopleAlsoAsk = append(data.PeopleAlsoAsk, research.PAAQuestion{
					Question: q,
					Snippet:  sub.Description,
					Title:    sub.Title,
					URL:      sub.URL,
				})
			}
		case "related_searches":
			for _, sub := range item.Items {
				text := sub.Text
				if text == "" {
					text = sub.Query
				}
				if text != "" {
					data.RelatedSearches = append(data.RelatedSearches, text)
				}
			}
		}
	}

	logger.Log.Infof("关键词 [%s] SERP 抓取完成: %d 条自然结果, %d 条 PAA, %d 条相关搜索",
		keyword, len(data.Organic), len(data.PeopleAlsoAsk), len(data.RelatedSearches))
	return data, nil
}

// KeywordSuggestions implements research.Provider
func (c *Client) KeywordSuggestions(ctx context.Context, seedKeyword string) ([]research.Suggestion, error) {
	raw, err := c.post(ctx, "/keywords_data/google_ads/keywords_for_keywords/live", []task{{
		Keywords:     []string{seedKeyword},
		LocationCode: c.locationCode,
		LanguageCode: c.languageCode,
		Limit:        50,
	}})
	if err != nil {
		return nil, fmt.Errorf("fetch keyword suggestions failed: %w", err)
	}
	if len(raw) == 0 {
		logger.Log.Warnf("种子关键词 [%s] 无扩展建议", seedKeyword)
		return []research.Suggestion{}, nil
	}

	var items []keywordItem
	for _, r := range raw {
		var item keywordItem
		if err := json.Unmarshal(r, &item); err != nil {
			continue
		}
		items = append(items, item)
	}

	suggestions := make([]research.Suggestion, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item.Keyword) == "" {
			continue
		}
		kcv := float64(item.SearchVolume) * item.CPC / float64(item.CompetitionIndex+1)
		competition := item.Competition
		if competition == "" {
			competition = "LOW"
		}
		suggestions = append(suggestions, research.Suggestion{
			Keyword:      item.Keyword,
			Difficulty:   item.CompetitionIndex,
			SearchVolume: item.SearchVolume,
			CPC:          item.CPC,
			Competition:  competition,
			Metadata: map[string]any{
				"keyword":           item.Keyword,
				"location_code":     item.LocationCode,
				"language_code":     item.LanguageCode,
				"competition":       competition,
				"competition_index": item.CompetitionIndex,
				"search_volume":     item.SearchVolume,
				"cpc":               item.CPC,
				"monthly_searches":  item.MonthlySearches,
			},
			KCV: kcv,
		})
	}

	// 按 KCV 降序取前 10
	sort.Slice(suggestions, func(i, j int) bool {
		return suggestions[i].KCV > suggestions[j].KCV
	})
	if len(suggestions) > 10 {
		suggestions = suggestions[:10]
	}

	logger.Log.Infof("种子关键词 [%s] 获得 %d 条建议", seedKeyword, len(suggestions))
	return suggestions, nil
}

// serpItem SERP 响应中的单个条目
type serpItem struct {
	Type         string `json:"type"`
	Title        string `json:"title"`
	URL          string `json:"url"`
	Description  string `json:"description"`
	RankGroup    int    `json:"rank_group"`
	RankAbsolute int    `json:"rank_absolute"`
	Items        []struct {
		Question    string `json:"question"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		Text        string `json:"text"`
		Query       string `json:"query"`
	} `json:"items"`
}

// keywordItem keywords_for_keywords 响应中的单个条目
type keywordItem struct {
	Keyword          string  `json:"keyword"`
	LocationCode     int     `json:"location_code"`
	LanguageCode     string  `json:"language_code"`
	Competition      string  `json:"competition"`
	CompetitionIndex int     `json:"competition_index"`
	SearchVolume     int     `json:"search_volume"`
	CPC              float64 `json:"cpc"`
	MonthlySearches  []struct {
		Year         int `json:"year"`
		Month        int `json:"month"`
		SearchVolume int `json:"search_volume"`
	} `json:"monthly_searches"`
}

// post 执行请求 (Internal)
func (c *Client) post(ctx context.Context, path string, payload any) ([]json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request failed: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	httpReq.Header.Add("Authorization", "Basic "+c.authToken)
	httpReq.Header.Add("Content-Type", "application/json")

	res, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	respBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read body failed: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dataforseo api error (status %d): %s", res.StatusCode, string(respBody))
	}

	var resp apiResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response failed: %w", err)
	}
	if len(resp.Tasks) == 0 {
		return nil, nil
	}
	return resp.Tasks[0].Result, nil
}
