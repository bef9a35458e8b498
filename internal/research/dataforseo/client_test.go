package dataforseo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/content_pilot/internal/conf"
	"github.com/iWorld-y/content_pilot/internal/logger"
)

func TestMain(m *testing.M) {
	_ = logger.InitLogger("error", "")
	os.Exit(m.Run())
}

func newTestClient(baseURL string) *Client {
	return NewClient(conf.ResearchConfig{
		BaseURL:      baseURL,
		AuthToken:    "dGVzdDp0ZXN0",
		LocationCode: 2840,
		LanguageCode: "en",
	})
}

const serpResponse = `{
	"tasks": [{
		"result": [{
			"items": [
				{"type": "organic", "title": "Guide A", "url": "https://a.example.com", "description": "snippet a", "rank_absolute": 1},
				{"type": "organic", "title": "Guide B", "url": "https://b.example.com", "description": "snippet b", "rank_group": 2},
				{"type": "people_also_ask", "items": [
					{"question": "How to store coffee beans?", "title": "Storage", "description": "keep airtight", "url": "https://paa.example.com"}
				]},
				{"type": "related_searches", "items": [
					{"text": "coffee bean grinder"},
					{"query": "fresh coffee beans"}
				]}
			]
		}]
	}]
}`

func TestClient_SearchResults(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(serpResponse))
	}))
	defer srv.Close()

	data, err := newTestClient(srv.URL).SearchResults(context.Background(), "best coffee beans")
	require.NoError(t, err)

	assert.Equal(t, "/serp/google/organic/live/regular", gotPath)
	assert.Equal(t, "Basic dGVzdDp0ZXN0", gotAuth)

	require.Len(t, data.Organic, 2)
	assert.Equal(t, "Guide A", data.Organic[0].Title)
	assert.Equal(t, 1, data.Organic[0].Rank)
	// rank_absolute 缺失时回退到 rank_group
	assert.Equal(t, 2, data.Organic[1].Rank)

	require.Len(t, data.PeopleAlsoAsk, 1)
	assert.Equal(t, "How to store coffee beans?", data.PeopleAlsoAsk[0].Question)

	assert.Equal(t, []string{"coffee bean grinder", "fresh coffee beans"}, data.RelatedSearches)
}

func TestClient_SearchResults_Empty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tasks": [{"result": []}]}`))
	}))
	defer srv.Close()

	data, err := newTestClient(srv.URL).SearchResults(context.Background(), "obscure keyword")
	require.NoError(t, err)
	assert.Empty(t, data.Organic)
	assert.Empty(t, data.PeopleAlsoAsk)
}

func TestClient_SearchResults_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).SearchResults(context.Background(), "best coffee beans")
	assert.Error(t, err)
}

const keywordsResponse = `{
	"tasks": [{
		"result": [
			{"keyword": "best coffee beans", "competition": "HIGH", "competition_index": 80, "search_volume": 10000, "cpc": 2.5},
			{"keyword": "coffee bean storage", "competition": "LOW", "competition_index": 10, "search_volume": 900, "cpc": 0.5},
			{"keyword": "", "competition_index": 5, "search_volume": 100}
		]
	}]
}`

func TestClient_KeywordSuggestions(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(keywordsResponse))
	}))
	defer srv.Close()

	suggestions, err := newTestClient(srv.URL).KeywordSuggestions(context.Background(), "coffee beans")
	require.NoError(t, err)

	assert.Equal(t, "/keywords_data/google_ads/keywords_for_keywords/live", gotPath)

	// 空关键词被过滤，结果按 KCV 降序
	require.Len(t, suggestions, 2)
	assert.Equal(t, "best coffee beans", suggestions[0].Keyword)
	assert.InDelta(t, 10000*2.5/81.0, suggestions[0].KCV, 0.001)
	assert.Equal(t, "coffee bean storage", suggestions[1].Keyword)
	assert.Equal(t, 10, suggestions[1].Difficulty)
}

func TestClient_KeywordSuggestions_TopTen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tasks": [{"result": [
			{"keyword": "k1", "competition_index": 1, "search_volume": 100, "cpc": 1},
			{"keyword": "k2", "competition_index": 1, "search_volume": 200, "cpc": 1},
			{"keyword": "k3", "competition_index": 1, "search_volume": 300, "cpc": 1},
			{"keyword": "k4", "competition_index": 1, "search_volume": 400, "cpc": 1},
			{"keyword": "k5", "competition_index": 1, "search_volume": 500, "cpc": 1},
			{"keyword": "k6", "competition_index": 1, "search_volume": 600, "cpc": 1},
			{"keyword": "k7", "competition_index": 1, "search_volume": 700, "cpc": 1},
			{"keyword": "k8", "competition_index": 1, "search_volume": 800, "cpc": 1},
			{"keyword": "k9", "competition_index": 1, "search_volume": 900, "cpc": 1},
			{"keyword": "k10", "competition_index": 1, "search_volume": 1000, "cpc": 1},
			{"keyword": "k11", "competition_index": 1, "search_volume": 1100, "cpc": 1}
		]}]}`))
	}))
	defer srv.Close()

	suggestions, err := newTestClient(srv.URL).KeywordSuggestions(context.Background(), "seed")
	require.NoError(t, err)

	require.Len(t, suggestions, 10)
	assert.Equal(t, "k11", suggestions[0].Keyword)
}
