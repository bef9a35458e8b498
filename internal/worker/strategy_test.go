package worker

import (
	"context"
	"fmt"
	"testing"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/content_pilot/internal/biz"
	"github.com/iWorld-y/content_pilot/internal/llm"
	"github.com/iWorld-y/content_pilot/internal/research"
)

func testSerp() *research.SerpData {
	return &research.SerpData{
		Organic: []research.SerpResult{
			{Title: "Guide A", Snippet: "snippet a", URL: "https://a.example.com", Rank: 1},
			{Title: "Guide B", Snippet: "snippet b", URL: "https://b.example.com", Rank: 2},
			{Title: "Guide C", Snippet: "snippet c", URL: "https://c.example.com", Rank: 3},
			{Title: "Guide D", Snippet: "snippet d", URL: "https://d.example.com", Rank: 4},
		},
		PeopleAlsoAsk: []research.PAAQuestion{{Question: "How to store coffee beans?"}},
	}
}

func TestStrategyHandler_Handle(t *testing.T) {
	flow := &fakeFlow{draft: &biz.Draft{ID: "d1", Status: biz.StatusResearching}}
	provider := &fakeResearch{serp: testSerp()}
	scraper := &fakeScraper{headings: map[string][]string{
		"https://a.example.com": {"What Are Coffee Beans", "Roast Levels"},
	}}
	// 模型回显的标题列表可能是幻觉，落库的必须来自抓取结果
	analyzer := &fakeLLM{gap: &llm.GapAnalysis{
		TargetFormat:         "Listicle",
		InformationGainAngle: "freshness testing at home",
		CompetitorHeadings:   []string{"Hallucinated Heading"},
		RecommendedApproach:  "lead with freshness",
	}}
	h := NewStrategyHandler(flow, provider, scraper, analyzer, log.DefaultLogger)

	job := testJob(t, &biz.StrategyJobPayload{DraftID: "d1", Keyword: "best coffee beans"})
	require.NoError(t, h.Handle(context.Background(), job))

	assert.Equal(t, biz.StatusOutlinePending, flow.draft.Status)
	require.NotNil(t, flow.draft.Strategy)
	assert.Equal(t, "Listicle", flow.draft.Strategy.TargetFormat)
	assert.Equal(t, "freshness testing at home", flow.draft.Strategy.InformationGainAngle)
	assert.Equal(t, []string{"What Are Coffee Beans", "Roast Levels"}, flow.draft.Strategy.CompetitorHeadings)
	require.NotNil(t, flow.draft.Strategy.SerpData)
	assert.Len(t, flow.draft.Strategy.SerpData.Organic, 4)

	// 只有前三名竞品进入差距分析
	require.Len(t, analyzer.competitors, 3)
	assert.Equal(t, []string{"What Are Coffee Beans", "Roast Levels"}, analyzer.competitors[0].Headings)
	assert.Empty(t, analyzer.competitors[1].Headings)
}

func TestStrategyHandler_SkipsWhenStagePassed(t *testing.T) {
	flow := &fakeFlow{draft: &biz.Draft{ID: "d1", Status: biz.StatusOutlinePending}}
	provider := &fakeResearch{err: fmt.Errorf("should not be called")}
	h := NewStrategyHandler(flow, provider, &fakeScraper{}, &fakeLLM{}, log.DefaultLogger)

	job := testJob(t, &biz.StrategyJobPayload{DraftID: "d1", Keyword: "best coffee beans"})
	require.NoError(t, h.Handle(context.Background(), job))

	// 重复任务直接完成，状态不回退
	assert.Equal(t, biz.StatusOutlinePending, flow.draft.Status)
	assert.Nil(t, flow.draft.Strategy)
}

func TestStrategyHandler_ResearchFailureRetries(t *testing.T) {
	flow := &fakeFlow{draft: &biz.Draft{ID: "d1", Status: biz.StatusResearching}}
	provider := &fakeResearch{err: fmt.Errorf("dataforseo unavailable")}
	h := NewStrategyHandler(flow, provider, &fakeScraper{}, &fakeLLM{}, log.DefaultLogger)

	job := testJob(t, &biz.StrategyJobPayload{DraftID: "d1", Keyword: "best coffee beans"})
	err := h.Handle(context.Background(), job)
	require.Error(t, err)

	// 失败任务留在 ANALYZING，等待重试
	assert.Equal(t, biz.StatusAnalyzing, flow.draft.Status)
	assert.Nil(t, flow.draft.Strategy)
}

func TestStrategyHandler_InvalidPayload(t *testing.T) {
	flow := &fakeFlow{draft: &biz.Draft{ID: "d1", Status: biz.StatusResearching}}
	h := NewStrategyHandler(flow, &fakeResearch{}, &fakeScraper{}, &fakeLLM{}, log.DefaultLogger)

	job := testJob(t, &biz.StrategyJobPayload{DraftID: "", Keyword: ""})
	assert.Error(t, h.Handle(context.Background(), job))
}
