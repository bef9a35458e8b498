package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/iWorld-y/content_pilot/internal/biz"
	"github.com/iWorld-y/content_pilot/internal/data"
	"github.com/iWorld-y/content_pilot/internal/llm"
	"github.com/iWorld-y/content_pilot/internal/research"
)

// fakeFlow 内存草稿流，记录各阶段写入
type fakeFlow struct {
	draft    *biz.Draft
	sections []*biz.Section
	score    *biz.SeoScore
}

func (f *fakeFlow) Get(ctx context.Context, id string) (*biz.Draft, error) {
	if f.draft == nil || f.draft.ID != id {
		return nil, fmt.Errorf("draft %s not found", id)
	}
	return f.draft, nil
}

func (f *fakeFlow) StartStrategy(ctx context.Context, id string) (bool, error) {
	switch f.draft.Status {
	case biz.StatusResearching, biz.StatusAnalyzing:
		f.draft.Status = biz.StatusAnalyzing
		return true, nil
	}
	return false, nil
}

func (f *fakeFlow) SaveStrategy(ctx context.Context, id string, strategy *biz.Strategy) error {
	if strategy.TargetFormat == "" || strategy.InformationGainAngle == "" {
		return fmt.Errorf("strategy document is incomplete")
	}
	f.draft.Strategy = strategy
	f.draft.Status = biz.StatusOutlinePending
	return nil
}

func (f *fakeFlow) SaveOutline(ctx context.Context, id string, outline *biz.Outline) error {
	f.draft.Outline = outline
	return nil
}

func (f *fakeFlow) StartWriting(ctx context.Context, id string) (bool, error) {
	switch f.draft.Status {
	case biz.StatusOutlineApproved, biz.StatusWriting:
		f.draft.Status = biz.StatusWriting
		return true, nil
	}
	return false, nil
}

func (f *fakeFlow) AppendSection(ctx context.Context, draftID, heading, content string, order int, sectionType biz.SectionType) (*biz.Section, error) {
	section := &biz.Section{
		ID:      fmt.Sprintf("s-%d", order),
		DraftID: draftID,
		Heading: heading,
		Content: content,
		Order:   order,
		Type:    sectionType,
	}
	f.sections = append(f.sections, section)
	return section, nil
}

func (f *fakeFlow) Sections(ctx context.Context, draftID string) ([]*biz.Section, error) {
	return f.sections, nil
}

func (f *fakeFlow) CompleteDraft(ctx context.Context, id string, content string) error {
	f.draft.Content = content
	f.draft.Status = biz.StatusCompleted
	return nil
}

func (f *fakeFlow) SaveSeoScore(ctx context.Context, id string, score *biz.SeoScore) error {
	f.score = score
	return nil
}

// fakeResearch 固定返回的 SERP 数据源
type fakeResearch struct {
	serp *research.SerpData
	err  error
}

func (f *fakeResearch) SearchResults(ctx context.Context, keyword string) (*research.SerpData, error) {
	return f.serp, f.err
}

func (f *fakeResearch) KeywordSuggestions(ctx context.Context, seed string) ([]research.Suggestion, error) {
	return nil, nil
}

// fakeScraper 固定返回的标题抓取
type fakeScraper struct {
	headings map[string][]string
}

func (f *fakeScraper) Headings(ctx context.Context, urls []string) map[string][]string {
	out := make(map[string][]string, len(urls))
	for _, u := range urls {
		out[u] = f.headings[u]
	}
	return out
}

// fakeLLM 各阶段生成的桩实现
type fakeLLM struct {
	gap         *llm.GapAnalysis
	gapErr      error
	outline     *biz.Outline
	outlineErr  error
	sectionErr  error
	competitors []llm.CompetitorPage
	prevSeen    []string
}

func (f *fakeLLM) AnalyzeGap(ctx context.Context, keyword string, competitors []llm.CompetitorPage, paa []research.PAAQuestion) (*llm.GapAnalysis, error) {
	f.competitors = competitors
	return f.gap, f.gapErr
}

func (f *fakeLLM) GenerateOutline(ctx context.Context, keyword, targetFormat, angle string, paa []research.PAAQuestion) (*biz.Outline, error) {
	return f.outline, f.outlineErr
}

func (f *fakeLLM) GenerateIntroduction(ctx context.Context, keyword, title, angle string) (string, error) {
	return "intro for " + title, nil
}

func (f *fakeLLM) GenerateSection(ctx context.Context, articleTitle string, section biz.OutlineSection, prevSummary, angle string) (string, error) {
	if f.sectionErr != nil {
		return "", f.sectionErr
	}
	f.prevSeen = append(f.prevSeen, prevSummary)
	return "## " + section.Heading + "\n\nbody of " + section.Heading, nil
}

func (f *fakeLLM) GenerateConclusion(ctx context.Context, articleTitle, keyword, summary string) (string, error) {
	return "conclusion text", nil
}

func testJob(t *testing.T, payload any) *Job {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	return &Job{
		Job:   &data.Job{ID: "job-1", Payload: raw, Attempts: 1, MaxAttempts: 3},
		store: newFakeJobStore(),
	}
}
