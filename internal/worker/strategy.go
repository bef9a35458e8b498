package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/content_pilot/internal/biz"
	"github.com/iWorld-y/content_pilot/internal/llm"
	"github.com/iWorld-y/content_pilot/internal/research"
)

// competitorPages 策略阶段纳入差距分析的竞品数量上限
const competitorPages = 3

// DraftFlow 各阶段处理器对草稿业务逻辑的依赖
type DraftFlow interface {
	Get(ctx context.Context, id string) (*biz.Draft, error)
	StartStrategy(ctx context.Context, id string) (bool, error)
	SaveStrategy(ctx context.Context, id string, strategy *biz.Strategy) error
	SaveOutline(ctx context.Context, id string, outline *biz.Outline) error
	StartWriting(ctx context.Context, id string) (bool, error)
	AppendSection(ctx context.Context, draftID, heading, content string, order int, sectionType biz.SectionType) (*biz.Section, error)
	Sections(ctx context.Context, draftID string) ([]*biz.Section, error)
	CompleteDraft(ctx context.Context, id string, content string) error
	SaveSeoScore(ctx context.Context, id string, score *biz.SeoScore) error
}

// GapAnalyzer 策略阶段的 LLM 依赖
type GapAnalyzer interface {
	AnalyzeGap(ctx context.Context, keyword string, competitors []llm.CompetitorPage, paaQuestions []research.PAAQuestion) (*llm.GapAnalysis, error)
}

// HeadingFetcher 竞品页面标题抓取依赖
type HeadingFetcher interface {
	Headings(ctx context.Context, urls []string) map[string][]string
}

// StrategyHandler 策略阶段：SERP 研究 + 竞品抓取 + 差距分析
type StrategyHandler struct {
	flow     DraftFlow
	provider research.Provider
	scraper  HeadingFetcher
	analyzer GapAnalyzer
	log      *log.Helper
}

func NewStrategyHandler(flow DraftFlow, provider research.Provider, scraper HeadingFetcher, analyzer GapAnalyzer, logger log.Logger) *StrategyHandler {
	return &StrategyHandler{
		flow:     flow,
		provider: provider,
		scraper:  scraper,
		analyzer: analyzer,
		log:      log.NewHelper(logger),
	}
}

func (h *StrategyHandler) Handle(ctx context.Context, job *Job) error {
	var payload biz.StrategyJobPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("invalid strategy payload: %w", err)
	}
	if payload.DraftID == "" || payload.Keyword == "" {
		return fmt.Errorf("strategy payload missing draftId or keyword")
	}

	// 状态 CAS 作为去重关卡：重复投递的任务在这里直接完成
	ok, err := h.flow.StartStrategy(ctx, payload.DraftID)
	if err != nil {
		return err
	}
	if !ok {
		h.log.Infof("draft %s already past strategy stage, skipping", payload.DraftID)
		return nil
	}
	job.UpdateProgress(ctx, 10)

	serp, err := h.provider.SearchResults(ctx, payload.Keyword)
	if err != nil {
		return fmt.Errorf("serp research failed: %w", err)
	}
	job.UpdateProgress(ctx, 30)

	// 抓取前几名竞品的标题结构，单页失败不阻断流程
	var urls []string
	for i, r := range serp.Organic {
		if i >= competitorPages {
			break
		}
		urls = append(urls, r.URL)
	}
	headingsByURL := h.scraper.Headings(ctx, urls)
	job.UpdateProgress(ctx, 60)

	// 按竞品排名顺序拍平抓取到的标题，落库用这份抓取结果而非模型回显
	var competitors []llm.CompetitorPage
	var allHeadings []string
	for i, r := range serp.Organic {
		if i >= competitorPages {
			break
		}
		competitors = append(competitors, llm.CompetitorPage{
			Title:    r.Title,
			Snippet:  r.Snippet,
			URL:      r.URL,
			Headings: headingsByURL[r.URL],
		})
		allHeadings = append(allHeadings, headingsByURL[r.URL]...)
	}
	job.UpdateProgress(ctx, 70)

	gap, err := h.analyzer.AnalyzeGap(ctx, payload.Keyword, competitors, serp.PeopleAlsoAsk)
	if err != nil {
		return fmt.Errorf("gap analysis failed: %w", err)
	}
	job.UpdateProgress(ctx, 85)

	strategy := &biz.Strategy{
		TargetFormat:         gap.TargetFormat,
		InformationGainAngle: gap.InformationGainAngle,
		CompetitorHeadings:   allHeadings,
		RecommendedApproach:  gap.RecommendedApproach,
		SerpData:             serp,
	}
	if err := h.flow.SaveStrategy(ctx, payload.DraftID, strategy); err != nil {
		return fmt.Errorf("save strategy failed: %w", err)
	}
	job.UpdateProgress(ctx, 100)

	h.log.Infof("strategy stage done for draft %s", payload.DraftID)
	return nil
}
