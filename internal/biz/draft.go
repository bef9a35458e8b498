package biz

import (
	"context"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"

	"github.com/iWorld-y/content_pilot/internal/research"
)

// 三条阶段队列及其任务名
const (
	QueueStrategy = "strategy"
	QueueOutline  = "outline"
	QueueContent  = "content"

	JobAnalyzeStrategy = "analyze-strategy"
	JobGenerateOutline = "generate-outline"
	JobGenerateContent = "generate-content"
)

// SectionType 章节类型
type SectionType string

const (
	SectionIntroduction SectionType = "introduction"
	SectionBody         SectionType = "section"
	SectionConclusion   SectionType = "conclusion"
)

// Draft 草稿实体，流水线的核心工作单元
type Draft struct {
	ID               string      `json:"id"`
	Title            string      `json:"title"`
	Content          string      `json:"content,omitempty"`
	Status           DraftStatus `json:"status"`
	PrimaryKeywordID string      `json:"primaryKeywordId"`
	Keyword          *Keyword    `json:"primaryKeyword,omitempty"`
	Strategy         *Strategy   `json:"strategy,omitempty"`
	Outline          *Outline    `json:"outline,omitempty"`
	SeoScore         *SeoScore   `json:"seoScore,omitempty"`
	Sections         []*Section  `json:"sections,omitempty"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}

// Section 单个生成章节，归属唯一草稿，按 order 排序。
// order 0 为引言，1..N 为正文章节，N+1 为结语。
type Section struct {
	ID        string      `json:"id"`
	DraftID   string      `json:"draftId"`
	Heading   string      `json:"heading"`
	Content   string      `json:"content"`
	Order     int         `json:"order"`
	Type      SectionType `json:"type"`
	CreatedAt time.Time   `json:"createdAt"`
}

// Strategy 策略分析文档
type Strategy struct {
	TargetFormat         string             `json:"targetFormat"`
	InformationGainAngle string             `json:"informationGainAngle"`
	CompetitorHeadings   []string           `json:"competitorHeadings"`
	RecommendedApproach  string             `json:"recommendedApproach,omitempty"`
	SerpData             *research.SerpData `json:"serpData,omitempty"`
}

// Outline 文章大纲
type Outline struct {
	Title    string           `json:"title"`
	Sections []OutlineSection `json:"sections"`
}

// OutlineSection 大纲中的单个章节规划
type OutlineSection struct {
	Heading           string   `json:"heading"`
	Intent            string   `json:"intent"`
	KeywordsToInclude []string `json:"keywordsToInclude"`
}

// SeoScore SEO 评分摘要
type SeoScore struct {
	KeywordInH1             bool    `json:"keywordInH1"`
	KeywordInFirstParagraph bool    `json:"keywordInFirstParagraph"`
	KeywordInH2             bool    `json:"keywordInH2"`
	EntityDensity           float64 `json:"entityDensity"`
	WordCount               int     `json:"wordCount"`
}

// ExportResult 导出结果
type ExportResult struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	Format     string `json:"format"`
	ExportedAt string `json:"exportedAt"`
}

// StrategyJobPayload strategy 队列任务载荷
type StrategyJobPayload struct {
	DraftID string `json:"draftId"`
	Keyword string `json:"keyword"`
}

// OutlineJobPayload outline 队列任务载荷
type OutlineJobPayload struct {
	DraftID  string    `json:"draftId"`
	Keyword  string    `json:"keyword"`
	Strategy *Strategy `json:"strategy"`
}

// ContentJobPayload content 队列任务载荷
type ContentJobPayload struct {
	DraftID  string    `json:"draftId"`
	Outline  *Outline  `json:"outline"`
	Strategy *Strategy `json:"strategy"`
}

// DraftRepo 草稿持久化接口
type DraftRepo interface {
	Create(ctx context.Context, draft *Draft) error
	// Get 返回草稿及其主关键词和全部章节；不存在时返回 NotFound
	Get(ctx context.Context, id string) (*Draft, error)
	// List 按创建时间倒序返回全部草稿（含主关键词，不含章节）
	List(ctx context.Context) ([]*Draft, error)
	// UpdateStatusFrom 仅当当前状态在 from 中时迁移到 to，返回是否命中。
	// 这是阶段去重的 CAS 保障：同一草稿同一阶段的重复任务只有一个能通过。
	UpdateStatusFrom(ctx context.Context, id string, from []DraftStatus, to DraftStatus) (bool, error)
	SaveStrategy(ctx context.Context, id string, strategy *Strategy, status DraftStatus) error
	SaveOutline(ctx context.Context, id string, outline *Outline) error
	SaveContent(ctx context.Context, id string, content string, status DraftStatus) error
	SaveSeoScore(ctx context.Context, id string, score *SeoScore) error
	AppendSection(ctx context.Context, section *Section) error
	ListSections(ctx context.Context, draftID string) ([]*Section, error)
}

// JobQueue 持久化任务队列接口
type JobQueue interface {
	Enqueue(ctx context.Context, queue, name string, payload any) error
}

// DraftUseCase 草稿业务逻辑：状态机迁移与各阶段任务的投递
type DraftUseCase struct {
	repo   DraftRepo
	kwRepo KeywordRepo
	queue  JobQueue
	log    *log.Helper
}

// NewDraftUseCase 创建草稿业务逻辑实例
func NewDraftUseCase(repo DraftRepo, kwRepo KeywordRepo, queue JobQueue, logger log.Logger) *DraftUseCase {
	return &DraftUseCase{repo: repo, kwRepo: kwRepo, queue: queue, log: log.NewHelper(logger)}
}

// CreateDraft 以选定关键词创建草稿并投递策略分析任务
func (uc *DraftUseCase) CreateDraft(ctx context.Context, keywordID string) (*Draft, error) {
	kw, err := uc.kwRepo.Get(ctx, keywordID)
	if err != nil {
		return nil, err
	}

	draft := &Draft{
		ID:               uuid.NewString(),
		Title:            kw.Keyword,
		Status:           StatusResearching,
		PrimaryKeywordID: kw.ID,
		Keyword:          kw,
	}
	if err := uc.repo.Create(ctx, draft); err != nil {
		return nil, err
	}

	if err := uc.queue.Enqueue(ctx, QueueStrategy, JobAnalyzeStrategy, &StrategyJobPayload{
		DraftID: draft.ID,
		Keyword: kw.Keyword,
	}); err != nil {
		return nil, err
	}

	uc.log.WithContext(ctx).Infof("created draft %s for keyword: %s", draft.ID, kw.Keyword)
	return draft, nil
}

// Get 获取草稿详情
func (uc *DraftUseCase) Get(ctx context.Context, id string) (*Draft, error) {
	return uc.repo.Get(ctx, id)
}

// List 列出全部草稿，最新在前
func (uc *DraftUseCase) List(ctx context.Context) ([]*Draft, error) {
	return uc.repo.List(ctx)
}

// UpdateOutline 覆盖草稿大纲（人工编辑入口）
func (uc *DraftUseCase) UpdateOutline(ctx context.Context, id string, outline *Outline) (*Draft, error) {
	if outline == nil || outline.Title == "" || len(outline.Sections) == 0 {
		return nil, errors.New(400, "OUTLINE_INVALID", "outline document is incomplete")
	}
	if _, err := uc.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := uc.repo.SaveOutline(ctx, id, outline); err != nil {
		return nil, err
	}
	return uc.repo.Get(ctx, id)
}

// ApproveOutline 批准大纲并投递内容生成任务。
// 大纲缺失或草稿不在待批准状态时返回 412。
func (uc *DraftUseCase) ApproveOutline(ctx context.Context, id string) (*Draft, error) {
	draft, err := uc.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if draft.Outline == nil {
		return nil, errors.New(412, "OUTLINE_MISSING", "draft has no outline to approve")
	}

	ok, err := uc.repo.UpdateStatusFrom(ctx, id, []DraftStatus{StatusOutlinePending}, StatusOutlineApproved)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New(412, "DRAFT_NOT_APPROVABLE", "draft is not awaiting outline approval")
	}

	if err := uc.queue.Enqueue(ctx, QueueContent, JobGenerateContent, &ContentJobPayload{
		DraftID:  id,
		Outline:  draft.Outline,
		Strategy: draft.Strategy,
	}); err != nil {
		return nil, err
	}

	uc.log.WithContext(ctx).Infof("outline approved for draft %s, content job enqueued", id)
	return uc.repo.Get(ctx, id)
}

// Export 导出已完成草稿的 markdown 内容
func (uc *DraftUseCase) Export(ctx context.Context, id string) (*ExportResult, error) {
	draft, err := uc.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if draft.Content == "" {
		return nil, errors.New(412, "CONTENT_MISSING", "draft content not available")
	}
	return &ExportResult{
		ID:         draft.ID,
		Title:      draft.Title,
		Content:    draft.Content,
		Format:     "markdown",
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// StartStrategy 策略阶段入口迁移 RESEARCHING -> ANALYZING。
// ANALYZING 也是合法起点，保证失败任务重试时 CAS 仍能通过。
func (uc *DraftUseCase) StartStrategy(ctx context.Context, id string) (bool, error) {
	return uc.repo.UpdateStatusFrom(ctx, id,
		[]DraftStatus{StatusResearching, StatusAnalyzing}, StatusAnalyzing)
}

// SaveStrategy 持久化策略文档、迁移到 OUTLINE_PENDING 并投递大纲任务
func (uc *DraftUseCase) SaveStrategy(ctx context.Context, id string, strategy *Strategy) error {
	if strategy == nil || strategy.TargetFormat == "" || strategy.InformationGainAngle == "" {
		return errors.New(400, "STRATEGY_INVALID", "strategy document is incomplete")
	}

	draft, err := uc.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := uc.repo.SaveStrategy(ctx, id, strategy, StatusOutlinePending); err != nil {
		return err
	}

	keyword := ""
	if draft.Keyword != nil {
		keyword = draft.Keyword.Keyword
	}
	if err := uc.queue.Enqueue(ctx, QueueOutline, JobGenerateOutline, &OutlineJobPayload{
		DraftID:  id,
		Keyword:  keyword,
		Strategy: strategy,
	}); err != nil {
		return err
	}

	uc.log.WithContext(ctx).Infof("strategy saved for draft %s, outline job enqueued", id)
	return nil
}

// SaveOutline 持久化生成的大纲，状态保持 OUTLINE_PENDING 等待人工批准
func (uc *DraftUseCase) SaveOutline(ctx context.Context, id string, outline *Outline) error {
	if outline == nil || outline.Title == "" || len(outline.Sections) == 0 {
		return errors.New(400, "OUTLINE_INVALID", "outline document is incomplete")
	}
	return uc.repo.SaveOutline(ctx, id, outline)
}

// StartWriting 内容阶段入口迁移 OUTLINE_APPROVED -> WRITING
func (uc *DraftUseCase) StartWriting(ctx context.Context, id string) (bool, error) {
	return uc.repo.UpdateStatusFrom(ctx, id,
		[]DraftStatus{StatusOutlineApproved, StatusWriting}, StatusWriting)
}

// AppendSection 追加一个生成章节
func (uc *DraftUseCase) AppendSection(ctx context.Context, draftID, heading, content string, order int, sectionType SectionType) (*Section, error) {
	section := &Section{
		ID:      uuid.NewString(),
		DraftID: draftID,
		Heading: heading,
		Content: content,
		Order:   order,
		Type:    sectionType,
	}
	if err := uc.repo.AppendSection(ctx, section); err != nil {
		return nil, err
	}
	return section, nil
}

// Sections 返回草稿全部章节，按 order 升序
func (uc *DraftUseCase) Sections(ctx context.Context, draftID string) ([]*Section, error) {
	return uc.repo.ListSections(ctx, draftID)
}

// CompleteDraft 持久化编排后的最终内容并迁移到 COMPLETED
func (uc *DraftUseCase) CompleteDraft(ctx context.Context, id string, content string) error {
	return uc.repo.SaveContent(ctx, id, content, StatusCompleted)
}

// SaveSeoScore 持久化 SEO 评分
func (uc *DraftUseCase) SaveSeoScore(ctx context.Context, id string, score *SeoScore) error {
	return uc.repo.SaveSeoScore(ctx, id, score)
}
