package service

import (
	"context"
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/content_pilot/internal/biz"
)

// CreateDraftReq 创建草稿请求
type CreateDraftReq struct {
	KeywordID string `json:"keywordId"`
}

// UpdateOutlineReq 编辑大纲请求
type UpdateOutlineReq struct {
	Outline *biz.Outline `json:"outline"`
}

// DraftReply 草稿 DTO
type DraftReply struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Content   string          `json:"content,omitempty"`
	Status    string          `json:"status"`
	Keyword   *KeywordReply   `json:"primaryKeyword,omitempty"`
	Strategy  *biz.Strategy   `json:"strategy,omitempty"`
	Outline   *biz.Outline    `json:"outline,omitempty"`
	SeoScore  *biz.SeoScore   `json:"seoScore,omitempty"`
	Sections  []*SectionReply `json:"sections,omitempty"`
	CreatedAt string          `json:"createdAt"`
	UpdatedAt string          `json:"updatedAt"`
}

// SectionReply 章节 DTO
type SectionReply struct {
	ID      string `json:"id"`
	Heading string `json:"heading"`
	Content string `json:"content"`
	Order   int    `json:"order"`
	Type    string `json:"type"`
}

// ListDraftsReply 草稿列表响应
type ListDraftsReply struct {
	Drafts []*DraftReply `json:"drafts"`
}

// DraftService 草稿 API
type DraftService struct {
	uc  *biz.DraftUseCase
	log *log.Helper
}

func NewDraftService(uc *biz.DraftUseCase, logger log.Logger) *DraftService {
	return &DraftService{uc: uc, log: log.NewHelper(logger)}
}

// Create 创建草稿并启动流水线
func (s *DraftService) Create(ctx context.Context, req *CreateDraftReq) (*DraftReply, error) {
	draft, err := s.uc.CreateDraft(ctx, req.KeywordID)
	if err != nil {
		return nil, err
	}
	return toDraftReply(draft), nil
}

// Get 查询草稿详情
func (s *DraftService) Get(ctx context.Context, id string) (*DraftReply, error) {
	draft, err := s.uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toDraftReply(draft), nil
}

// List 列出全部草稿
func (s *DraftService) List(ctx context.Context) (*ListDraftsReply, error) {
	drafts, err := s.uc.List(ctx)
	if err != nil {
		return nil, err
	}
	list := make([]*DraftReply, 0, len(drafts))
	for _, d := range drafts {
		list = append(list, toDraftReply(d))
	}
	return &ListDraftsReply{Drafts: list}, nil
}

// UpdateOutline 人工编辑大纲
func (s *DraftService) UpdateOutline(ctx context.Context, id string, req *UpdateOutlineReq) (*DraftReply, error) {
	draft, err := s.uc.UpdateOutline(ctx, id, req.Outline)
	if err != nil {
		return nil, err
	}
	return toDraftReply(draft), nil
}

// ApproveOutline 批准大纲，触发内容生成
func (s *DraftService) ApproveOutline(ctx context.Context, id string) (*DraftReply, error) {
	draft, err := s.uc.ApproveOutline(ctx, id)
	if err != nil {
		return nil, err
	}
	return toDraftReply(draft), nil
}

// Export 导出最终文稿
func (s *DraftService) Export(ctx context.Context, id string) (*biz.ExportResult, error) {
	return s.uc.Export(ctx, id)
}

func toDraftReply(d *biz.Draft) *DraftReply {
	reply := &DraftReply{
		ID:        d.ID,
		Title:     d.Title,
		Content:   d.Content,
		Status:    string(d.Status),
		Strategy:  d.Strategy,
		Outline:   d.Outline,
		SeoScore:  d.SeoScore,
		CreatedAt: d.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: d.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if d.Keyword != nil {
		reply.Keyword = toKeywordReply(d.Keyword)
	}
	for _, sec := range d.Sections {
		reply.Sections = append(reply.Sections, &SectionReply{
			ID:      sec.ID,
			Heading: sec.Heading,
			Content: sec.Content,
			Order:   sec.Order,
			Type:    string(sec.Type),
		})
	}
	return reply
}
