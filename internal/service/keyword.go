package service

import (
	"context"
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/content_pilot/internal/biz"
)

// SuggestKeywordsReq 关键词建议请求
type SuggestKeywordsReq struct {
	SeedKeyword string `json:"seedKeyword"`
}

// SuggestKeywordsReply 关键词建议响应
type SuggestKeywordsReply struct {
	Keywords []*KeywordReply `json:"keywords"`
}

// KeywordReply 关键词 DTO
type KeywordReply struct {
	ID              string  `json:"id"`
	Keyword         string  `json:"keyword"`
	Difficulty      int     `json:"difficulty"`
	DifficultyLevel string  `json:"difficultyLevel"`
	SearchVolume    int     `json:"searchVolume"`
	KCV             float64 `json:"kcv"`
	CreatedAt       string  `json:"createdAt"`
}

// KeywordService 关键词 API
type KeywordService struct {
	uc  *biz.KeywordUseCase
	log *log.Helper
}

func NewKeywordService(uc *biz.KeywordUseCase, logger log.Logger) *KeywordService {
	return &KeywordService{uc: uc, log: log.NewHelper(logger)}
}

// Suggest 以种子关键词拉取建议并持久化
func (s *KeywordService) Suggest(ctx context.Context, req *SuggestKeywordsReq) (*SuggestKeywordsReply, error) {
	keywords, err := s.uc.Suggest(ctx, req.SeedKeyword)
	if err != nil {
		return nil, err
	}

	list := make([]*KeywordReply, 0, len(keywords))
	for _, kw := range keywords {
		list = append(list, toKeywordReply(kw))
	}
	return &SuggestKeywordsReply{Keywords: list}, nil
}

// Get 按 ID 查询关键词
func (s *KeywordService) Get(ctx context.Context, id string) (*KeywordReply, error) {
	kw, err := s.uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toKeywordReply(kw), nil
}

func toKeywordReply(kw *biz.Keyword) *KeywordReply {
	return &KeywordReply{
		ID:              kw.ID,
		Keyword:         kw.Keyword,
		Difficulty:      kw.Difficulty,
		DifficultyLevel: string(kw.DifficultyLevel),
		SearchVolume:    kw.SearchVolume,
		KCV:             kw.KCV,
		CreatedAt:       kw.CreatedAt.UTC().Format(time.RFC3339),
	}
}
