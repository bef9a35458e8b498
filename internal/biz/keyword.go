package biz

import (
	"context"
	"strings"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"

	"github.com/iWorld-y/content_pilot/internal/research"
)

// DifficultyLevel 关键词难度档位
type DifficultyLevel string

const (
	DifficultyLow    DifficultyLevel = "LOW"
	DifficultyMedium DifficultyLevel = "MEDIUM"
	DifficultyHigh   DifficultyLevel = "HIGH"
)

// MapDifficultyLevel 将 0-100 难度分映射为档位
func MapDifficultyLevel(difficulty int) DifficultyLevel {
	switch {
	case difficulty <= 30:
		return DifficultyLow
	case difficulty <= 60:
		return DifficultyMedium
	default:
		return DifficultyHigh
	}
}

// Keyword 研究对象关键词。按文本去重复用，创建后不再修改。
type Keyword struct {
	ID              string          `json:"id"`
	Keyword         string          `json:"keyword"`
	Difficulty      int             `json:"difficulty"`
	DifficultyLevel DifficultyLevel `json:"difficultyLevel"`
	SearchVolume    int             `json:"searchVolume"`
	KCV             float64         `json:"kcv"`
	Metadata        map[string]any  `json:"metadata,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// KeywordRepo 关键词持久化接口
type KeywordRepo interface {
	Create(ctx context.Context, keyword *Keyword) error
	// Get 不存在时返回 NotFound
	Get(ctx context.Context, id string) (*Keyword, error)
	// GetByText 按关键词文本查找，不存在时返回 (nil, nil)
	GetByText(ctx context.Context, text string) (*Keyword, error)
}

// KeywordUseCase 关键词研究业务逻辑
type KeywordUseCase struct {
	repo     KeywordRepo
	provider research.Provider
	log      *log.Helper
}

// NewKeywordUseCase 创建关键词业务逻辑实例
func NewKeywordUseCase(repo KeywordRepo, provider research.Provider, logger log.Logger) *KeywordUseCase {
	return &KeywordUseCase{repo: repo, provider: provider, log: log.NewHelper(logger)}
}

// Suggest 获取种子关键词的扩展建议并落库，已存在的按文本复用
func (uc *KeywordUseCase) Suggest(ctx context.Context, seedKeyword string) ([]*Keyword, error) {
	if strings.TrimSpace(seedKeyword) == "" {
		return nil, errors.BadRequest("SEED_KEYWORD_REQUIRED", "seedKeyword is required")
	}

	suggestions, err := uc.provider.KeywordSuggestions(ctx, seedKeyword)
	if err != nil {
		return nil, err
	}

	keywords := make([]*Keyword, 0, len(suggestions))
	for _, s := range suggestions {
		existing, err := uc.repo.GetByText(ctx, s.Keyword)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			keywords = append(keywords, existing)
			continue
		}

		kw := &Keyword{
			ID:              uuid.NewString(),
			Keyword:         s.Keyword,
			Difficulty:      s.Difficulty,
			DifficultyLevel: MapDifficultyLevel(s.Difficulty),
			SearchVolume:    s.SearchVolume,
			KCV:             s.KCV,
			Metadata:        s.Metadata,
		}
		if err := uc.repo.Create(ctx, kw); err != nil {
			return nil, err
		}
		keywords = append(keywords, kw)
	}

	uc.log.WithContext(ctx).Infof("saved %d keywords for seed: %s", len(keywords), seedKeyword)
	return keywords, nil
}

// Get 获取关键词详情
func (uc *KeywordUseCase) Get(ctx context.Context, id string) (*Keyword, error) {
	return uc.repo.Get(ctx, id)
}
