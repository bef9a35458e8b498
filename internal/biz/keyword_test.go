package biz

import (
	"context"
	"testing"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/content_pilot/internal/research"
)

// mockProvider 模拟研究数据源
type mockProvider struct {
	suggestions []research.Suggestion
}

func (m *mockProvider) SearchResults(ctx context.Context, keyword string) (*research.SerpData, error) {
	return &research.SerpData{}, nil
}

func (m *mockProvider) KeywordSuggestions(ctx context.Context, seed string) ([]research.Suggestion, error) {
	return m.suggestions, nil
}

func TestMapDifficultyLevel(t *testing.T) {
	cases := []struct {
		difficulty int
		want       DifficultyLevel
	}{
		{0, DifficultyLow},
		{30, DifficultyLow},
		{31, DifficultyMedium},
		{60, DifficultyMedium},
		{61, DifficultyHigh},
		{100, DifficultyHigh},
	}
	for _, c := range cases {
		if got := MapDifficultyLevel(c.difficulty); got != c.want {
			t.Errorf("MapDifficultyLevel(%d) = %s, want %s", c.difficulty, got, c.want)
		}
	}
}

func TestKeywordUseCase_Suggest(t *testing.T) {
	repo := &mockKeywordRepo{keywords: map[string]*Keyword{}}
	provider := &mockProvider{suggestions: []research.Suggestion{
		{Keyword: "best coffee beans", Difficulty: 25, SearchVolume: 5000, KCV: 120.5},
		{Keyword: "coffee bean storage", Difficulty: 70, SearchVolume: 800, KCV: 40.0},
	}}
	uc := NewKeywordUseCase(repo, provider, log.DefaultLogger)

	keywords, err := uc.Suggest(context.Background(), "coffee beans")
	require.NoError(t, err)
	require.Len(t, keywords, 2)

	assert.Equal(t, DifficultyLow, keywords[0].DifficultyLevel)
	assert.Equal(t, DifficultyHigh, keywords[1].DifficultyLevel)
	assert.NotEmpty(t, keywords[0].ID)
	assert.Len(t, repo.keywords, 2)
}

func TestKeywordUseCase_Suggest_ReusesExisting(t *testing.T) {
	existing := &Keyword{ID: "kw-1", Keyword: "best coffee beans", Difficulty: 25}
	repo := &mockKeywordRepo{keywords: map[string]*Keyword{"kw-1": existing}}
	provider := &mockProvider{suggestions: []research.Suggestion{
		{Keyword: "best coffee beans", Difficulty: 40},
	}}
	uc := NewKeywordUseCase(repo, provider, log.DefaultLogger)

	keywords, err := uc.Suggest(context.Background(), "coffee beans")
	require.NoError(t, err)
	require.Len(t, keywords, 1)

	// 按文本命中已有记录，不重复创建
	assert.Equal(t, "kw-1", keywords[0].ID)
	assert.Len(t, repo.keywords, 1)
}

func TestKeywordUseCase_Suggest_EmptySeed(t *testing.T) {
	uc := NewKeywordUseCase(&mockKeywordRepo{keywords: map[string]*Keyword{}}, &mockProvider{}, log.DefaultLogger)

	_, err := uc.Suggest(context.Background(), "   ")
	require.Error(t, err)
	assert.True(t, errors.IsBadRequest(err))
}
