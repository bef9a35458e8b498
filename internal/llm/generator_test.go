package llm

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/content_pilot/internal/biz"
	"github.com/iWorld-y/content_pilot/internal/logger"
	"github.com/iWorld-y/content_pilot/internal/research"
)

func TestMain(m *testing.M) {
	_ = logger.InitLogger("error", "")
	os.Exit(m.Run())
}

func outlineSection(heading string) biz.OutlineSection {
	return biz.OutlineSection{Heading: heading, Intent: "explain", KeywordsToInclude: []string{"roast"}}
}

// mockChatModel 按序返回预设响应
type mockChatModel struct {
	responses []string
	errs      []error
	calls     int
	lastInput []*schema.Message
}

func (m *mockChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	idx := m.calls
	m.calls++
	m.lastInput = input
	if idx < len(m.errs) && m.errs[idx] != nil {
		return nil, m.errs[idx]
	}
	return &schema.Message{Role: schema.Assistant, Content: m.responses[idx]}, nil
}

func (m *mockChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, fmt.Errorf("not implemented")
}

func (m *mockChatModel) BindTools(tools []*schema.ToolInfo) error { return nil }

func TestGenerator_AnalyzeGap(t *testing.T) {
	cm := &mockChatModel{responses: []string{
		`{"targetFormat":"Listicle","informationGainAngle":"freshness testing","competitorHeadings":["Roast Levels"],"recommendedApproach":"lead with freshness"}`,
	}}
	g := NewGeneratorWithModel(cm, nil)

	gap, err := g.AnalyzeGap(context.Background(), "best coffee beans",
		[]CompetitorPage{{Title: "Guide A", Snippet: "s", URL: "https://a.example.com", Headings: []string{"Roast Levels"}}},
		[]research.PAAQuestion{{Question: "How to store coffee beans?"}})
	require.NoError(t, err)

	assert.Equal(t, "Listicle", gap.TargetFormat)
	assert.Equal(t, "freshness testing", gap.InformationGainAngle)
	assert.Equal(t, []string{"Roast Levels"}, gap.CompetitorHeadings)

	// 关键词与竞品信息进入提示词
	prompt := cm.lastInput[len(cm.lastInput)-1].Content
	assert.Contains(t, prompt, "best coffee beans")
	assert.Contains(t, prompt, "Guide A")
	assert.Contains(t, prompt, "How to store coffee beans?")
}

func TestGenerator_GenerateOutline_StripsCodeFence(t *testing.T) {
	cm := &mockChatModel{responses: []string{
		"```json\n{\"title\":\"Best Coffee Beans Guide\",\"sections\":[{\"heading\":\"Roast Levels\",\"intent\":\"explain\",\"keywordsToInclude\":[\"roast\"]}]}\n```",
	}}
	g := NewGeneratorWithModel(cm, nil)

	outline, err := g.GenerateOutline(context.Background(), "best coffee beans", "Listicle", "freshness", nil)
	require.NoError(t, err)

	assert.Equal(t, "Best Coffee Beans Guide", outline.Title)
	require.Len(t, outline.Sections, 1)
	assert.Equal(t, "Roast Levels", outline.Sections[0].Heading)
}

func TestGenerator_GenerateIntroduction(t *testing.T) {
	cm := &mockChatModel{responses: []string{"A compelling hook about coffee beans."}}
	g := NewGeneratorWithModel(cm, nil)

	intro, err := g.GenerateIntroduction(context.Background(), "best coffee beans", "Best Coffee Beans Guide", "freshness")
	require.NoError(t, err)
	assert.Equal(t, "A compelling hook about coffee beans.", intro)
}

func TestGenerator_GenerateSection_DefaultPreviousContext(t *testing.T) {
	cm := &mockChatModel{responses: []string{"## Roast Levels\n\nbody"}}
	g := NewGeneratorWithModel(cm, nil)

	_, err := g.GenerateSection(context.Background(), "Best Coffee Beans Guide",
		outlineSection("Roast Levels"), "", "freshness")
	require.NoError(t, err)

	prompt := cm.lastInput[len(cm.lastInput)-1].Content
	assert.Contains(t, prompt, "This is the first section after introduction")
}

func TestGenerator_RetriesOnRateLimit(t *testing.T) {
	cm := &mockChatModel{
		errs:      []error{fmt.Errorf("429 too many requests"), nil},
		responses: []string{"", "conclusion text"},
	}
	g := NewGeneratorWithModel(cm, nil)

	out, err := g.GenerateConclusion(context.Background(), "Best Coffee Beans Guide", "best coffee beans", "summary")
	require.NoError(t, err)
	assert.Equal(t, "conclusion text", out)
	assert.Equal(t, 2, cm.calls)
}

func TestGenerator_MalformedJSON(t *testing.T) {
	cm := &mockChatModel{responses: []string{
		"not json", "still not json", "nope", "nope again",
	}}
	g := NewGeneratorWithModel(cm, nil)

	_, err := g.GenerateOutline(context.Background(), "best coffee beans", "Listicle", "freshness", nil)
	assert.Error(t, err)
}
