package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/time/rate"

	"github.com/iWorld-y/content_pilot/internal/biz"
	"github.com/iWorld-y/content_pilot/internal/conf"
	"github.com/iWorld-y/content_pilot/internal/logger"
	"github.com/iWorld-y/content_pilot/internal/research"
)

// GapAnalysis SERP 差距分析的结构化结果
type GapAnalysis struct {
	TargetFormat         string   `json:"targetFormat"`
	InformationGainAngle string   `json:"informationGainAngle"`
	CompetitorHeadings   []string `json:"competitorHeadings"`
	RecommendedApproach  string   `json:"recommendedApproach"`
}

// CompetitorPage 竞品页面信息，供差距分析使用
type CompetitorPage struct {
	Title    string
	Snippet  string
	URL      string
	Headings []string
}

// Generator 封装 LLM 调用：限流、429 重试与 JSON 清洗
type Generator struct {
	chatModel model.ChatModel
	limiter   *rate.Limiter
}

// NewGenerator 创建生成器实例
func NewGenerator(ctx context.Context, llmCfg conf.LLMConfig, concCfg conf.ConcurrencyConfig) (*Generator, error) {
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: llmCfg.BaseURL,
		APIKey:  llmCfg.APIKey,
		Model:   llmCfg.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM 初始化失败: %w", err)
	}

	limit := rate.Limit(float64(concCfg.RPM) / 60.0)
	burst := concCfg.QPS
	limiter := rate.NewLimiter(limit, burst)

	return &Generator{chatModel: chatModel, limiter: limiter}, nil
}

// NewGeneratorWithModel 注入现成 ChatModel，供测试使用
func NewGeneratorWithModel(cm model.ChatModel, limiter *rate.Limiter) *Generator {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &Generator{chatModel: cm, limiter: limiter}
}

// AnalyzeGap 分析 SERP 竞品，识别内容格式与信息增益角度
func (g *Generator) AnalyzeGap(ctx context.Context, keyword string, competitors []CompetitorPage, paaQuestions []research.PAAQuestion) (*GapAnalysis, error) {
	var sb strings.Builder
	for i, c := range competitors {
		fmt.Fprintf(&sb, "Competitor %d:\nTitle: %s\nSnippet: %s\nLink: %s", i+1, c.Title, c.Snippet, c.URL)
		if len(c.Headings) > 0 {
			sb.WriteString("\nHeadings:\n")
			for j, h := range c.Headings {
				fmt.Fprintf(&sb, "  %d. %s\n", j+1, h)
			}
		} else {
			sb.WriteString("\nHeadings: (Not available)\n")
		}
		sb.WriteString("\n")
	}

	var paa strings.Builder
	for _, q := range paaQuestions {
		paa.WriteString(q.Question)
		paa.WriteString("\n")
	}

	prompt := fmt.Sprintf(`You are an SEO content strategist. Analyze the SERP for the keyword "%s".

Competitor Analysis:
%s
People Also Ask Questions:
%s
Based on this analysis:
1. Identify the dominant content format (Listicle, How-to Guide, Deep-Dive Essay, Comparison, or Tutorial)
2. Analyze the headings structure of each competitor to understand their content organization
3. Determine what specific sub-topic or expert perspective is MISSING that would provide "Information Gain" for readers
4. Recommend a unique angle that competitors haven't covered, considering both their titles/snippets and heading structures

Respond in JSON format:
{
  "targetFormat": "Listicle|How-to Guide|Deep-Dive Essay|Comparison|Tutorial",
  "informationGainAngle": "specific angle that provides unique value",
  "competitorHeadings": ["heading1", "heading2", "heading3"],
  "recommendedApproach": "brief explanation of the recommended content approach"
}`, keyword, sb.String(), paa.String())

	var result GapAnalysis
	if err := g.generateJSON(ctx, "You are an expert SEO content strategist. Always respond with valid JSON only.", prompt, &result); err != nil {
		return nil, fmt.Errorf("差距分析失败: %w", err)
	}
	logger.Log.Infof("差距分析完成，关键词: %s", keyword)
	return &result, nil
}

// GenerateOutline 基于策略生成 SEO 优化的文章大纲
func (g *Generator) GenerateOutline(ctx context.Context, keyword, targetFormat, informationGainAngle string, paaQuestions []research.PAAQuestion) (*biz.Outline, error) {
	var paa strings.Builder
	for _, q := range paaQuestions {
		paa.WriteString(q.Question)
		paa.WriteString("\n")
	}

	prompt := fmt.Sprintf(`Create a comprehensive SEO-optimized article outline for the keyword "%s".

Target Format: %s
Information Gain Angle: %s
People Also Ask Questions:
%s
Generate a structured outline with:
- A keyword-optimized title (include the primary keyword naturally)
- Multiple sections (H2 headings) that:
  * Address the information gain angle
  * Answer the PAA questions
  * Include supporting keywords naturally
  * Follow the target format structure

Respond in JSON format:
{
  "title": "SEO-optimized title with primary keyword",
  "sections": [
    {
      "heading": "H2 heading",
      "intent": "what this section aims to achieve",
      "keywordsToInclude": ["keyword1", "keyword2"]
    }
  ]
}

Ensure the outline has at least 6-8 sections for a comprehensive long-form article.`, keyword, targetFormat, informationGainAngle, paa.String())

	var outline biz.Outline
	if err := g.generateJSON(ctx, "You are an expert SEO content writer. Always respond with valid JSON only.", prompt, &outline); err != nil {
		return nil, fmt.Errorf("大纲生成失败: %w", err)
	}
	logger.Log.Infof("大纲生成完成，关键词: %s，章节数: %d", keyword, len(outline.Sections))
	return &outline, nil
}

// GenerateIntroduction 生成文章引言
func (g *Generator) GenerateIntroduction(ctx context.Context, keyword, title, informationGainAngle string) (string, error) {
	prompt := fmt.Sprintf(`Write a compelling introduction for an article with the title: "%s"

Primary Keyword: %s
Information Gain Angle: %s

Requirements:
- Include the primary keyword in the first paragraph naturally
- Hook the reader with a compelling opening
- Explain what unique value this article provides
- Set expectations for what they'll learn
- Keep it engaging and conversational
- Length: 150-200 words

Write in markdown format.`, title, keyword, informationGainAngle)

	return g.generate(ctx, "You are an expert content writer. Write engaging, SEO-optimized content.", prompt)
}

// GenerateSection 生成单个正文章节，带上一章节摘要以保持连贯
func (g *Generator) GenerateSection(ctx context.Context, articleTitle string, section biz.OutlineSection, previousSummary, informationGainAngle string) (string, error) {
	if previousSummary == "" {
		previousSummary = "This is the first section after introduction"
	}

	prompt := fmt.Sprintf(`Write a comprehensive section for an article.

Article Title: %s
Section Title: %s
Section Intent: %s
Keywords to Include: %s
Information Gain Angle: %s
Previous Section Context: %s

Requirements:
- Write in markdown format
- Use the section title as an H2 heading
- Include the specified keywords naturally
- Provide deep, valuable information
- Address the section intent thoroughly
- Maintain consistency with the information gain angle
- Length: 300-500 words
- Use H3 subheadings where appropriate
- Include examples, tips, or actionable insights

Write the full section content in markdown.`,
		articleTitle, section.Heading, section.Intent,
		strings.Join(section.KeywordsToInclude, ", "), informationGainAngle, previousSummary)

	return g.generate(ctx, "You are an expert content writer. Write comprehensive, SEO-optimized long-form content.", prompt)
}

// GenerateConclusion 生成结语
func (g *Generator) GenerateConclusion(ctx context.Context, articleTitle, keyword, articleSummary string) (string, error) {
	prompt := fmt.Sprintf(`Write a compelling conclusion for an article.

Article Title: %s
Primary Keyword: %s
Article Summary: %s

Requirements:
- Summarize key takeaways
- Reinforce the main value proposition
- Include a clear call-to-action (CTA)
- Include the primary keyword naturally
- Keep it engaging and actionable
- Length: 150-200 words
- Write in markdown format

Write the conclusion content.`, articleTitle, keyword, articleSummary)

	return g.generate(ctx, "You are an expert content writer. Write engaging conclusions with strong CTAs.", prompt)
}

// generate 普通文本生成，带限流与 429 指数退避
func (g *Generator) generate(ctx context.Context, system, prompt string) (string, error) {
	maxRetries := 3
	baseDelay := 2 * time.Second
	var lastErr error

	for i := 0; i <= maxRetries; i++ {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", err
		}

		messages := []*schema.Message{
			{Role: schema.System, Content: system},
			{Role: schema.User, Content: prompt},
		}

		resp, err := g.chatModel.Generate(ctx, messages)
		if err != nil {
			if isRateLimited(err) {
				lastErr = err
				if i < maxRetries {
					time.Sleep(baseDelay * time.Duration(1<<i))
					continue
				}
			}
			return "", err
		}

		content := strings.TrimSpace(resp.Content)
		if content == "" {
			lastErr = fmt.Errorf("empty response from model")
			continue
		}
		return content, nil
	}
	return "", lastErr
}

// generateJSON 生成并解析 JSON 结果，自动剥离 markdown 代码块围栏
func (g *Generator) generateJSON(ctx context.Context, system, prompt string, out any) error {
	maxRetries := 3
	baseDelay := 2 * time.Second
	var lastErr error

	for i := 0; i <= maxRetries; i++ {
		if err := g.limiter.Wait(ctx); err != nil {
			return err
		}

		messages := []*schema.Message{
			{Role: schema.System, Content: system},
			{Role: schema.User, Content: prompt},
		}

		resp, err := g.chatModel.Generate(ctx, messages)
		if err != nil {
			if isRateLimited(err) {
				lastErr = err
				if i < maxRetries {
					time.Sleep(baseDelay * time.Duration(1<<i))
					continue
				}
			}
			return err
		}

		cleanContent := strings.TrimSpace(resp.Content)
		cleanContent = strings.TrimPrefix(cleanContent, "```json")
		cleanContent = strings.TrimPrefix(cleanContent, "```")
		cleanContent = strings.TrimSuffix(cleanContent, "```")

		if err := json.Unmarshal([]byte(cleanContent), out); err != nil {
			lastErr = err
			if i < maxRetries {
				continue
			}
			return fmt.Errorf("json unmarshal: %w", err)
		}
		return nil
	}
	return lastErr
}

func isRateLimited(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(strings.ToLower(msg), "too many requests")
}
