package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/content_pilot/internal/biz"
)

// 章节间传递的上下文摘要长度
const (
	sectionExcerptRunes    = 200
	conclusionExcerptRunes = 1000
)

// SectionWriter 内容阶段的 LLM 依赖
type SectionWriter interface {
	GenerateIntroduction(ctx context.Context, keyword, title, informationGainAngle string) (string, error)
	GenerateSection(ctx context.Context, articleTitle string, section biz.OutlineSection, previousSummary, informationGainAngle string) (string, error)
	GenerateConclusion(ctx context.Context, articleTitle, keyword, articleSummary string) (string, error)
}

// ContentHandler 内容阶段：逐章节生成、落库并编排最终文稿。
// 每个章节写入后即持久化，重试时跳过已存在的章节续写。
type ContentHandler struct {
	flow   DraftFlow
	writer SectionWriter
	log    *log.Helper
}

func NewContentHandler(flow DraftFlow, writer SectionWriter, logger log.Logger) *ContentHandler {
	return &ContentHandler{
		flow:   flow,
		writer: writer,
		log:    log.NewHelper(logger),
	}
}

func (h *ContentHandler) Handle(ctx context.Context, job *Job) error {
	var payload biz.ContentJobPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("invalid content payload: %w", err)
	}
	if payload.DraftID == "" || payload.Outline == nil || len(payload.Outline.Sections) == 0 {
		return fmt.Errorf("content payload missing draftId or outline")
	}

	ok, err := h.flow.StartWriting(ctx, payload.DraftID)
	if err != nil {
		return err
	}
	if !ok {
		h.log.Infof("draft %s is not awaiting content generation, skipping", payload.DraftID)
		return nil
	}
	job.UpdateProgress(ctx, 5)

	draft, err := h.flow.Get(ctx, payload.DraftID)
	if err != nil {
		return err
	}
	keyword := draft.Title
	if draft.Keyword != nil {
		keyword = draft.Keyword.Keyword
	}

	angle := ""
	if payload.Strategy != nil {
		angle = payload.Strategy.InformationGainAngle
	}

	// 续写支持：已落库的章节按 order 跳过
	existing, err := h.flow.Sections(ctx, payload.DraftID)
	if err != nil {
		return err
	}
	written := make(map[int]string, len(existing))
	for _, s := range existing {
		written[s.Order] = s.Content
	}

	outline := payload.Outline
	totalSteps := len(outline.Sections) + 2

	// 引言固定 order 0，标题即文章标题
	if _, done := written[0]; !done {
		intro, err := h.writer.GenerateIntroduction(ctx, keyword, outline.Title, angle)
		if err != nil {
			return fmt.Errorf("introduction generation failed: %w", err)
		}
		if _, err := h.flow.AppendSection(ctx, payload.DraftID, outline.Title, intro, 0, biz.SectionIntroduction); err != nil {
			return fmt.Errorf("append introduction failed: %w", err)
		}
		written[0] = intro
	}
	job.UpdateProgress(ctx, stageProgress(1, totalSteps))

	// 正文章节 order 1..N，携带前一章节（首章为引言）的开头摘要保持连贯
	prevSummary := headRunes(written[0], sectionExcerptRunes)
	for i, section := range outline.Sections {
		order := i + 1
		if body, done := written[order]; done {
			prevSummary = headRunes(body, sectionExcerptRunes)
			job.UpdateProgress(ctx, stageProgress(order+1, totalSteps))
			continue
		}

		body, err := h.writer.GenerateSection(ctx, outline.Title, section, prevSummary, angle)
		if err != nil {
			return fmt.Errorf("section %q generation failed: %w", section.Heading, err)
		}
		if _, err := h.flow.AppendSection(ctx, payload.DraftID, section.Heading, body, order, biz.SectionBody); err != nil {
			return fmt.Errorf("append section %q failed: %w", section.Heading, err)
		}
		written[order] = body
		prevSummary = headRunes(body, sectionExcerptRunes)
		job.UpdateProgress(ctx, stageProgress(order+1, totalSteps))
	}

	// 结语 order N+1，摘要取已有全部章节（含引言）的开头
	conclusionOrder := len(outline.Sections) + 1
	if _, done := written[conclusionOrder]; !done {
		bodies := make([]string, 0, len(outline.Sections)+1)
		for i := 0; i <= len(outline.Sections); i++ {
			bodies = append(bodies, written[i])
		}
		summary := headRunes(strings.Join(bodies, "\n\n"), conclusionExcerptRunes)

		conclusion, err := h.writer.GenerateConclusion(ctx, outline.Title, keyword, summary)
		if err != nil {
			return fmt.Errorf("conclusion generation failed: %w", err)
		}
		if _, err := h.flow.AppendSection(ctx, payload.DraftID, "Conclusion", conclusion, conclusionOrder, biz.SectionConclusion); err != nil {
			return fmt.Errorf("append conclusion failed: %w", err)
		}
	}
	job.UpdateProgress(ctx, 90)

	// 以落库章节为准编排最终文稿，保证重试后的组装结果一致
	sections, err := h.flow.Sections(ctx, payload.DraftID)
	if err != nil {
		return err
	}
	content := biz.AssembleContent(sections)
	if err := h.flow.CompleteDraft(ctx, payload.DraftID, content); err != nil {
		return fmt.Errorf("complete draft failed: %w", err)
	}

	score := biz.CalculateSeoScore(content, keyword)
	if err := h.flow.SaveSeoScore(ctx, payload.DraftID, score); err != nil {
		return fmt.Errorf("save seo score failed: %w", err)
	}
	job.UpdateProgress(ctx, 100)

	h.log.Infof("content stage done for draft %s (%d sections, %d words)", payload.DraftID, len(sections), score.WordCount)
	return nil
}

// stageProgress 把第 step/total 步映射到 10%-85% 区间
func stageProgress(step, total int) int {
	if total <= 0 {
		return 10
	}
	return 10 + int(float64(step)/float64(total)*75)
}

// headRunes 取字符串开头 n 个 rune，避免截断多字节字符
func headRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
