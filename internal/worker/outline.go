package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/content_pilot/internal/biz"
	"github.com/iWorld-y/content_pilot/internal/research"
)

// OutlineGenerator 大纲阶段的 LLM 依赖
type OutlineGenerator interface {
	GenerateOutline(ctx context.Context, keyword, targetFormat, informationGainAngle string, paaQuestions []research.PAAQuestion) (*biz.Outline, error)
}

// OutlineHandler 大纲阶段：基于策略文档生成大纲，等待人工批准。
// 此阶段不迁移草稿状态，OUTLINE_PENDING 在策略落库时已写入。
type OutlineHandler struct {
	flow      DraftFlow
	generator OutlineGenerator
	log       *log.Helper
}

func NewOutlineHandler(flow DraftFlow, generator OutlineGenerator, logger log.Logger) *OutlineHandler {
	return &OutlineHandler{
		flow:      flow,
		generator: generator,
		log:       log.NewHelper(logger),
	}
}

func (h *OutlineHandler) Handle(ctx context.Context, job *Job) error {
	var payload biz.OutlineJobPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("invalid outline payload: %w", err)
	}
	if payload.DraftID == "" || payload.Strategy == nil {
		return fmt.Errorf("outline payload missing draftId or strategy")
	}
	job.UpdateProgress(ctx, 10)

	var paa []research.PAAQuestion
	if payload.Strategy.SerpData != nil {
		paa = payload.Strategy.SerpData.PeopleAlsoAsk
	}

	outline, err := h.generator.GenerateOutline(ctx, payload.Keyword,
		payload.Strategy.TargetFormat, payload.Strategy.InformationGainAngle, paa)
	if err != nil {
		return fmt.Errorf("outline generation failed: %w", err)
	}
	job.UpdateProgress(ctx, 85)

	if err := h.flow.SaveOutline(ctx, payload.DraftID, outline); err != nil {
		return fmt.Errorf("save outline failed: %w", err)
	}

	h.log.Infof("outline stage done for draft %s (%d sections)", payload.DraftID, len(outline.Sections))
	return nil
}
