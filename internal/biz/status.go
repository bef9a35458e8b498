package biz

// DraftStatus 草稿在生成流水线中的状态
type DraftStatus string

const (
	StatusResearching     DraftStatus = "RESEARCHING"
	StatusAnalyzing       DraftStatus = "ANALYZING"
	StatusOutlinePending  DraftStatus = "OUTLINE_PENDING"
	StatusOutlineApproved DraftStatus = "OUTLINE_APPROVED"
	StatusWriting         DraftStatus = "WRITING"
	StatusCompleted       DraftStatus = "COMPLETED"
)

// transitions 状态机合法迁移表。
// 没有 FAILED 终态：阶段失败使任务进入重试/死信，草稿停留在当前状态。
var transitions = map[DraftStatus][]DraftStatus{
	StatusResearching:     {StatusAnalyzing},
	StatusAnalyzing:       {StatusOutlinePending},
	StatusOutlinePending:  {StatusOutlineApproved},
	StatusOutlineApproved: {StatusWriting},
	StatusWriting:         {StatusCompleted},
	StatusCompleted:       {},
}

// Valid 判断是否为已知状态
func (s DraftStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransitionTo 判断状态迁移是否合法
func (s DraftStatus) CanTransitionTo(next DraftStatus) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}
