package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"

	"github.com/iWorld-y/content_pilot/internal/biz"
	"github.com/iWorld-y/content_pilot/internal/conf"
)

// 任务状态。dead 为死信：重试耗尽后冻结，等待人工介入。
const (
	jobQueued    = "queued"
	jobActive    = "active"
	jobCompleted = "completed"
	jobDead      = "dead"
)

// Job 队列中的一个任务
type Job struct {
	ID          string
	Queue       string
	Name        string
	Payload     json.RawMessage
	Attempts    int
	MaxAttempts int
	Progress    int
}

// JobStore 基于 postgres 的持久化任务队列。
// 租约依赖 locked_until：持有者崩溃后租约过期，任务可被其他进程重新认领。
type JobStore struct {
	data        *Data
	maxAttempts int
	retryDelay  time.Duration
	log         *log.Helper
}

func NewJobStore(data *Data, c conf.QueueConfig, logger log.Logger) *JobStore {
	return &JobStore{
		data:        data,
		maxAttempts: c.MaxAttempts,
		retryDelay:  time.Duration(c.RetryDelay) * time.Second,
		log:         log.NewHelper(logger),
	}
}

// Ensure JobStore implements biz.JobQueue
var _ biz.JobQueue = (*JobStore)(nil)

// Enqueue 投递任务。不按 draft 去重：阶段入口的状态 CAS 负责去重。
func (s *JobStore) Enqueue(ctx context.Context, queue, name string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = s.data.db.ExecContext(ctx, `
		INSERT INTO jobs (id, queue, name, payload, max_attempts)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.NewString(), queue, name, body, s.maxAttempts)
	if err != nil {
		return err
	}
	s.log.WithContext(ctx).Infof("enqueued %s job on queue %q", name, queue)
	return nil
}

// Claim 认领一个可执行任务并持有租约；无任务时返回 (nil, nil)。
// 同时回收租约过期的 active 任务（崩溃的持有者）。
func (s *JobStore) Claim(ctx context.Context, queue string, lease time.Duration) (*Job, error) {
	row := s.data.db.QueryRowContext(ctx, `
		UPDATE jobs
		SET status = $3, locked_until = $4, attempts = attempts + 1, updated_at = now()
		WHERE id = (
			SELECT id FROM jobs
			WHERE queue = $1 AND (
				(status = $2 AND run_after <= now()) OR
				(status = $3 AND locked_until < now())
			)
			ORDER BY created_at
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, queue, name, payload, attempts, max_attempts, progress`,
		queue, jobQueued, jobActive, time.Now().Add(lease))

	var job Job
	err := row.Scan(&job.ID, &job.Queue, &job.Name, &job.Payload, &job.Attempts, &job.MaxAttempts, &job.Progress)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// Renew 续租，保持对任务的独占
func (s *JobStore) Renew(ctx context.Context, jobID string, lease time.Duration) error {
	_, err := s.data.db.ExecContext(ctx, `
		UPDATE jobs SET locked_until = $2, updated_at = now()
		WHERE id = $1 AND status = $3`,
		jobID, time.Now().Add(lease), jobActive)
	return err
}

// Complete 标记任务完成
func (s *JobStore) Complete(ctx context.Context, jobID string) error {
	_, err := s.data.db.ExecContext(ctx, `
		UPDATE jobs SET status = $2, progress = 100, locked_until = NULL, updated_at = now()
		WHERE id = $1`, jobID, jobCompleted)
	return err
}

// Fail 记录失败：未达最大尝试次数则延迟重新入队，否则进入死信
func (s *JobStore) Fail(ctx context.Context, jobID string, reason string) error {
	_, err := s.data.db.ExecContext(ctx, `
		UPDATE jobs
		SET status = CASE WHEN attempts >= max_attempts THEN $4 ELSE $3 END,
		    last_error = $2,
		    run_after = $5,
		    locked_until = NULL,
		    updated_at = now()
		WHERE id = $1`,
		jobID, reason, jobQueued, jobDead, time.Now().Add(s.retryDelay))
	return err
}

// SetProgress 更新任务进度百分比，供外部观察长任务的存活状态
func (s *JobStore) SetProgress(ctx context.Context, jobID string, progress int) error {
	_, err := s.data.db.ExecContext(ctx, `
		UPDATE jobs SET progress = $2, updated_at = now()
		WHERE id = $1`, jobID, progress)
	return err
}
