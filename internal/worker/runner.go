package worker

import (
	"context"
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/content_pilot/internal/data"
)

// JobStore 运行器所需的队列操作
type JobStore interface {
	Claim(ctx context.Context, queue string, lease time.Duration) (*data.Job, error)
	Renew(ctx context.Context, jobID string, lease time.Duration) error
	Complete(ctx context.Context, jobID string) error
	Fail(ctx context.Context, jobID string, reason string) error
	SetProgress(ctx context.Context, jobID string, progress int) error
}

// Job 执行中的任务视图，提供进度上报能力
type Job struct {
	*data.Job
	store JobStore
	log   *log.Helper
}

// UpdateProgress 上报进度百分比。上报失败只记日志，不中断任务。
func (j *Job) UpdateProgress(ctx context.Context, progress int) {
	if err := j.store.SetProgress(ctx, j.ID, progress); err != nil && j.log != nil {
		j.log.Warnf("progress update failed for job %s: %v", j.ID, err)
	}
}

// Handler 处理单个任务。返回错误视为本次尝试失败，任务按策略重试。
type Handler interface {
	Handle(ctx context.Context, job *Job) error
}

// Runner 单条队列的消费循环。
// 认领任务后持有租约并周期性续租，任务完成或失败后释放。
type Runner struct {
	queue      string
	store      JobStore
	handler    Handler
	lease      time.Duration
	renewEvery time.Duration
	pollEvery  time.Duration
	log        *log.Helper
}

func NewRunner(queue string, store JobStore, handler Handler, lease, renewEvery, pollEvery time.Duration, logger log.Logger) *Runner {
	return &Runner{
		queue:      queue,
		store:      store,
		handler:    handler,
		lease:      lease,
		renewEvery: renewEvery,
		pollEvery:  pollEvery,
		log:        log.NewHelper(logger),
	}
}

// Run 持续消费队列，直到 ctx 取消
func (r *Runner) Run(ctx context.Context) {
	r.log.Infof("runner started for queue %q", r.queue)
	for {
		select {
		case <-ctx.Done():
			r.log.Infof("runner stopped for queue %q", r.queue)
			return
		default:
		}

		job, err := r.store.Claim(ctx, r.queue, r.lease)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			r.log.Errorf("claim failed on queue %q: %v", r.queue, err)
			r.sleep(ctx, r.pollEvery)
			continue
		}
		if job == nil {
			r.sleep(ctx, r.pollEvery)
			continue
		}

		r.process(ctx, job)
	}
}

func (r *Runner) process(ctx context.Context, raw *data.Job) {
	r.log.Infof("processing job %s (%s) attempt %d/%d", raw.ID, raw.Name, raw.Attempts, raw.MaxAttempts)

	// 续租协程：任务执行期间保持租约有效
	renewCtx, stopRenew := context.WithCancel(ctx)
	defer stopRenew()
	go func() {
		ticker := time.NewTicker(r.renewEvery)
		defer ticker.Stop()
		for {
			select {
			case <-renewCtx.Done():
				return
			case <-ticker.C:
				if err := r.store.Renew(renewCtx, raw.ID, r.lease); err != nil {
					r.log.Warnf("lease renew failed for job %s: %v", raw.ID, err)
				}
			}
		}
	}()

	job := &Job{Job: raw, store: r.store, log: r.log}
	if err := r.handler.Handle(ctx, job); err != nil {
		r.log.Errorf("job %s failed: %v", raw.ID, err)
		if ferr := r.store.Fail(context.WithoutCancel(ctx), raw.ID, err.Error()); ferr != nil {
			r.log.Errorf("failed to record job failure for %s: %v", raw.ID, ferr)
		}
		return
	}

	if err := r.store.Complete(context.WithoutCancel(ctx), raw.ID); err != nil {
		r.log.Errorf("failed to mark job %s completed: %v", raw.ID, err)
	}
}

func (r *Runner) sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
