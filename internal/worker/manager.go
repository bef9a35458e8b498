package worker

import (
	"context"
	"sync"

	"github.com/go-kratos/kratos/v2/log"
)

// Manager 统一管理全部队列运行器的生命周期，
// 实现 kratos transport.Server 以接入应用的启动与优雅退出。
type Manager struct {
	runners []*Runner
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	log     *log.Helper
}

func NewManager(logger log.Logger, runners ...*Runner) *Manager {
	return &Manager{
		runners: runners,
		log:     log.NewHelper(logger),
	}
}

// Start 启动全部运行器
func (m *Manager) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	for _, r := range m.runners {
		m.wg.Add(1)
		go func(r *Runner) {
			defer m.wg.Done()
			r.Run(runCtx)
		}(r)
	}
	m.log.Infof("worker manager started with %d runners", len(m.runners))

	<-ctx.Done()
	return nil
}

// Stop 停止运行器并等待在途任务退出
func (m *Manager) Stop(ctx context.Context) error {
	if m.cancel != nil {
		m.cancel()
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.log.Info("worker manager stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
