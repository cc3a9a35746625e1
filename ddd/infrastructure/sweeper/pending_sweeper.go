package sweeper

import (
	"context"
	"time"

	"encoding-service/ddd/domain/entity"
	"encoding-service/ddd/domain/repo"
	"encoding-service/pkg/config"
	"encoding-service/pkg/logger"
	"encoding-service/pkg/manager"
)

// PendingSweeper 定期巡检滞留在pending的作业。
// pending意味着记录已落库但提交从未受理（进程崩溃、服务商长时间不可用）。
// 只报告不自动重试：重复提交会产生计费，留给运维决策。
type PendingSweeper struct {
	repo       repo.EncodingJobRepository
	interval   time.Duration
	pendingAge time.Duration
	batchSize  int

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPendingSweeper 创建巡检器
func NewPendingSweeper(encodingRepo repo.EncodingJobRepository, cfg *config.Config) *PendingSweeper {
	ctx, cancel := context.WithCancel(context.Background())
	return &PendingSweeper{
		repo:       encodingRepo,
		interval:   cfg.Sweeper.Interval,
		pendingAge: cfg.Sweeper.PendingAge,
		batchSize:  cfg.Sweeper.BatchSize,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// GetName 组件名
func (s *PendingSweeper) GetName() string {
	return "pending-sweeper"
}

// Start 启动巡检循环
func (s *PendingSweeper) Start() error {
	go s.run()
	return nil
}

// Stop 停止巡检并等待当前轮次结束
func (s *PendingSweeper) Stop() error {
	s.cancel()
	<-s.done
	return nil
}

func (s *PendingSweeper) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	logger.Infof("Pending sweeper started interval=%s pending_age=%s", s.interval, s.pendingAge)
	for {
		select {
		case <-s.ctx.Done():
			logger.Info("Pending sweeper stopped", nil)
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *PendingSweeper) sweep() {
	ctx, cancel := context.WithTimeout(s.ctx, 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-s.pendingAge).Unix()
	jobs, err := s.repo.QueryPendingBefore(ctx, cutoff, s.batchSize)
	if err != nil {
		logger.Errorf("Pending sweep query failed error=%v", err)
		return
	}
	if len(jobs) == 0 {
		return
	}

	logger.Warnf("Found %d jobs stuck in pending", len(jobs))
	for _, job := range jobs {
		s.report(job)
	}
}

func (s *PendingSweeper) report(job *entity.EncodingJobEntity) {
	logger.Warn("Encoding job stuck in pending", map[string]interface{}{
		"job_uuid":        job.JobUUID(),
		"owner_type":      job.OwnerType(),
		"owner_id":        job.OwnerID(),
		"owner_attribute": job.OwnerAttribute(),
		"created_at":      job.CreatedAt().Format(time.RFC3339),
	})
}

// PendingSweeperPlugin 巡检器组件插件
type PendingSweeperPlugin struct {
	Repo repo.EncodingJobRepository
}

// Name 插件名
func (p *PendingSweeperPlugin) Name() string {
	return "pending-sweeper-plugin"
}

// MustCreateComponent 根据配置创建组件，未启用时返回nil
func (p *PendingSweeperPlugin) MustCreateComponent(deps *manager.Dependencies) manager.Component {
	if !deps.Config.Sweeper.Enabled {
		logger.Info("Pending sweeper disabled by config", nil)
		return nil
	}
	return NewPendingSweeper(p.Repo, deps.Config)
}
