package cron

import (
	"Glimpse/internal/job"
	log "log/slog"

	"github.com/robfig/cron/v3"
)

type Manager struct {
	engine         *cron.Cron
	statusSweepJob *job.StatusSweepJob
	sweepSpec      string
}

func NewCronManager(statusSweepJob *job.StatusSweepJob, sweepSpec string) *Manager {
	return &Manager{
		engine: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		statusSweepJob: statusSweepJob,
		sweepSpec:      sweepSpec,
	}
}

// InitCron 注册并启动定时任务
func InitCron(mgr *Manager) error {
	log.Info("Cron Jobs starting...", "status_sweep", mgr.sweepSpec)
	if err := mgr.RegisterJobs(); err != nil {
		return err
	}
	mgr.Start()
	return nil
}

// RegisterJobs 注册定时任务
func (s *Manager) RegisterJobs() error {
	if _, err := s.engine.AddJob(s.sweepSpec, s.statusSweepJob); err != nil {
		return err
	}
	return nil
}

func (s *Manager) Start() {
	log.Info("Cron 定时任务引擎启动")
	s.engine.Start()
}

// Stop 停止调度并等待正在执行的任务结束
func (s *Manager) Stop() {
	log.Info("Cron 定时任务引擎停止")
	<-s.engine.Stop().Done()
}
