package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"tradewatch/internal/agent/engine"
	"tradewatch/internal/config"
	"tradewatch/internal/logger"
	"tradewatch/internal/scheduler"
	"tradewatch/internal/schema"
	"tradewatch/internal/trace"
	livehttp "tradewatch/internal/transport/http/live"
)

// App 负责应用级编排：一次性运行（run）或定时运行 + HTTP（serve）。
type App struct {
	cfg     *config.Config
	driver  *engine.Driver
	schemas *schema.Registry
	httpFn  func(ctx context.Context) (*livehttp.Server, error)
	Summary *StartupSummary
}

// NewApp 根据配置构建应用对象（不启动）
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	return buildAppWithWire(ctx, cfg)
}

// Driver exposes the pipeline driver (for tests and the CLI).
func (a *App) Driver() *engine.Driver {
	if a == nil {
		return nil
	}
	return a.driver
}

// RunOnce 执行一次完整运行并返回报告。标的级失败体现在报告中，不作为错误返回。
func (a *App) RunOnce(ctx context.Context) (engine.Report, error) {
	if a == nil || a.driver == nil {
		return engine.Report{}, fmt.Errorf("app not initialized")
	}
	return a.driver.RunCycle(ctx)
}

// Serve 启动定时运行与 HTTP 服务，直到 ctx 取消。
func (a *App) Serve(ctx context.Context) error {
	if a == nil || a.cfg == nil || a.driver == nil {
		return fmt.Errorf("app not initialized")
	}
	if a.Summary != nil {
		a.Summary.Print()
	}
	interval, ok := scheduler.ParseIntervalDuration(a.cfg.Pipeline.Interval)
	if !ok {
		return fmt.Errorf("pipeline.interval: invalid interval %q", a.cfg.Pipeline.Interval)
	}
	offset := time.Duration(a.cfg.Pipeline.OffsetSeconds) * time.Second

	group, ctx := errgroup.WithContext(ctx)

	if a.httpFn != nil {
		srv, err := a.httpFn(ctx)
		if err != nil {
			return err
		}
		group.Go(func() error {
			if err := srv.Start(ctx); err != nil {
				return fmt.Errorf("http server error: %w", err)
			}
			return nil
		})
	}

	group.Go(func() error {
		sched := scheduler.NewAlignedScheduler(ctx, interval, offset)
		sched.Name = "pipeline"
		sched.RunImmediately = a.cfg.Pipeline.RunImmediately
		sched.Start(a.scheduledRun)
		return nil
	})

	return group.Wait()
}

func (a *App) scheduledRun(ctx context.Context) {
	rep, err := a.driver.RunCycle(ctx)
	switch {
	case errors.Is(err, engine.ErrRunActive):
		logger.Warnf("scheduled run skipped: %v", err)
	case err != nil:
		logger.Errorf("scheduled run failed: %v", err)
	default:
		decided, failed := rep.Counts()
		logger.Infof("scheduled run %s done: decided=%d failed=%d", rep.RunID, decided, failed)
	}
}

// Close 刷新 trace 并释放资源。
func (a *App) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := trace.Shutdown(ctx); err != nil {
		logger.Warnf("trace shutdown: %v", err)
	}
}

// Schemas 返回当前生效的输出 schema 快照。
func (a *App) Schemas() schema.Snapshot {
	if a == nil || a.schemas == nil {
		return schema.Snapshot{}
	}
	return a.schemas.Snapshot()
}
