package pipeline

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"tradewatch/internal/logger"
)

// Pipeline 负责按 stage 调度一组中间件。同一 stage 内并发执行，stage 之间串行。
type Pipeline struct {
	name   string
	limit  int
	stages [][]Middleware
}

// New 创建 Pipeline，并按 stage 归类中间件。limit<=0 表示 stage 内不限并发。
func New(name string, limit int, middlewares ...Middleware) *Pipeline {
	stageMap := make(map[int][]Middleware)
	for _, mw := range middlewares {
		if mw == nil {
			continue
		}
		meta := mw.Meta()
		stageMap[meta.Stage] = append(stageMap[meta.Stage], mw)
	}
	keys := make([]int, 0, len(stageMap))
	for st := range stageMap {
		keys = append(keys, st)
	}
	sort.Ints(keys)
	stages := make([][]Middleware, 0, len(keys))
	for _, st := range keys {
		stages = append(stages, stageMap[st])
	}
	return &Pipeline{name: name, limit: limit, stages: stages}
}

// Run 执行 pipeline。非关键中间件的失败记录在 AnalysisContext 中，不会中止同级；
// 只有关键中间件失败或 ctx 取消才返回错误。
func (p *Pipeline) Run(ctx context.Context, ac *AnalysisContext) error {
	if ac == nil {
		return fmt.Errorf("nil analysis context")
	}
	for _, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.runStage(ctx, ac, stage); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) runStage(ctx context.Context, ac *AnalysisContext, stage []Middleware) error {
	if len(stage) == 0 {
		return nil
	}
	var group errgroup.Group
	if p.limit > 0 {
		group.SetLimit(p.limit)
	}
	for _, mw := range stage {
		mw := mw
		group.Go(func() error {
			meta := mw.Meta()
			runCtx := ctx
			if meta.Timeout > 0 {
				var cancel context.CancelFunc
				runCtx, cancel = context.WithTimeout(ctx, meta.Timeout)
				defer cancel()
			}
			err := mw.Handle(runCtx, ac)
			if err == nil {
				return nil
			}
			wErr := &MiddlewareError{
				Middleware: meta.Name,
				Kind:       meta.Kind,
				Stage:      meta.Stage,
				Critical:   meta.Critical,
				Err:        err,
			}
			ac.RecordFailure(wErr)
			if meta.Critical {
				return wErr
			}
			logger.Warnf("[pipeline] %s %s %s", p.name, ac.Instrument.Symbol, wErr.Error())
			return nil
		})
	}
	return group.Wait()
}
