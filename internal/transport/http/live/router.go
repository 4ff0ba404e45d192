package livehttp

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"

	"tradewatch/internal/agent/engine"
	"tradewatch/internal/logger"
	"tradewatch/internal/schema"
)

// Runner 由 engine.Driver 实现。
type Runner interface {
	RunCycle(ctx context.Context) (engine.Report, error)
	Latest() (engine.Report, bool)
	Running() bool
}

type SchemaSource interface {
	Snapshot() schema.Snapshot
}

type Router struct {
	base    context.Context
	runner  Runner
	schemas SchemaSource
}

func NewRouter(base context.Context, runner Runner, schemas SchemaSource) *Router {
	return &Router{base: base, runner: runner, schemas: schemas}
}

func (r *Router) Register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	group.GET("/report/latest", r.handleLatest)
	group.POST("/runs", r.handleTrigger)
	if r.schemas != nil {
		group.GET("/schemas", r.handleSchemas)
	}
}

func (r *Router) handleLatest(c *gin.Context) {
	rep, ok := r.runner.Latest()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no completed run yet"})
		return
	}
	c.JSON(http.StatusOK, rep)
}

// handleTrigger 默认异步触发一次运行；wait=true 时同步返回报告。
func (r *Router) handleTrigger(c *gin.Context) {
	if r.runner.Running() {
		c.JSON(http.StatusConflict, gin.H{"error": engine.ErrRunActive.Error()})
		return
	}
	wait, _ := strconv.ParseBool(c.DefaultQuery("wait", "false"))
	if !wait {
		go func() {
			if _, err := r.runner.RunCycle(r.base); err != nil {
				logger.Warnf("manual run failed: %v", err)
			}
		}()
		c.JSON(http.StatusAccepted, gin.H{"status": "started"})
		return
	}
	rep, err := r.runner.RunCycle(c.Request.Context())
	switch {
	case errors.Is(err, engine.ErrRunActive):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, rep)
	}
}

func (r *Router) handleSchemas(c *gin.Context) {
	snap := r.schemas.Snapshot()
	out := make([]gin.H, 0, len(snap.Schemas))
	for cat, s := range snap.Schemas {
		out = append(out, gin.H{
			"category":    string(cat),
			"name":        s.Name,
			"version":     s.Version,
			"json_schema": s.JSONSchema(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i]["category"].(string) < out[j]["category"].(string) })
	c.JSON(http.StatusOK, gin.H{"version": snap.Version, "loaded_at": snap.LoadedAt, "schemas": out})
}
