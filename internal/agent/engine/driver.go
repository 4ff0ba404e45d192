package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"tradewatch/internal/decision"
	"tradewatch/internal/logger"
	"tradewatch/internal/market"
	"tradewatch/internal/pipeline"
	"tradewatch/internal/schema"
	"tradewatch/internal/trace"
	"tradewatch/internal/types"
)

// ErrRunActive 表示已有一次运行尚未结束。
var ErrRunActive = errors.New("a run is already in progress")

type HoldingsSource interface {
	Holdings(ctx context.Context) (market.Payload, error)
}

type Aggregator interface {
	Aggregate(ctx context.Context, inst types.Instrument, rc *pipeline.RunContext) (pipeline.EvidenceBundle, error)
}

type Composer interface {
	Compose(inst types.Instrument, bundle pipeline.EvidenceBundle, rc *pipeline.RunContext) (decision.Request, error)
}

type Inferer interface {
	Infer(ctx context.Context, req decision.Request) (string, error)
}

type Parser interface {
	Parse(raw string, out *schema.OutputSchema) (decision.TradeDecision, error)
}

type SchemaSource interface {
	Snapshot() schema.Snapshot
}

// Settings 是每次运行复制进 RunContext 的配置。
type Settings struct {
	Currency       string
	FXNote         string
	NewsEnabled    bool
	MaxConcurrency int
	RunTimeout     time.Duration
}

type DriverParams struct {
	Instruments []types.Instrument
	Holdings    HoldingsSource
	Aggregator  Aggregator
	Composer    Composer
	Engine      Inferer
	Parser      Parser
	Schemas     SchemaSource
	Settings    Settings
	Observer    Observer
}

// Driver 按配置顺序处理标的，每个标的产生一个 Outcome。
type Driver struct {
	instruments []types.Instrument
	holdings    HoldingsSource
	aggregator  Aggregator
	composer    Composer
	engine      Inferer
	parser      Parser
	schemas     SchemaSource
	settings    Settings
	observer    Observer

	now   func() time.Time
	newID func() string

	running atomic.Bool
	mu      sync.RWMutex
	latest  *Report
}

func NewDriver(p DriverParams) *Driver {
	obs := p.Observer
	if obs == nil {
		obs = NopObserver{}
	}
	return &Driver{
		instruments: append([]types.Instrument(nil), p.Instruments...),
		holdings:    p.Holdings,
		aggregator:  p.Aggregator,
		composer:    p.Composer,
		engine:      p.Engine,
		parser:      p.Parser,
		schemas:     p.Schemas,
		settings:    p.Settings,
		observer:    obs,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

func (d *Driver) Instruments() []types.Instrument {
	return append([]types.Instrument(nil), d.instruments...)
}

// Running reports whether a cycle is in flight.
func (d *Driver) Running() bool { return d.running.Load() }

// Latest 返回最近一次完成的报告。
func (d *Driver) Latest() (Report, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.latest == nil {
		return Report{}, false
	}
	return *d.latest, true
}

// RunCycle 执行一次完整运行。单个标的失败不会中止运行；返回 error 只表示
// 运行无法开始（配置契约被破坏或已有运行）。
func (d *Driver) RunCycle(ctx context.Context) (Report, error) {
	if !d.running.CompareAndSwap(false, true) {
		return Report{}, ErrRunActive
	}
	defer d.running.Store(false)

	if err := d.checkContract(); err != nil {
		return Report{}, err
	}
	if d.settings.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.settings.RunTimeout)
		defer cancel()
	}

	runID := d.newID()
	started := d.now()
	ctx, span := trace.StartSpan(ctx, "pipeline.run", oteltrace.WithAttributes(
		attribute.String("run.id", runID),
		attribute.Int("run.instruments", len(d.instruments)),
	))
	defer span.End()

	d.observer.RunStarted(runID, len(d.instruments))
	logger.Infof("run %s started instruments=%d concurrency=%d", runID, len(d.instruments), d.concurrency())

	rc := d.newRunContext(ctx, runID, started)
	report := Report{RunID: runID, StartedAt: started}
	if err := rc.HoldingsErr(); err != nil {
		report.HoldingsError = err.Error()
	}

	outcomes := make([]Outcome, len(d.instruments))
	var group errgroup.Group
	group.SetLimit(d.concurrency())
	for i, inst := range d.instruments {
		i, inst := i, inst
		group.Go(func() error {
			outcomes[i] = d.process(ctx, inst, rc)
			d.observer.OutcomeRecorded(outcomes[i])
			return nil
		})
	}
	_ = group.Wait()

	report.Outcomes = outcomes
	report.FinishedAt = d.now()
	ok, bad := report.Counts()
	span.SetAttributes(attribute.Int("run.decided", ok), attribute.Int("run.failed", bad))
	d.observer.RunFinished(report)
	logger.Infof("run %s finished decided=%d failed=%d elapsed=%s", runID, ok, bad, report.FinishedAt.Sub(started).Truncate(time.Millisecond))

	d.mu.Lock()
	d.latest = &report
	d.mu.Unlock()
	return report, nil
}

func (d *Driver) concurrency() int {
	if d.settings.MaxConcurrency > 0 {
		return d.settings.MaxConcurrency
	}
	return 1
}

func (d *Driver) checkContract() error {
	switch {
	case d.aggregator == nil, d.composer == nil, d.engine == nil, d.parser == nil, d.schemas == nil:
		return fmt.Errorf("%w: driver is missing a collaborator", pipeline.ErrContract)
	}
	seen := make(map[string]bool, len(d.instruments))
	for _, inst := range d.instruments {
		if seen[inst.Symbol] {
			return fmt.Errorf("%w: duplicate symbol %s", pipeline.ErrContract, inst.Symbol)
		}
		seen[inst.Symbol] = true
		if _, err := types.ParseCategory(string(inst.Category)); err != nil {
			return fmt.Errorf("%w: %s: %v", pipeline.ErrContract, inst.Symbol, err)
		}
		if inst.Category == types.CategoryEquity && strings.TrimSpace(inst.ProviderID) == "" {
			return fmt.Errorf("%w: %s: equity requires a provider id", pipeline.ErrContract, inst.Symbol)
		}
	}
	return nil
}

// newRunContext 每次运行只拉取一次账户持仓，之后只读共享。
func (d *Driver) newRunContext(ctx context.Context, runID string, at time.Time) *pipeline.RunContext {
	var (
		holdings market.Payload
		err      error
	)
	if d.holdings != nil {
		start := d.now()
		holdings, err = d.holdings.Holdings(ctx)
		d.observer.StageDone("", market.KindHoldings, StateFetching, d.now().Sub(start), err)
		if err != nil {
			logger.Warnf("run %s: holdings unavailable: %v", runID, err)
		}
	}
	rc := pipeline.NewRunContext(runID, at, holdings, err)
	rc.Currency = d.settings.Currency
	rc.FXNote = d.settings.FXNote
	rc.NewsEnabled = d.settings.NewsEnabled
	rc.Schemas = d.schemas.Snapshot()
	return rc
}

func (d *Driver) process(ctx context.Context, inst types.Instrument, rc *pipeline.RunContext) (out Outcome) {
	start := d.now()
	ctx, span := trace.StartSpan(ctx, "pipeline.instrument", oteltrace.WithAttributes(
		attribute.String("instrument.symbol", inst.Symbol),
		attribute.String("instrument.category", string(inst.Category)),
	))
	defer func() {
		out.Elapsed = d.now().Sub(start)
		span.SetAttributes(attribute.String("outcome.state", string(out.State)))
		if out.Failure != nil {
			span.SetStatus(codes.Error, string(out.Failure.Reason))
		}
		span.End()
		logOutcome(ctx, rc.RunID, out)
	}()

	if err := ctx.Err(); err != nil {
		return failed(inst, StateFetching, ReasonCancelled, err.Error())
	}

	// Fetching → Aggregating
	t := d.now()
	bundle, err := d.aggregator.Aggregate(ctx, inst, rc)
	d.observer.StageDone(inst.Symbol, "", StateFetching, d.now().Sub(t), err)
	if err != nil {
		if ctx.Err() != nil {
			return failed(inst, StateFetching, ReasonCancelled, err.Error())
		}
		return failed(inst, StateFetching, ReasonDataFetchFailed, err.Error())
	}
	if bundle.Insufficient {
		detail := bundle.InsufficientReason
		if summary := bundle.FailureSummary(); summary != "" {
			detail += " (" + summary + ")"
		}
		return failedWithEvidence(inst, StateAggregating, ReasonInsufficientEvidence, detail, bundle)
	}

	// Composing
	req, err := d.composer.Compose(inst, bundle, rc)
	if err != nil {
		return failedWithEvidence(inst, StateComposing, ReasonInferenceFailed, err.Error(), bundle)
	}
	if err := ctx.Err(); err != nil {
		return failedWithEvidence(inst, StateComposing, ReasonCancelled, err.Error(), bundle)
	}

	// Inferring
	t = d.now()
	raw, err := d.engine.Infer(ctx, req)
	d.observer.StageDone(inst.Symbol, "", StateInferring, d.now().Sub(t), err)
	if err != nil {
		if ctx.Err() != nil {
			return failedWithEvidence(inst, StateInferring, ReasonCancelled, err.Error(), bundle)
		}
		return failedWithEvidence(inst, StateInferring, ReasonInferenceFailed, err.Error(), bundle)
	}

	// Parsing
	dec, err := d.parser.Parse(raw, req.Schema)
	if err != nil {
		return failedWithEvidence(inst, StateParsing, ReasonUnparsableDecision, err.Error(), bundle)
	}
	dec.Symbol = inst.Symbol
	return decided(inst, dec, bundle)
}

func logOutcome(ctx context.Context, runID string, o Outcome) {
	suffix := ""
	if traceID, _, ok := trace.Fields(ctx); ok {
		suffix = " trace_id=" + traceID
	}
	if o.Decided() {
		logger.Infof("run %s %s decided action=%s price=%g evidence=%s%s", runID, o.Symbol, o.Decision.Action, o.Decision.CurrentPrice, joinKinds(o.Evidence), suffix)
		return
	}
	logger.Warnf("run %s %s failed reason=%s stage=%s detail=%s%s", runID, o.Symbol, o.Failure.Reason, o.Failure.Stage, o.Failure.Detail, suffix)
}

func joinKinds(kinds []market.Kind) string {
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = string(k)
	}
	return strings.Join(parts, ",")
}
