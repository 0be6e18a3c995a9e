package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/querygate/internal/gate"
	"github.com/roach88/querygate/internal/queryir"
	"github.com/roach88/querygate/internal/querysql"
	"github.com/roach88/querygate/internal/schema"
	"github.com/roach88/querygate/internal/store"
	"github.com/roach88/querygate/internal/validator"
)

// Runner executes compiled queries. *Executor implements it.
type Runner interface {
	Run(ctx context.Context, c querysql.Compiled) (*Outcome, error)
}

// AuditSink records pipeline requests. *store.Store implements it.
type AuditSink interface {
	WriteAudit(ctx context.Context, rec store.AuditRecord) error
}

// Pipeline runs one request through validate, decide, compile, run and
// audit. It holds no per-request state and is safe for concurrent use
// when its collaborators are.
type Pipeline struct {
	provider   schema.Provider
	runner     Runner
	audit      AuditSink
	policy     validator.Policy
	thresholds gate.Thresholds
	ids        RequestIDGenerator
	now        func() time.Time
	logger     *slog.Logger

	validator *validator.Validator
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithPolicy sets the confidence scoring policy.
func WithPolicy(p validator.Policy) PipelineOption {
	return func(pl *Pipeline) { pl.policy = p }
}

// WithThresholds sets the gate thresholds.
func WithThresholds(t gate.Thresholds) PipelineOption {
	return func(pl *Pipeline) { pl.thresholds = t }
}

// WithAudit records every request to sink.
func WithAudit(sink AuditSink) PipelineOption {
	return func(pl *Pipeline) { pl.audit = sink }
}

// WithRequestIDs sets the request id generator.
func WithRequestIDs(g RequestIDGenerator) PipelineOption {
	return func(pl *Pipeline) { pl.ids = g }
}

// WithClock sets the time source for audit timestamps.
func WithClock(now func() time.Time) PipelineOption {
	return func(pl *Pipeline) { pl.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) PipelineOption {
	return func(pl *Pipeline) { pl.logger = l }
}

// NewPipeline creates a pipeline. runner may be nil, in which case allowed
// queries are compiled but not executed.
func NewPipeline(provider schema.Provider, runner Runner, opts ...PipelineOption) *Pipeline {
	pl := &Pipeline{
		provider:   provider,
		runner:     runner,
		policy:     validator.DefaultPolicy(),
		thresholds: gate.DefaultThresholds(),
		ids:        UUIDv7Generator{},
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(pl)
	}
	pl.validator = validator.New(provider,
		validator.WithPolicy(pl.policy),
		validator.WithLogger(pl.logger))
	return pl
}

// Request is one query to gate and execute.
type Request struct {
	Query *queryir.Query

	// DatasetID overrides Query.DatasetID when set.
	DatasetID string

	// RawQuery is the user's original wording, kept for the audit trail.
	RawQuery string
}

// Response is the pipeline's account of a request.
type Response struct {
	RequestID   string                      `json:"request_id"`
	DatasetID   string                      `json:"dataset_id"`
	Fingerprint string                      `json:"fingerprint"`
	Validation  *validator.ValidationResult `json:"validation"`
	Decision    gate.Decision               `json:"decision"`
	SQL         string                      `json:"sql,omitempty"`
	Params      []any                       `json:"params,omitempty"`
	Profiling   bool                        `json:"profiling,omitempty"`
	Outcome     *Outcome                    `json:"outcome,omitempty"`
	Chart       *schema.ChartSuggestion     `json:"chart,omitempty"`
	Status      store.Status                `json:"status,omitempty"`
}

// Execute validates, gates, compiles and runs a request.
//
// A blocked request is not an error: the response carries the Block
// decision and nothing reaches the engine. A missing schema is returned
// wrapped (errors.Is schema.ErrSchemaNotFound). Execution errors are
// returned unchanged, after the failure has been audited.
func (p *Pipeline) Execute(ctx context.Context, req Request) (*Response, error) {
	if req.Query == nil {
		return nil, fmt.Errorf("execute: nil query")
	}
	datasetID := req.DatasetID
	if datasetID == "" {
		datasetID = req.Query.DatasetID
	}
	if datasetID == "" {
		return nil, fmt.Errorf("execute: dataset id is required")
	}

	resp := &Response{RequestID: p.ids.Generate(), DatasetID: datasetID}

	fp, err := queryir.Fingerprint(req.Query)
	if err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}
	resp.Fingerprint = fp

	snap, err := p.provider.Schema(ctx, datasetID)
	if err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}

	res := p.validator.ValidateSnapshot(req.Query, snap)
	resp.Validation = res
	resp.Decision = p.thresholds.Decide(res)

	p.logger.Info("gate decision",
		"request_id", resp.RequestID,
		"dataset", datasetID,
		"action", resp.Decision.Action.String(),
		"confidence", res.ConfidenceScore)

	if !resp.Decision.Action.Allowed() {
		resp.Status = store.StatusBlocked
		return resp, p.record(ctx, req, resp, "")
	}

	compiler := &querysql.SQLCompiler{}
	if snap.Table() != "" {
		compiler.Tables = map[string]string{datasetID: snap.Table()}
	}
	compiled, err := compiler.Compile(res.CorrectedQuery)
	if err != nil {
		resp.Status = store.StatusFailed
		if auditErr := p.record(ctx, req, resp, err.Error()); auditErr != nil {
			p.logger.Warn("audit failed", "request_id", resp.RequestID, "error", auditErr)
		}
		return nil, fmt.Errorf("execute: compile: %w", err)
	}

	switch c := compiled.(type) {
	case querysql.ProfilingSignal:
		resp.Profiling = true
	case *querysql.Statement:
		resp.SQL, resp.Params = c.SQL()
	}

	if p.runner == nil {
		return resp, nil
	}

	outcome, err := p.runner.Run(ctx, compiled)
	if err != nil {
		resp.Status = store.StatusFailed
		if auditErr := p.record(ctx, req, resp, err.Error()); auditErr != nil {
			p.logger.Warn("audit failed", "request_id", resp.RequestID, "error", auditErr)
		}
		p.logger.Error("execution failed", "request_id", resp.RequestID, "error", err)
		return nil, err
	}

	resp.Outcome = outcome
	if outcome.Result != nil {
		resp.Chart = suggestChart(res.CorrectedQuery, snap, outcome.Result.Columns)
	}
	resp.Status = store.StatusSuccess
	if resp.Profiling {
		resp.Status = store.StatusProfiled
	}
	return resp, p.record(ctx, req, resp, "")
}

// record writes the audit row for a finished request.
func (p *Pipeline) record(ctx context.Context, req Request, resp *Response, errMsg string) error {
	if p.audit == nil {
		return nil
	}

	planned, err := json.Marshal(req.Query)
	if err != nil {
		return fmt.Errorf("audit: encode planned query: %w", err)
	}
	corrected, err := json.Marshal(resp.Validation.CorrectedQuery)
	if err != nil {
		return fmt.Errorf("audit: encode corrected query: %w", err)
	}
	corrections, err := json.Marshal(resp.Validation.Corrections)
	if err != nil {
		return fmt.Errorf("audit: encode corrections: %w", err)
	}

	rec := store.AuditRecord{
		ID:             resp.RequestID,
		DatasetID:      resp.DatasetID,
		RawQuery:       req.RawQuery,
		PlannedQuery:   planned,
		Fingerprint:    resp.Fingerprint,
		CorrectedQuery: corrected,
		Corrections:    corrections,
		Errors:         resp.Validation.Errors,
		Confidence:     resp.Validation.ConfidenceScore,
		Decision:       resp.Decision.Action.String(),
		FinalSQL:       resp.SQL,
		Status:         resp.Status,
		ErrorMessage:   errMsg,
		RowCount:       resp.Outcome.RowCount(),
		CreatedAt:      p.now(),
	}
	if err := p.audit.WriteAudit(ctx, rec); err != nil {
		return fmt.Errorf("audit: %w", err)
	}
	return nil
}

// suggestChart types the result columns and picks chart axes. Schema
// columns keep their semantic type, aggregate aliases are numeric except
// MIN and MAX, which keep their source column's type.
func suggestChart(q *queryir.Query, snap *schema.Snapshot, names []string) *schema.ChartSuggestion {
	aliases := make(map[string]schema.SemanticType, len(q.Aggregations))
	for _, agg := range q.Aggregations {
		typ := schema.Numeric
		if agg.Function == queryir.Min || agg.Function == queryir.Max {
			if src, ok := snap.Column(agg.Column); ok {
				typ = src.SemanticType
			}
		}
		aliases[querysql.AggregateAlias(agg)] = typ
	}

	cols := make([]schema.Column, len(names))
	for i, name := range names {
		if col, ok := snap.Column(name); ok {
			cols[i] = col
			continue
		}
		typ, ok := aliases[name]
		if !ok {
			typ = schema.Categorical
		}
		cols[i] = schema.Column{Name: name, SemanticType: typ}
	}

	chart, ok := schema.SuggestChart(cols)
	if !ok {
		return nil
	}
	return &chart
}
