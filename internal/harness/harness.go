package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/querygate/internal/engine"
	"github.com/roach88/querygate/internal/querysql"
	"github.com/roach88/querygate/internal/schema"
	"github.com/roach88/querygate/internal/store"
	"github.com/roach88/querygate/internal/testutil"
)

// Harness holds the per-scenario collaborators.
type Harness struct {
	store  *store.Store
	clock  *testutil.DeterministicClock
	ids    *testutil.SequentialIDGenerator
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory catalog, which is both the
// schema provider and the audit sink. Execution flow:
//  1. Register the dataset (declared, or imported from inline CSV)
//  2. Run the query through the pipeline
//  3. Cross-check the audit record, if one was written
//  4. Evaluate expectations
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		clock:  testutil.NewDeterministicClock(),
		ids:    testutil.NewSequentialIDGenerator("req"),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	st.SetClock(h.clock.Now)

	var runner engine.Runner
	if scenario.Data != "" {
		exec, err := engine.Open(engine.DriverSQLite, "", h.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open engine: %w", err)
		}
		defer exec.Close()

		if err := h.importData(ctx, exec, scenario); err != nil {
			return nil, err
		}
		runner = exec
	} else if err := h.declare(ctx, scenario.Schema); err != nil {
		return nil, err
	}

	pl := engine.NewPipeline(st, runner,
		engine.WithAudit(st),
		engine.WithRequestIDs(h.ids),
		engine.WithClock(h.clock.Now),
		engine.WithLogger(h.logger))

	query := scenario.Query
	resp, err := pl.Execute(ctx, engine.Request{
		Query:     &query,
		DatasetID: scenario.Schema.ID,
		RawQuery:  scenario.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	result := NewResult()
	result.Trace = buildTrace(scenario.Name, resp)

	if msg := h.checkAudit(ctx, resp); msg != "" {
		result.AddError(msg)
	}
	for _, msg := range EvaluateExpectations(scenario.Expect, resp) {
		result.AddError(msg)
	}

	h.logger.Info("scenario completed",
		"scenario", scenario.Name,
		"request_id", resp.RequestID,
		"pass", result.Pass)
	return result, nil
}

// declare registers a declared schema in the catalog.
func (h *Harness) declare(ctx context.Context, decl schema.Declaration) error {
	snap, err := decl.Snapshot()
	if err != nil {
		return fmt.Errorf("invalid schema: %w", err)
	}
	table := snap.Table()
	if table == "" {
		table = querysql.TableName(snap.DatasetID())
	}
	ds := store.Dataset{ID: snap.DatasetID(), Table: table, Kind: schema.Classify(snap)}
	if err := h.store.PutDataset(ctx, ds, snap.WithTable(table)); err != nil {
		return fmt.Errorf("failed to register dataset: %w", err)
	}
	return nil
}

// importData loads the inline CSV and registers the imported snapshot.
func (h *Harness) importData(ctx context.Context, exec *engine.Executor, scenario *Scenario) error {
	dir, err := os.MkdirTemp("", "querygate-scenario-")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, scenario.Schema.ID+".csv")
	if err := os.WriteFile(path, []byte(scenario.Data), 0o600); err != nil {
		return fmt.Errorf("failed to write scenario data: %w", err)
	}

	imp, err := exec.Import(ctx, scenario.Schema.ID, path)
	if err != nil {
		return fmt.Errorf("failed to import scenario data: %w", err)
	}

	ds := store.Dataset{
		ID:         scenario.Schema.ID,
		Table:      imp.Table,
		SourcePath: "inline",
		Kind:       schema.Classify(imp.Snapshot),
		RowCount:   imp.RowCount,
	}
	if err := h.store.PutDataset(ctx, ds, imp.Snapshot); err != nil {
		return fmt.Errorf("failed to register dataset: %w", err)
	}
	return nil
}

// checkAudit confirms that an audited response was recorded as reported.
func (h *Harness) checkAudit(ctx context.Context, resp *engine.Response) string {
	if resp.Status == "" {
		return ""
	}
	rec, err := h.store.GetAudit(ctx, resp.RequestID)
	if err != nil {
		return fmt.Sprintf("audit record %s: %v", resp.RequestID, err)
	}
	if rec.Status != resp.Status || rec.Decision != resp.Decision.Action.String() {
		return fmt.Sprintf("audit record %s: got %s/%s, response says %s/%s",
			resp.RequestID, rec.Decision, rec.Status, resp.Decision.Action, resp.Status)
	}
	return ""
}

func buildTrace(name string, resp *engine.Response) *Trace {
	v := resp.Validation
	tr := &Trace{
		Scenario:    name,
		RequestID:   resp.RequestID,
		DatasetID:   resp.DatasetID,
		Valid:       v.IsValid,
		Corrections: v.Corrections,
		Errors:      v.Errors,
		Confidence:  v.ConfidenceScore,
		FollowUps:   v.FollowUps,
		Action:      resp.Decision.Action.String(),
		Message:     resp.Decision.Message,
		SQL:         resp.SQL,
		Params:      resp.Params,
		Profiling:   resp.Profiling,
		Status:      string(resp.Status),
	}
	if resp.Outcome != nil {
		tr.RowCount = resp.Outcome.RowCount()
		if resp.Outcome.Result != nil {
			tr.Rows = resp.Outcome.Result.Rows
		}
	}
	return tr
}
