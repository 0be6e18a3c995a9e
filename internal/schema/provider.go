package schema

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrSchemaNotFound is returned when no snapshot exists for a dataset.
// It is fatal for a request: nothing can be validated without a schema.
var ErrSchemaNotFound = errors.New("schema not found")

// NotFoundError names the dataset whose schema could not be loaded.
// errors.Is(err, ErrSchemaNotFound) holds for every NotFoundError.
type NotFoundError struct {
	DatasetID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("schema not found for dataset %q", e.DatasetID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrSchemaNotFound
}

// Provider loads the schema snapshot of a dataset.
type Provider interface {
	Schema(ctx context.Context, datasetID string) (*Snapshot, error)
}

// MemoryProvider serves snapshots held in memory.
// Safe for concurrent use.
type MemoryProvider struct {
	mu        sync.RWMutex
	snapshots map[string]*Snapshot
}

// NewMemoryProvider creates a provider preloaded with snapshots.
func NewMemoryProvider(snapshots ...*Snapshot) *MemoryProvider {
	p := &MemoryProvider{snapshots: make(map[string]*Snapshot, len(snapshots))}
	for _, s := range snapshots {
		p.snapshots[s.DatasetID()] = s
	}
	return p
}

// Put adds or replaces a snapshot.
func (p *MemoryProvider) Put(s *Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshots[s.DatasetID()] = s
}

// Schema implements Provider.
func (p *MemoryProvider) Schema(ctx context.Context, datasetID string) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.snapshots[datasetID]
	if !ok {
		return nil, &NotFoundError{DatasetID: datasetID}
	}
	return s, nil
}

// DatasetIDs returns the known dataset ids, sorted.
func (p *MemoryProvider) DatasetIDs() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ids := make([]string, 0, len(p.snapshots))
	for id := range p.snapshots {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
