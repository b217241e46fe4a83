// Package store provides an in-memory leave store for tests and development.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/quota"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu      sync.RWMutex
	records map[quota.RecordID]*leave.Record
	policy  *quota.Policy
	nextSeq int64
}

func NewMemory() *Memory {
	return &Memory{records: make(map[quota.RecordID]*leave.Record)}
}

var _ leave.RecordStore = (*Memory)(nil)
var _ leave.PolicyStore = (*Memory)(nil)

// =============================================================================
// RECORD STORE
// =============================================================================

func (m *Memory) Get(_ context.Context, id quota.RecordID) (*leave.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[id]
	if !ok {
		return nil, leave.ErrRecordNotFound
	}
	clone := *rec
	return &clone, nil
}

func (m *Memory) List(_ context.Context) ([]*leave.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked(func(*leave.Record) bool { return true }), nil
}

func (m *Memory) ListByPerson(_ context.Context, personID leave.PersonID) ([]*leave.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked(func(r *leave.Record) bool { return r.PersonID == personID }), nil
}

func (m *Memory) Create(_ context.Context, rec *leave.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextSeq++
	rec.Seq = m.nextSeq
	clone := *rec
	m.records[rec.ID] = &clone
	return nil
}

func (m *Memory) Update(_ context.Context, rec *leave.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.records[rec.ID]
	if !ok {
		return leave.ErrRecordNotFound
	}
	rec.Seq = existing.Seq // insertion order is immutable
	clone := *rec
	m.records[rec.ID] = &clone
	return nil
}

func (m *Memory) UpdateDerived(_ context.Context, id quota.RecordID, f quota.DerivedFields) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok {
		return leave.ErrRecordNotFound
	}
	rec.SetDerived(f)
	return nil
}

func (m *Memory) Delete(_ context.Context, id quota.RecordID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[id]; !ok {
		return leave.ErrRecordNotFound
	}
	delete(m.records, id)
	return nil
}

// snapshotLocked returns cloned records in insertion order.
func (m *Memory) snapshotLocked(keep func(*leave.Record) bool) []*leave.Record {
	var out []*leave.Record
	for _, rec := range m.records {
		if keep(rec) {
			clone := *rec
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

// =============================================================================
// POLICY STORE
// =============================================================================

func (m *Memory) GetPolicy(_ context.Context) (quota.Policy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.policy == nil {
		return quota.Policy{}, leave.ErrPolicyNotFound
	}
	return *m.policy, nil
}

func (m *Memory) SavePolicy(_ context.Context, p quota.Policy) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	clone := p
	m.policy = &clone
	return nil
}
