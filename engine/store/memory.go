// Package store provides FactStore implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/seva-insights/engine"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	byRegion map[string][]engine.Record
}

func NewMemory(records ...engine.Record) *Memory {
	m := &Memory{byRegion: make(map[string][]engine.Record)}
	m.Add(records...)
	return m
}

// Add loads records, standing in for the batch loader.
func (m *Memory) Add(records ...engine.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		m.byRegion[r.Region] = append(m.byRegion[r.Region], r)
	}
}

func (m *Memory) ListRegions(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	regions := make([]string, 0, len(m.byRegion))
	for r := range m.byRegion {
		regions = append(regions, r)
	}
	sort.Strings(regions)
	return regions, nil
}

// FetchRegion returns a copy so callers cannot mutate the stored rows.
func (m *Memory) FetchRegion(_ context.Context, region string) ([]engine.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows := m.byRegion[region]
	out := make([]engine.Record, len(rows))
	copy(out, rows)
	return out, nil
}

func (m *Memory) DemandByRegion(ctx context.Context) ([]engine.RegionDemand, error) {
	regions, _ := m.ListRegions(ctx)

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]engine.RegionDemand, 0, len(regions))
	for _, region := range regions {
		var demand int64
		for _, r := range m.byRegion[region] {
			demand += engine.TotalActivity(r)
		}
		out = append(out, engine.RegionDemand{Region: region, Demand: demand})
	}
	return out, nil
}
