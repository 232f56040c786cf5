/*
store.go - Read interface to the fact store

PURPOSE:
  Defines the boundary between the engine and the database. The fact
  table is batch-loaded before the system runs; from here it is read-only.

KEY INTERFACES:
  FactStore:   Region enumeration and per-region record reads
  DemandStore: Whole-table demand per region (the region treemap)

READ-ONLY CONTRACT:
  No method creates, updates or deletes a record. Regions are passed as
  bound parameters, never formatted into query text.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - engine/store/memory.go: In-memory for testing

SEE ALSO:
  - analysis.go: LoadAnalysis uses FactStore
*/
package engine

import "context"

// FactStore reads per-district daily records.
type FactStore interface {
	// ListRegions returns the distinct regions in ascending lexical order.
	ListRegions(ctx context.Context) ([]string, error)

	// FetchRegion returns every record of region, in no particular order.
	FetchRegion(ctx context.Context, region string) ([]Record, error)
}

// DemandStore extends FactStore with the cross-region aggregate.
type DemandStore interface {
	FactStore

	// DemandByRegion sums TotalActivity per region, ordered by region.
	DemandByRegion(ctx context.Context) ([]RegionDemand, error)
}
