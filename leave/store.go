/*
store.go - Persistence interfaces (external collaborators)

PURPOSE:
  The engine performs no I/O of its own; these interfaces are the
  contracts its collaborators implement. The record store supplies raw
  records and accepts derived-field write-backs; the policy store
  supplies the tenant's leave policy.

DERIVED-FIELD WRITES:
  UpdateDerived is fire-and-forget from the engine's perspective: a
  failed write-back never invalidates the freshly computed answer, it
  just leaves a stale copy for the next sweep to heal.

IMPLEMENTATIONS:
  - store/sqlite: production SQLite store
  - leave/store:  in-memory store for tests and development
*/
package leave

import (
	"context"

	"github.com/warp/leave-engine/quota"
)

// =============================================================================
// RECORD STORE
// =============================================================================

// RecordStore persists leave records. Create assigns Seq, the insertion
// order used to keep recomputation reproducible.
type RecordStore interface {
	Get(ctx context.Context, id quota.RecordID) (*Record, error)
	List(ctx context.Context) ([]*Record, error)
	ListByPerson(ctx context.Context, personID PersonID) ([]*Record, error)

	Create(ctx context.Context, rec *Record) error
	Update(ctx context.Context, rec *Record) error

	// UpdateDerived writes back only the engine-owned fields.
	UpdateDerived(ctx context.Context, id quota.RecordID, f quota.DerivedFields) error

	// Delete removes a record. The engine tolerates records disappearing
	// between sweeps; deletion is the store owner's call.
	Delete(ctx context.Context, id quota.RecordID) error
}

// =============================================================================
// POLICY STORE
// =============================================================================

// PolicyStore persists the tenant's leave policy.
type PolicyStore interface {
	GetPolicy(ctx context.Context) (quota.Policy, error)
	SavePolicy(ctx context.Context, p quota.Policy) error
}
