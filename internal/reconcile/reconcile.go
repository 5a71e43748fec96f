// Package reconcile repairs the user-facing sequential project ids.
// The invariant: ids across all projects form a dense 1..N sequence
// with no duplicates. Every projects snapshot runs through here before
// anything else consumes it.
package reconcile

import (
	"log"
	"sort"

	"github.com/rmcastelo/painel/internal/store"
)

// Reconciler issues the batched id repairs against the store.
type Reconciler struct {
	store *store.Store
}

func New(s *store.Store) *Reconciler {
	return &Reconciler{store: s}
}

// NeedsRepair reports whether any id is duplicated, zero or missing.
func NeedsRepair(projects []store.Project) bool {
	seen := make(map[int]bool, len(projects))
	for _, p := range projects {
		if p.ID == 0 {
			return true
		}
		if seen[p.ID] {
			return true
		}
		seen[p.ID] = true
	}
	return false
}

// sortForAssignment orders projects for id reassignment: creation time
// ascending; a project without a creation time goes before one that
// has it, since legacy records predate timestamping; when neither has
// one, name decides.
func sortForAssignment(projects []store.Project) []store.Project {
	sorted := append([]store.Project(nil), projects...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].CreatedAt, sorted[j].CreatedAt
		switch {
		case a != nil && b != nil:
			return a.Before(*b)
		case a == nil && b != nil:
			return true
		case a != nil && b == nil:
			return false
		default:
			return sorted[i].Nome < sorted[j].Nome
		}
	})
	return sorted
}

// Run checks the snapshot and, when the invariant is broken, rewrites
// ids as a single atomic batch containing only the documents whose id
// actually changes. The returned list carries the repaired ids in id
// order regardless of whether the batch landed: the in-memory view is
// patched optimistically, and a failed batch is retried naturally by
// the next snapshot. Repeated runs converge to zero writes.
func (r *Reconciler) Run(projects []store.Project) ([]store.Project, int, error) {
	if len(projects) == 0 || !NeedsRepair(projects) {
		return projects, 0, nil
	}

	sorted := sortForAssignment(projects)
	batch := r.store.NewBatch()
	for i := range sorted {
		newID := i + 1
		if sorted[i].ID != newID {
			sorted[i].ID = newID
			batch.Update(store.CollectionProjects, sorted[i].DocID, map[string]any{"id": newID})
		}
	}

	writes := batch.Len()
	if err := batch.Commit(); err != nil {
		log.Printf("reconcile project ids: %v", err)
		return sorted, writes, err
	}
	return sorted, writes, nil
}
