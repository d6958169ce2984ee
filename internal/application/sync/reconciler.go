package sync

import (
	"context"
	"fmt"
)

// Outcome holds the counters of one reconciliation pass
type Outcome struct {
	Created int
	Updated int
	Failed  int
	Errors  []error
}

// add folds another outcome into this one
func (o *Outcome) add(other Outcome) {
	o.Created += other.Created
	o.Updated += other.Updated
	o.Failed += other.Failed
	o.Errors = append(o.Errors, other.Errors...)
}

// reconcile converges one batch of drafts against the local store. Existing
// rows are bulk-loaded once by remote id; drafts partition into a create set
// (batched conflict-tolerant insert) and an update set (batched write of the
// entity's fixed column list). A batch-level failure degrades to
// record-by-record retry so one bad record cannot sacrifice the whole page.
func reconcile[T any](ctx context.Context, w BulkWriter[T], scopeID any, drafts []*T, key func(*T) string) (Outcome, error) {
	var out Outcome
	if len(drafts) == 0 {
		return out, nil
	}

	remoteIDs := make([]string, 0, len(drafts))
	for _, d := range drafts {
		remoteIDs = append(remoteIDs, key(d))
	}

	existing, err := w.ExistingKeys(ctx, scopeID, remoteIDs)
	if err != nil {
		return out, fmt.Errorf("bulk lookup failed: %w", err)
	}

	var creates, updates []*T
	for _, d := range drafts {
		if _, ok := existing[key(d)]; ok {
			updates = append(updates, d)
		} else {
			creates = append(creates, d)
		}
	}

	created, err := w.InsertIgnoring(ctx, creates)
	if err != nil {
		out.add(insertEach(ctx, w, creates, key))
	} else {
		out.Created += created
	}

	updated, err := w.Update(ctx, updates)
	if err != nil {
		out.add(updateEach(ctx, w, updates, key))
	} else {
		out.Updated += updated
	}

	return out, nil
}

// insertEach retries a failed insert batch one record at a time
func insertEach[T any](ctx context.Context, w BulkWriter[T], rows []*T, key func(*T) string) Outcome {
	var out Outcome
	for _, row := range rows {
		n, err := w.InsertIgnoring(ctx, []*T{row})
		if err != nil {
			out.Failed++
			out.Errors = append(out.Errors, fmt.Errorf("insert %s: %w", key(row), err))
			continue
		}
		out.Created += n
	}
	return out
}

// updateEach retries a failed update batch one record at a time
func updateEach[T any](ctx context.Context, w BulkWriter[T], rows []*T, key func(*T) string) Outcome {
	var out Outcome
	for _, row := range rows {
		n, err := w.Update(ctx, []*T{row})
		if err != nil {
			out.Failed++
			out.Errors = append(out.Errors, fmt.Errorf("update %s: %w", key(row), err))
			continue
		}
		out.Updated += n
	}
	return out
}

// replaceChildren converges a parent-scoped child collection: children are
// upserted first so just-created rows hold their local ids, then every
// existing child absent from the desired set is swept.
func replaceChildren[T any](ctx context.Context, w BulkWriter[T], parentID any, drafts []*T, key func(*T) string) (Outcome, int64, error) {
	out, err := reconcile(ctx, w, parentID, drafts, key)
	if err != nil {
		return out, 0, err
	}

	keep := make([]string, 0, len(drafts))
	for _, d := range drafts {
		keep = append(keep, key(d))
	}
	deleted, err := w.DeleteMissing(ctx, parentID, keep)
	if err != nil {
		return out, 0, fmt.Errorf("orphan sweep failed: %w", err)
	}
	return out, deleted, nil
}

// replaceWholesale rebuilds a child collection that has no remote identity:
// the stored set is cleared and the desired set inserted.
func replaceWholesale[T any](ctx context.Context, w ReplaceWriter[T], parentID any, rows []*T) error {
	if _, err := w.DeleteMissing(ctx, parentID, nil); err != nil {
		return err
	}
	_, err := w.Insert(ctx, rows)
	return err
}
