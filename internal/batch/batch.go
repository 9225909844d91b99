// Package batch applies one operation to a list of ids under a strict or a
// lenient policy for ids that do not exist.
package batch

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/tuanvumaihuynh/product-catalog/internal/apperr"
	"github.com/tuanvumaihuynh/product-catalog/pkg/zerror"
)

type Policy uint8

const (
	// Strict aborts the whole batch when any id is missing.
	Strict Policy = iota
	// Lenient drops missing ids and proceeds with the rest.
	Lenient
)

func (p Policy) String() string {
	if p == Lenient {
		return "lenient"
	}
	return "strict"
}

// ParsePolicy reads a policy name. The empty string selects Strict.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return Strict, nil
	case "lenient":
		return Lenient, nil
	default:
		return Strict, apperr.InvalidBatchPolicyErr.WithMsgf("unknown batch policy %q, must be one of [strict lenient]", s)
	}
}

// MissingError names the ids a strict batch could not find.
type MissingError struct {
	IDs []int64
}

func (e *MissingError) Error() string {
	return "missing ids: " + FormatIDs(e.IDs)
}

// FormatIDs renders ids as a comma separated list.
func FormatIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ", ")
}

// Dedupe removes repeated ids, keeping the first occurrence.
func Dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Partition splits the deduplicated requested ids into those found in existing
// and those missing, both in request order.
func Partition(requested, existing []int64) (present, missing []int64) {
	found := make(map[int64]struct{}, len(existing))
	for _, id := range existing {
		found[id] = struct{}{}
	}

	present = []int64{}
	missing = []int64{}
	for _, id := range Dedupe(requested) {
		if _, ok := found[id]; ok {
			present = append(present, id)
		} else {
			missing = append(missing, id)
		}
	}
	return present, missing
}

// Result is what a batch applied to and what it skipped.
type Result[T any] struct {
	Items   []T
	Skipped []int64
}

// Spec wires one batch run.
type Spec[T any] struct {
	Policy Policy
	IDs    []int64
	// Existing returns which of the ids exist.
	Existing func(ctx context.Context, ids []int64) ([]int64, error)
	// NotFound is returned, carrying a MissingError, when a strict batch
	// has missing ids.
	NotFound zerror.ZError
	// Apply runs the operation on the working set.
	Apply func(ctx context.Context, ids []int64) ([]T, error)
}

// Run resolves the working set under the policy and applies the operation to
// it. A strict batch with missing ids fails before Apply is called. Existing
// and Apply must run on the same transaction for the check to hold.
func Run[T any](ctx context.Context, spec Spec[T]) (Result[T], error) {
	existing, err := spec.Existing(ctx, spec.IDs)
	if err != nil {
		return Result[T]{}, fmt.Errorf("lookup existing ids: %w", err)
	}

	present, missing := Partition(spec.IDs, existing)
	if len(missing) > 0 && spec.Policy == Strict {
		return Result[T]{}, spec.NotFound.
			WithMsgf("%s: %s", spec.NotFound.Msg(), FormatIDs(missing)).
			WithMeta("missing_ids", missing).
			WrapParent(&MissingError{IDs: missing})
	}

	items := []T{}
	if len(present) > 0 {
		items, err = spec.Apply(ctx, present)
		if err != nil {
			return Result[T]{}, err
		}
	}

	return Result[T]{Items: items, Skipped: missing}, nil
}

// Each applies fn to every item in order and stops at the first error. Items
// are not processed in parallel.
func Each[In, Out any](ctx context.Context, items []In, fn func(ctx context.Context, item In) (Out, error)) ([]Out, error) {
	out := make([]Out, 0, len(items))
	for i, item := range items {
		res, err := fn(ctx, item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out = append(out, res)
	}
	return out, nil
}
