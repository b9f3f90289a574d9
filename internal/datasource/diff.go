package datasource

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/vanderheijden86/orbview/pkg/loader"
	"github.com/vanderheijden86/orbview/pkg/model"
)

// SourceDiff represents differences between the orders of two sources
type SourceDiff struct {
	SourceA string
	SourceB string
	// MissingInA contains order ids present in B but not in A
	MissingInA []string
	// MissingInB contains order ids present in A but not in B
	MissingInB []string
	// ScheduleMismatch contains order ids whose schedules differ
	ScheduleMismatch []string
	CountA           int
	CountB           int
}

// HasInconsistencies returns true if there are any differences between sources
func (d SourceDiff) HasInconsistencies() bool {
	return len(d.MissingInA) > 0 || len(d.MissingInB) > 0 || len(d.ScheduleMismatch) > 0
}

// Summary returns a human-readable summary of the differences
func (d SourceDiff) Summary() string {
	if !d.HasInconsistencies() {
		return fmt.Sprintf("Sources match (%d orders each)", d.CountA)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Inconsistencies found between %s and %s:\n", d.SourceA, d.SourceB)
	if d.CountA != d.CountB {
		fmt.Fprintf(&b, "  - Count mismatch: %d vs %d\n", d.CountA, d.CountB)
	}
	list := func(ids []string, format string, args ...any) {
		if len(ids) == 0 {
			return
		}
		fmt.Fprintf(&b, format, args...)
		if len(ids) <= 5 {
			for _, id := range ids {
				fmt.Fprintf(&b, "    - %s\n", id)
			}
		}
	}
	list(d.MissingInA, "  - %d orders in %s but not %s\n", len(d.MissingInA), d.SourceB, d.SourceA)
	list(d.MissingInB, "  - %d orders in %s but not %s\n", len(d.MissingInB), d.SourceA, d.SourceB)
	list(d.ScheduleMismatch, "  - %d orders with different schedules\n", len(d.ScheduleMismatch))
	return b.String()
}

// DetectInconsistencies compares two sets of orders by id. Schedules are
// compared with the same signature the explorer uses to match orders to
// plans.
func DetectInconsistencies(ordersA, ordersB []model.Order, sourceA, sourceB string) SourceDiff {
	diff := SourceDiff{SourceA: sourceA, SourceB: sourceB}

	mapA := make(map[string]model.Order, len(ordersA))
	for _, o := range ordersA {
		mapA[o.OrderID] = o
	}
	mapB := make(map[string]model.Order, len(ordersB))
	for _, o := range ordersB {
		mapB[o.OrderID] = o
	}
	diff.CountA = len(mapA)
	diff.CountB = len(mapB)

	for id := range mapA {
		if _, ok := mapB[id]; !ok {
			diff.MissingInB = append(diff.MissingInB, id)
		}
	}
	for id, b := range mapB {
		a, ok := mapA[id]
		if !ok {
			diff.MissingInA = append(diff.MissingInA, id)
			continue
		}
		if !sameSchedule(a.Schedule, b.Schedule) {
			diff.ScheduleMismatch = append(diff.ScheduleMismatch, id)
		}
	}
	sort.Strings(diff.MissingInA)
	sort.Strings(diff.MissingInB)
	sort.Strings(diff.ScheduleMismatch)
	return diff
}

func sameSchedule(a, b []model.ScheduleItem) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Target != b[i].Target || a[i].StartTime != b[i].StartTime || a[i].Satellite != b[i].Satellite {
			return false
		}
	}
	return true
}

// CompareSources loads and compares two data sources
func CompareSources(ctx context.Context, sourceA, sourceB DataSource) (*SourceDiff, error) {
	quiet := loader.ParseOptions{WarningHandler: func(string) {}}
	ordersA, err := LoadFromSource(ctx, sourceA, quiet)
	if err != nil {
		return nil, fmt.Errorf("failed to load source A (%s): %w", sourceA.Path, err)
	}
	ordersB, err := LoadFromSource(ctx, sourceB, quiet)
	if err != nil {
		return nil, fmt.Errorf("failed to load source B (%s): %w", sourceB.Path, err)
	}
	diff := DetectInconsistencies(ordersA, ordersB, sourceA.Path, sourceB.Path)
	return &diff, nil
}
