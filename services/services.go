// Package services holds the business rules: catalog, menu gate, orders with
// stock reservation, payment confirmation and delivery assignment.
package services

import (
	"sort"
	"time"
)

// Clock returns the current time; tests substitute a fixed one
type Clock func() time.Time

func sortedIDs[V any](m map[uint]V) []uint {
	ids := make([]uint, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
