package services

import (
	"context"
	"time"

	"food-ordering-api/apperr"
	"food-ordering-api/models"
	"food-ordering-api/store"
)

// Line is a requested content change: Quantity units of an orderable
type Line struct {
	OrderableID uint `json:"orderable_id"`
	Quantity    int  `json:"quantity"`
}

// resolvedLine pairs a line with its loaded orderable
type resolvedLine struct {
	orderable models.Orderable
	quantity  int
}

// itemDeltas is the flattening of orderable quantities into per-item stock
// deltas. owners remembers, per item, the first orderable that consumed it so
// a shortage can be reported against what the customer asked for.
type itemDeltas struct {
	units  map[uint]int
	owners map[uint]models.Orderable
}

// expand sums the item deltas of every line. Items shared by several lines
// (two bundles with a common constituent, or a bundle and the item itself)
// accumulate before any stock check.
func expand(lines []resolvedLine) itemDeltas {
	d := itemDeltas{units: map[uint]int{}, owners: map[uint]models.Orderable{}}
	for _, l := range lines {
		for itemID, n := range l.orderable.ItemDeltas(l.quantity) {
			d.units[itemID] += n
			if _, ok := d.owners[itemID]; !ok {
				d.owners[itemID] = l.orderable
			}
		}
	}
	return d
}

// offered rejects an orderable a customer could not pick from the menu at now:
// off the menu, a bundle outside its date window, or a bundle with a
// constituent taken off the menu. Stock is left to reserve so a shortfall is
// reported against the limiting item.
func offered(o models.Orderable, now time.Time) error {
	if !o.InMenu() {
		return apperr.Conflictf("%s is not on the menu", o.DisplayName())
	}
	switch v := o.(type) {
	case *models.Bundle:
		if !v.InWindow(now) {
			return apperr.Conflictf("%s is not available (offered %s to %s)", v.Name,
				v.StartDate.Format(time.DateOnly), v.EndDate.Format(time.DateOnly))
		}
		for _, bi := range v.Items {
			if !bi.Item.IsInMenu {
				return apperr.Conflictf("%s is not available: %s is off the menu", v.Name, bi.Item.Name)
			}
		}
	}
	return nil
}

func shortage(owner models.Orderable, available int) error {
	return apperr.Conflictf("Not enough stock for %s (available: %d)", owner.DisplayName(), available)
}

// reserve validates every delta against current stock, then applies all of
// them. Must run inside a transaction: on any failure nothing is written.
func reserve(ctx context.Context, tx *store.Store, d itemDeltas) error {
	ids := sortedIDs(d.units)
	items, err := tx.Items.GetForUpdate(ctx, ids)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if items[id].Stock < d.units[id] {
			return shortage(d.owners[id], items[id].Stock)
		}
	}
	for _, id := range ids {
		ok, err := tx.Items.Decrement(ctx, id, d.units[id])
		if err != nil {
			return err
		}
		if !ok {
			// stock moved between the read and the conditional write
			current, err := tx.Items.Get(ctx, id)
			if err != nil {
				return err
			}
			return shortage(d.owners[id], current.Stock)
		}
	}
	return nil
}

// release puts every delta back into stock
func release(ctx context.Context, tx *store.Store, d itemDeltas) error {
	for _, id := range sortedIDs(d.units) {
		if err := tx.Items.Increment(ctx, id, d.units[id]); err != nil {
			return err
		}
	}
	return nil
}
