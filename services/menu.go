package services

import (
	"context"

	"go.uber.org/zap"

	"food-ordering-api/apperr"
	"food-ordering-api/models"
	"food-ordering-api/store"
)

// MenuService toggles orderables on and off the public menu
type MenuService struct {
	store  *store.Store
	logger *zap.Logger
	now    Clock
}

func NewMenuService(st *store.Store, logger *zap.Logger, now Clock) *MenuService {
	return &MenuService{store: st, logger: logger.Named("menu"), now: now}
}

// AddToMenu lists an orderable. It must be off the menu and sellable right now.
func (s *MenuService) AddToMenu(ctx context.Context, id uint) (models.Orderable, error) {
	return s.toggle(ctx, id, true)
}

// RemoveFromMenu unlists an orderable that is currently on the menu
func (s *MenuService) RemoveFromMenu(ctx context.Context, id uint) (models.Orderable, error) {
	return s.toggle(ctx, id, false)
}

func (s *MenuService) toggle(ctx context.Context, id uint, inMenu bool) (models.Orderable, error) {
	var updated models.Orderable
	err := s.store.Atomic(ctx, func(tx *store.Store) error {
		o, err := tx.Orderables.Load(ctx, id)
		if err != nil {
			return err
		}
		if o.InMenu() == inMenu {
			if inMenu {
				return apperr.Conflictf("%s (ID %d) is already on the menu", o.DisplayName(), id)
			}
			return apperr.Conflictf("%s (ID %d) is not on the menu", o.DisplayName(), id)
		}
		if inMenu && !o.Listable(s.now()) {
			if o.Kind() == models.OrderableItem {
				return apperr.Conflictf("%s (ID %d) is out of stock", o.DisplayName(), id)
			}
			return apperr.Conflictf("%s (ID %d) is not available", o.DisplayName(), id)
		}
		ok, err := tx.Orderables.SetInMenu(ctx, o, inMenu)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Conflictf("Menu state of %s (ID %d) changed concurrently", o.DisplayName(), id)
		}
		updated, err = tx.Orderables.Load(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("menu updated", zap.Uint("orderable_id", id), zap.Bool("in_menu", inMenu))
	return updated, nil
}

// ListOrderables returns the catalog. With menuOnly, only orderables flagged on
// the menu and available right now are returned; a stale flag (for example a
// bundle whose window closed) is filtered here, not rewritten.
func (s *MenuService) ListOrderables(ctx context.Context, menuOnly bool) ([]models.Orderable, error) {
	all, err := s.store.Orderables.List(ctx)
	if err != nil {
		return nil, err
	}
	if !menuOnly {
		return all, nil
	}
	now := s.now()
	out := make([]models.Orderable, 0, len(all))
	for _, o := range all {
		if o.InMenu() && o.CheckAvailability(now) {
			out = append(out, o)
		}
	}
	return out, nil
}
