package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"food-ordering-api/apperr"
	"food-ordering-api/models"
	"food-ordering-api/statemachine"
	"food-ordering-api/store"
)

// OrderService owns order contents and the order lifecycle. Every content
// change reserves or releases stock in the same transaction.
type OrderService struct {
	store       *store.Store
	logger      *zap.Logger
	now         Clock
	retryBudget int
}

func NewOrderService(st *store.Store, logger *zap.Logger, now Clock, retryBudget int) *OrderService {
	if retryBudget <= 0 {
		retryBudget = 1
	}
	return &OrderService{store: st, logger: logger.Named("orders"), now: now, retryBudget: retryBudget}
}

// CreateOrder opens an empty order for the customer, snapshotting their saved address
func (s *OrderService) CreateOrder(ctx context.Context, customerID uint) (*models.Order, error) {
	order := &models.Order{CustomerID: customerID, State: models.StateCreated}
	err := s.store.Atomic(ctx, func(tx *store.Store) error {
		if _, err := tx.Users.Get(ctx, customerID); err != nil {
			return err
		}
		addr, err := tx.Addresses.GetByUser(ctx, customerID)
		switch {
		case err == nil:
			order.DeliveryAddress = addr.String()
		case apperr.KindOf(err) != apperr.KindNotFound:
			return err
		}
		if err := tx.Orders.Create(ctx, order); err != nil {
			return err
		}
		return tx.Orders.AppendHistory(ctx, &models.OrderStatusHistory{
			OrderID:   order.ID,
			ToState:   models.StateCreated,
			ChangedBy: customerID,
			Note:      "Order created by customer",
		})
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("order created", zap.Uint("order_id", order.ID), zap.Uint("customer_id", customerID))
	return s.store.Orders.Get(ctx, order.ID)
}

func (s *OrderService) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	return s.store.Orders.Get(ctx, id)
}

func (s *OrderService) ListOrders(ctx context.Context, f store.OrderFilter) ([]models.Order, error) {
	return s.store.Orders.List(ctx, f)
}

// AddOrderableToOrder adds quantity units of an item or bundle to the order,
// reserving the expanded item stock all-or-nothing.
func (s *OrderService) AddOrderableToOrder(ctx context.Context, orderableID, orderID uint, quantity int) (*models.Order, error) {
	return s.AddOrderablesToOrder(ctx, orderID, []Line{{OrderableID: orderableID, Quantity: quantity}})
}

// AddOrderablesToOrder adds several lines in one step. The item deltas of all
// lines are summed before the single stock check.
func (s *OrderService) AddOrderablesToOrder(ctx context.Context, orderID uint, lines []Line) (*models.Order, error) {
	if len(lines) == 0 {
		return nil, apperr.Validationf("At least one orderable is required")
	}
	merged := make(map[uint]int, len(lines))
	var sequence []uint
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, apperr.Validationf("Quantity for orderable %d must be greater than 0 (got %d)", l.OrderableID, l.Quantity)
		}
		if _, seen := merged[l.OrderableID]; !seen {
			sequence = append(sequence, l.OrderableID)
		}
		merged[l.OrderableID] += l.Quantity
	}

	err := s.store.Retry(ctx, s.retryBudget, func(tx *store.Store) error {
		order, err := tx.Orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		resolved := make([]resolvedLine, 0, len(sequence))
		for _, id := range sequence {
			o, err := tx.Orderables.Load(ctx, id)
			if err != nil {
				return err
			}
			resolved = append(resolved, resolvedLine{orderable: o, quantity: merged[id]})
		}
		if !statemachine.ContentsMutable(order.State) {
			return apperr.Conflictf("Order %d is %s: its contents can no longer change", orderID, order.State)
		}
		now := s.now()
		for _, rl := range resolved {
			if err := offered(rl.orderable, now); err != nil {
				return err
			}
		}

		if err := reserve(ctx, tx, expand(resolved)); err != nil {
			return err
		}

		for _, rl := range resolved {
			line, ok := order.Line(rl.orderable.OrderableID())
			if !ok {
				line = models.OrderLine{
					OrderID:       orderID,
					OrderableID:   rl.orderable.OrderableID(),
					OrderableType: rl.orderable.Kind(),
				}
			}
			line.Quantity += rl.quantity
			if err := tx.Orders.SaveLine(ctx, &line); err != nil {
				return err
			}
		}
		return s.refreshPrice(ctx, tx, orderID)
	})
	if err != nil {
		s.logger.Warn("add to order failed", zap.Uint("order_id", orderID), zap.Error(err))
		return nil, err
	}
	s.logger.Info("orderables added", zap.Uint("order_id", orderID), zap.Int("lines", len(sequence)))
	return s.store.Orders.Get(ctx, orderID)
}

// RemoveOrderableFromOrder takes quantity units off the order and restocks
// their expanded items. The line disappears when its quantity reaches zero.
func (s *OrderService) RemoveOrderableFromOrder(ctx context.Context, orderableID, orderID uint, quantity int) (*models.Order, error) {
	if quantity <= 0 {
		return nil, apperr.Validationf("Quantity for orderable %d must be greater than 0 (got %d)", orderableID, quantity)
	}

	err := s.store.Retry(ctx, s.retryBudget, func(tx *store.Store) error {
		order, err := tx.Orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		o, err := tx.Orderables.Load(ctx, orderableID)
		if err != nil {
			return err
		}
		if !statemachine.ContentsMutable(order.State) {
			return apperr.Conflictf("Order %d is %s: its contents can no longer change", orderID, order.State)
		}
		line, ok := order.Line(orderableID)
		if !ok {
			return apperr.Conflictf("%s (ID %d) is not in order %d", o.DisplayName(), orderableID, orderID)
		}
		if quantity > line.Quantity {
			return apperr.Conflictf("Cannot remove %d × %s from order %d: only %d in the order",
				quantity, o.DisplayName(), orderID, line.Quantity)
		}

		if err := release(ctx, tx, expand([]resolvedLine{{orderable: o, quantity: quantity}})); err != nil {
			return err
		}

		line.Quantity -= quantity
		if line.Quantity == 0 {
			err = tx.Orders.DeleteLine(ctx, line.ID)
		} else {
			err = tx.Orders.SaveLine(ctx, &line)
		}
		if err != nil {
			return err
		}
		return s.refreshPrice(ctx, tx, orderID)
	})
	if err != nil {
		s.logger.Warn("remove from order failed", zap.Uint("order_id", orderID), zap.Error(err))
		return nil, err
	}
	s.logger.Info("orderable removed", zap.Uint("order_id", orderID), zap.Uint("orderable_id", orderableID), zap.Int("quantity", quantity))
	return s.store.Orders.Get(ctx, orderID)
}

// CalculatePrice sums orderable price × quantity over the current contents.
// It does not write anything.
func (s *OrderService) CalculatePrice(ctx context.Context, orderID uint) (float64, error) {
	order, err := s.store.Orders.Get(ctx, orderID)
	if err != nil {
		return 0, err
	}
	return priceOf(ctx, s.store, order)
}

func priceOf(ctx context.Context, st *store.Store, order *models.Order) (float64, error) {
	contents := order.Contents()
	lookup, err := st.Orderables.LoadMany(ctx, sortedIDs(contents))
	if err != nil {
		return 0, fmt.Errorf("price order %d: %w", order.ID, err)
	}
	return models.PriceOf(contents, lookup), nil
}

// refreshPrice rewrites the cached price from the contents as seen by tx. The
// contents no longer match what an open checkout session charges, so the
// session is dropped and the customer has to check out again.
func (s *OrderService) refreshPrice(ctx context.Context, tx *store.Store, orderID uint) error {
	order, err := tx.Orders.GetForUpdate(ctx, orderID)
	if err != nil {
		return err
	}
	price, err := priceOf(ctx, tx, order)
	if err != nil {
		return err
	}
	if err := tx.Orders.UpdatePrice(ctx, orderID, price); err != nil {
		return err
	}
	if order.PaymentSessionID == "" {
		return nil
	}
	s.logger.Info("checkout session dropped", zap.Uint("order_id", orderID), zap.String("session_id", order.PaymentSessionID))
	return tx.Orders.SetPaymentSession(ctx, orderID, "")
}

// DeleteOrder removes an unpaid order and returns its reserved stock
func (s *OrderService) DeleteOrder(ctx context.Context, orderID uint) error {
	err := s.store.Retry(ctx, s.retryBudget, func(tx *store.Store) error {
		order, err := tx.Orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order.State != models.StateCreated {
			return apperr.Conflictf("Order %d is %s: only unpaid orders can be deleted", orderID, order.State)
		}
		resolved := make([]resolvedLine, 0, len(order.Lines))
		for _, l := range order.Lines {
			o, err := tx.Orderables.Load(ctx, l.OrderableID)
			if err != nil {
				return err
			}
			resolved = append(resolved, resolvedLine{orderable: o, quantity: l.Quantity})
		}
		if err := release(ctx, tx, expand(resolved)); err != nil {
			return err
		}
		return tx.Orders.Delete(ctx, orderID)
	})
	if err != nil {
		return err
	}
	s.logger.Info("order deleted", zap.Uint("order_id", orderID))
	return nil
}

// MarkPaid records external payment confirmation: CREATED → PAID. The order
// must not be empty; the price is refreshed and paid_at stamped.
func (s *OrderService) MarkPaid(ctx context.Context, orderID uint, note string) (*models.Order, error) {
	return s.markPaid(ctx, orderID, "", note)
}

// markPaid with a session id only succeeds while that session is still the
// order's open checkout, and keeps the price it charged.
func (s *OrderService) markPaid(ctx context.Context, orderID uint, sessionID, note string) (*models.Order, error) {
	err := s.store.Atomic(ctx, func(tx *store.Store) error {
		order, err := tx.Orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := statemachine.CanTransition(order.State, models.StatePaid, statemachine.ActorPayment); err != nil {
			return err
		}
		if len(order.Lines) == 0 {
			return apperr.Conflictf("Order %d is empty and cannot be paid", orderID)
		}
		price := order.Price
		if sessionID == "" {
			if price, err = priceOf(ctx, tx, order); err != nil {
				return err
			}
		} else if order.PaymentSessionID != sessionID {
			return apperr.Paymentf("Order %d changed after checkout: check out again", orderID)
		}
		paidAt := s.now()
		return advance(ctx, tx, order, models.StatePaid, statemachine.ActorPayment, 0, note,
			map[string]any{"paid_at": &paidAt, "price": price})
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("order paid", zap.Uint("order_id", orderID))
	return s.store.Orders.Get(ctx, orderID)
}

// MarkPrepared is the kitchen's PAID → PREPARED step. It opens the pending
// delivery drivers pick from.
func (s *OrderService) MarkPrepared(ctx context.Context, orderID, adminID uint) (*models.Order, error) {
	err := s.store.Atomic(ctx, func(tx *store.Store) error {
		order, err := tx.Orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := advance(ctx, tx, order, models.StatePrepared, statemachine.ActorAdmin, adminID, "Order prepared", nil); err != nil {
			return err
		}
		return tx.Deliveries.Create(ctx, &models.Delivery{OrderID: orderID, State: models.DeliveryPending})
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("order prepared", zap.Uint("order_id", orderID), zap.Uint("admin_id", adminID))
	return s.store.Orders.Get(ctx, orderID)
}

// advance moves order to state `to` if actor may, writes history, and keeps
// the in-memory order in sync. The write is conditional on the state read.
func advance(ctx context.Context, tx *store.Store, order *models.Order, to models.OrderState,
	actor statemachine.Actor, changedBy uint, note string, extra map[string]any) error {
	if err := statemachine.CanTransition(order.State, to, actor); err != nil {
		return err
	}
	ok, err := tx.Orders.Transition(ctx, order.ID, order.State, to, extra)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Conflictf("Order %d changed state concurrently, expected %s", order.ID, order.State)
	}
	if err := tx.Orders.AppendHistory(ctx, &models.OrderStatusHistory{
		OrderID:   order.ID,
		FromState: order.State,
		ToState:   to,
		ChangedBy: changedBy,
		Note:      note,
	}); err != nil {
		return err
	}
	order.State = to
	return nil
}
