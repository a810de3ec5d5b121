package services

import (
	"context"

	"go.uber.org/zap"

	"food-ordering-api/apperr"
	"food-ordering-api/models"
	"food-ordering-api/statemachine"
	"food-ordering-api/store"
)

// DeliveryService assigns prepared orders to drivers. Each step changes the
// delivery row, the order state and the driver flag in one transaction.
type DeliveryService struct {
	store  *store.Store
	logger *zap.Logger
	now    Clock
}

func NewDeliveryService(st *store.Store, logger *zap.Logger, now Clock) *DeliveryService {
	return &DeliveryService{store: st, logger: logger.Named("delivery"), now: now}
}

// StartDelivery hands a PREPARED order to an idle driver
func (s *DeliveryService) StartDelivery(ctx context.Context, orderID, driverID uint) (*models.Delivery, error) {
	var delivery *models.Delivery
	err := s.store.Atomic(ctx, func(tx *store.Store) error {
		order, err := tx.Orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		driver, err := tx.Drivers.Get(ctx, driverID)
		if err != nil {
			return err
		}
		if order.State != models.StatePrepared {
			return apperr.Conflictf("Order %d is %s: only PREPARED orders can start delivery", orderID, order.State)
		}
		if driver.IsDelivering {
			return apperr.Conflictf("Driver %s (ID %d) is already delivering", driver.Name, driverID)
		}
		// the flag and the delivery rows must agree: one in-progress delivery per driver
		active, err := tx.Deliveries.CountInProgress(ctx, driverID)
		if err != nil {
			return err
		}
		if active > 0 {
			s.logger.Warn("driver flag out of sync with deliveries", zap.Uint("driver_id", driverID), zap.Int64("in_progress", active))
			return apperr.Conflictf("Driver %s (ID %d) already has a delivery in progress", driver.Name, driverID)
		}

		delivery, err = tx.Deliveries.GetByOrder(ctx, orderID)
		switch {
		case apperr.KindOf(err) == apperr.KindNotFound:
			delivery = &models.Delivery{OrderID: orderID}
		case err != nil:
			return err
		}
		startedAt := s.now()
		delivery.DriverID = &driverID
		delivery.State = models.DeliveryInProgress
		delivery.StartedAt = &startedAt
		delivery.EndedAt = nil
		if err := tx.Deliveries.Save(ctx, delivery); err != nil {
			return err
		}

		if err := advance(ctx, tx, order, models.StateDelivering, statemachine.ActorDriver, driver.UserID, "Delivery started", nil); err != nil {
			return err
		}
		ok, err := tx.Drivers.SetDelivering(ctx, driverID, true)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Conflictf("Driver %s (ID %d) is already delivering", driver.Name, driverID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("delivery started", zap.Uint("order_id", orderID), zap.Uint("driver_id", driverID))
	return delivery, nil
}

// EndDelivery completes the delivery held by driverID
func (s *DeliveryService) EndDelivery(ctx context.Context, orderID, driverID uint) (*models.Delivery, error) {
	var delivery *models.Delivery
	err := s.store.Atomic(ctx, func(tx *store.Store) error {
		order, err := tx.Orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		driver, err := tx.Drivers.Get(ctx, driverID)
		if err != nil {
			return err
		}
		if order.State != models.StateDelivering {
			return apperr.Conflictf("Order %d is %s: only DELIVERING orders can end delivery", orderID, order.State)
		}
		delivery, err = tx.Deliveries.GetByOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if delivery.DriverID == nil || *delivery.DriverID != driverID || delivery.State != models.DeliveryInProgress {
			return apperr.Conflictf("Delivery of order %d does not belong to driver %s (ID %d)", orderID, driver.Name, driverID)
		}

		endedAt := s.now()
		delivery.State = models.DeliveryCompleted
		delivery.EndedAt = &endedAt
		if err := tx.Deliveries.Save(ctx, delivery); err != nil {
			return err
		}
		if err := advance(ctx, tx, order, models.StateDelivered, statemachine.ActorDriver, driver.UserID, "Order delivered", nil); err != nil {
			return err
		}
		ok, err := tx.Drivers.SetDelivering(ctx, driverID, false)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Conflictf("Driver %s (ID %d) is not delivering", driver.Name, driverID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("delivery ended", zap.Uint("order_id", orderID), zap.Uint("driver_id", driverID))
	return delivery, nil
}

// ListPending returns deliveries waiting for a driver, oldest first
func (s *DeliveryService) ListPending(ctx context.Context) ([]models.Delivery, error) {
	return s.store.Deliveries.ListByState(ctx, models.DeliveryPending)
}

func (s *DeliveryService) ListForDriver(ctx context.Context, driverID uint) ([]models.Delivery, error) {
	return s.store.Deliveries.ListByDriver(ctx, driverID)
}

// DriverForUser resolves the driver profile of a driver-role user
func (s *DeliveryService) DriverForUser(ctx context.Context, userID uint) (*models.Driver, error) {
	return s.store.Drivers.GetByUser(ctx, userID)
}
