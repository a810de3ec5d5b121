package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"food-ordering-api/apperr"
	"food-ordering-api/models"
)

// Store groups every repository over one *gorm.DB. Inside Atomic the same
// repositories are rebound to the transaction.
type Store struct {
	db *gorm.DB

	Orderables *OrderableRepository
	Items      *ItemRepository
	Bundles    *BundleRepository
	Orders     *OrderRepository
	Drivers    *DriverRepository
	Deliveries *DeliveryRepository
	Users      *UserRepository
	Addresses  *AddressRepository
}

// Open connects to sqlite (default) or postgres
func Open(driver, dsn string) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		if !strings.Contains(dsn, "?") {
			dsn += "?_pragma=busy_timeout(5000)"
		}
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: newGormLogger(log.New(os.Stdout, "\r\n", log.LstdFlags)),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", driver, err)
	}
	if driver == "sqlite" {
		// sqlite has a single writer; one connection keeps transactions serialized
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return New(db), nil
}

// newGormLogger reports slow queries and failures. Missing rows are expected
// lookups that surface as NotFound errors, so they are not logged.
func newGormLogger(w logger.Writer) logger.Interface {
	return logger.New(w, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

// New wraps an existing connection
func New(db *gorm.DB) *Store {
	return &Store{
		db:         db,
		Orderables: &OrderableRepository{db: db},
		Items:      &ItemRepository{db: db},
		Bundles:    &BundleRepository{db: db},
		Orders:     &OrderRepository{db: db},
		Drivers:    &DriverRepository{db: db},
		Deliveries: &DeliveryRepository{db: db},
		Users:      &UserRepository{db: db},
		Addresses:  &AddressRepository{db: db},
	}
}

// Migrate creates or updates every table
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(
		&models.User{},
		&models.Address{},
		&models.OrderableRecord{},
		&models.Item{},
		&models.Bundle{},
		&models.BundleItem{},
		&models.Order{},
		&models.OrderLine{},
		&models.OrderStatusHistory{},
		&models.Driver{},
		&models.Delivery{},
	)
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Atomic runs fn in one transaction; any error rolls every write back
func (s *Store) Atomic(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
}

// Retry runs fn atomically, re-running it while the storage engine reports
// transient contention. Exhausting the budget is a conflict, never a partial write.
func (s *Store) Retry(ctx context.Context, budget int, fn func(tx *Store) error) error {
	var err error
	for attempt := 1; attempt <= budget; attempt++ {
		err = s.Atomic(ctx, fn)
		if err == nil || !IsTransient(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * 10 * time.Millisecond):
		}
	}
	return apperr.Wrap(apperr.KindConflict, err, "storage contention persisted after %d attempts, try again", budget)
}

// IsTransient reports serialization failures and lock contention worth retrying
func IsTransient(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}

// IsUniqueViolation reports a unique-index collision on either driver
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// forUpdate takes row locks where the dialect supports them. sqlite already
// serializes writers.
func forUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "postgres" {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

func notFound(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFoundf(format, args...)
	}
	return err
}
