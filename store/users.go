package store

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"food-ordering-api/models"
)

type UserRepository struct {
	db *gorm.DB
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *UserRepository) Get(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, notFound(err, "User with ID %d not found", id)
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, notFound(err, "No user with email %s", email)
	}
	return &u, nil
}

func (r *UserRepository) List(ctx context.Context, role models.UserRole) ([]models.User, error) {
	query := r.db.WithContext(ctx)
	if role != "" {
		query = query.Where("role = ?", role)
	}
	var users []models.User
	err := query.Order("id").Find(&users).Error
	return users, err
}

type AddressRepository struct {
	db *gorm.DB
}

// Upsert stores the user's single delivery address
func (r *AddressRepository) Upsert(ctx context.Context, a *models.Address) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"street", "postal_code", "city", "country", "updated_at"}),
	}).Create(a).Error
}

func (r *AddressRepository) GetByUser(ctx context.Context, userID uint) (*models.Address, error) {
	var a models.Address
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&a).Error; err != nil {
		return nil, notFound(err, "No address saved for user %d", userID)
	}
	return &a, nil
}
