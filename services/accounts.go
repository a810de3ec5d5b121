package services

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"food-ordering-api/apperr"
	"food-ordering-api/geo"
	"food-ordering-api/models"
	"food-ordering-api/store"
)

// TokenIssuer signs an access token for an authenticated user
type TokenIssuer interface {
	Issue(user *models.User) (string, error)
}

// AccountService registers users, logs them in and keeps customer addresses
type AccountService struct {
	store     *store.Store
	tokens    TokenIssuer
	addresses geo.Validator
	logger    *zap.Logger
}

func NewAccountService(st *store.Store, tokens TokenIssuer, addresses geo.Validator, logger *zap.Logger) *AccountService {
	return &AccountService{store: st, tokens: tokens, addresses: addresses, logger: logger.Named("accounts")}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     models.UserRole
	Phone    string
}

// Register creates the account. Drivers also get their delivery profile.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	if !in.Role.Valid() {
		return nil, "", apperr.Validationf("Invalid role %q. Must be: customer, driver, or admin", in.Role)
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || strings.TrimSpace(in.Name) == "" {
		return nil, "", apperr.Validationf("Name and email are required")
	}
	if len(in.Password) < 6 {
		return nil, "", apperr.Validationf("Password must be at least 6 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}
	user := &models.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: string(hash),
		Role:         in.Role,
		Phone:        in.Phone,
	}

	err = s.store.Atomic(ctx, func(tx *store.Store) error {
		if _, err := tx.Users.GetByEmail(ctx, email); err == nil {
			return apperr.Conflictf("Email %s is already registered", email)
		} else if apperr.KindOf(err) != apperr.KindNotFound {
			return err
		}
		if err := tx.Users.Create(ctx, user); err != nil {
			if store.IsUniqueViolation(err) {
				return apperr.Conflictf("Email %s is already registered", email)
			}
			return err
		}
		if user.Role == models.RoleDriver {
			return tx.Drivers.Create(ctx, &models.Driver{UserID: user.ID, Name: user.Name, Phone: user.Phone})
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", err
	}
	s.logger.Info("user registered", zap.Uint("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, token, nil
}

// Login checks the credentials and issues a token
func (s *AccountService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.store.Users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, "", apperr.Authf("Invalid email or password")
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", apperr.Authf("Invalid email or password")
	}
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *AccountService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return s.store.Users.Get(ctx, id)
}

// ListUsers lists every user, or only those with role when it is set
func (s *AccountService) ListUsers(ctx context.Context, role models.UserRole) ([]models.User, error) {
	if role != "" && !role.Valid() {
		return nil, apperr.Validationf("Invalid role %q", role)
	}
	return s.store.Users.List(ctx, role)
}

// SaveAddress validates the free-text address and stores it as the user's
// delivery address, replacing any previous one.
func (s *AccountService) SaveAddress(ctx context.Context, userID uint, freeText string) (*models.Address, error) {
	if _, err := s.store.Users.Get(ctx, userID); err != nil {
		return nil, err
	}
	structured, err := s.addresses.Validate(ctx, freeText)
	if err != nil {
		return nil, err
	}
	addr := &models.Address{
		UserID:     userID,
		Street:     structured.Street,
		PostalCode: structured.PostalCode,
		City:       structured.City,
		Country:    structured.Country,
	}
	if err := s.store.Addresses.Upsert(ctx, addr); err != nil {
		return nil, err
	}
	return s.store.Addresses.GetByUser(ctx, userID)
}

func (s *AccountService) GetAddress(ctx context.Context, userID uint) (*models.Address, error) {
	return s.store.Addresses.GetByUser(ctx, userID)
}
