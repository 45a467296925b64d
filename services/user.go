package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"food-delivery-backend/models"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterInput struct {
	Name     string          `json:"name" binding:"required"`
	Email    string          `json:"email" binding:"required,email"`
	Password string          `json:"password" binding:"required,min=6"`
	Role     models.UserRole `json:"role" binding:"required"`
	Phone    string          `json:"phone"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Account is a user plus the courier profile id for courier-role users.
type Account struct {
	User      models.User
	CourierID *uint
}

// Principal returns the request identity for the account.
func (a *Account) Principal() models.Principal {
	return models.Principal{
		UserID:    a.User.ID,
		Email:     a.User.Email,
		Role:      a.User.Role,
		CourierID: a.CourierID,
	}
}

type UserService struct {
	base
}

func NewUserService(d Deps) *UserService {
	return &UserService{base: newBase(d)}
}

// Register creates a user. Courier-role users also get an offline courier profile.
// Admin accounts cannot self-register; see EnsureAdmin.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*Account, error) {
	if !in.Role.IsValid() {
		return nil, fmt.Errorf("%w: invalid role, must be customer, restaurant or courier", models.ErrValidation)
	}
	if in.Role == models.RoleAdmin {
		return nil, fmt.Errorf("%w: admin accounts cannot be registered", models.ErrForbidden)
	}
	return s.create(ctx, in)
}

// EnsureAdmin creates the bootstrap admin account unless a user with that email exists.
// An existing admin is returned as is; an existing non-admin is an error.
func (s *UserService) EnsureAdmin(ctx context.Context, name, email, password string) (*Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || len(password) < 6 {
		return nil, fmt.Errorf("%w: admin email and a password of at least 6 characters are required", models.ErrValidation)
	}

	var existing models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	switch {
	case err == nil:
		if existing.Role != models.RoleAdmin {
			return nil, fmt.Errorf("%w: %s is registered with role %s", models.ErrAlreadyExists, email, existing.Role)
		}
		return &Account{User: existing}, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	if name == "" {
		name = "Administrator"
	}
	return s.create(ctx, RegisterInput{Name: name, Email: email, Password: password, Role: models.RoleAdmin})
}

func (s *UserService) create(ctx context.Context, in RegisterInput) (*Account, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	acc := &Account{User: models.User{
		Name:         in.Name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         in.Role,
		Phone:        in.Phone,
	}}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: email already registered", models.ErrAlreadyExists)
		}
		if err := tx.Create(&acc.User).Error; err != nil {
			return err
		}
		if acc.User.Role != models.RoleCourier {
			return nil
		}
		courier := models.Courier{UserID: acc.User.ID, Name: acc.User.Name, PhoneNumber: acc.User.Phone}
		if err := tx.Create(&courier).Error; err != nil {
			return err
		}
		acc.CourierID = &courier.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.Uint("user_id", acc.User.ID), zap.String("role", string(acc.User.Role)))
	return acc, nil
}

// Login checks credentials. Unknown email and wrong password look the same to the caller.
func (s *UserService) Login(ctx context.Context, in LoginInput) (*Account, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: invalid email or password", models.ErrUnauthorized)
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, fmt.Errorf("%w: invalid email or password", models.ErrUnauthorized)
	}
	if user.IsBanned {
		return nil, fmt.Errorf("%w: account is banned", models.ErrForbidden)
	}

	return s.account(ctx, user)
}

// Get returns the account behind a user id.
func (s *UserService) Get(ctx context.Context, userID uint) (*Account, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, dbErr(err, "user", userID)
	}
	return s.account(ctx, user)
}

func (s *UserService) account(ctx context.Context, user models.User) (*Account, error) {
	acc := &Account{User: user}
	if user.Role != models.RoleCourier {
		return acc, nil
	}
	var courier models.Courier
	err := s.db.WithContext(ctx).Where("user_id = ?", user.ID).First(&courier).Error
	switch {
	case err == nil:
		acc.CourierID = &courier.ID
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}
	return acc, nil
}

// List returns all users, optionally narrowed to one role.
func (s *UserService) List(ctx context.Context, role models.UserRole) ([]models.User, error) {
	query := s.db.WithContext(ctx).Order("id asc")
	if role != "" {
		if !role.IsValid() {
			return nil, fmt.Errorf("%w: unknown role %q", models.ErrValidation, role)
		}
		query = query.Where("role = ?", role)
	}
	var users []models.User
	err := query.Find(&users).Error
	return users, err
}

// SetBanned bans or unbans a user. Admins cannot be banned.
func (s *UserService) SetBanned(ctx context.Context, userID uint, banned bool) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, dbErr(err, "user", userID)
	}
	if user.Role == models.RoleAdmin && banned {
		return nil, fmt.Errorf("%w: admins cannot be banned", models.ErrValidation)
	}
	if err := s.db.WithContext(ctx).Model(&user).Update("is_banned", banned).Error; err != nil {
		return nil, err
	}

	s.logger.Info("user ban updated", zap.Uint("user_id", user.ID), zap.Bool("banned", banned))
	return &user, nil
}
