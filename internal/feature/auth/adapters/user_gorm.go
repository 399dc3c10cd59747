// Package adapters provides repository implementations for the auth feature.
package adapters

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"mindflow_backend/internal/feature/auth/domain/entity"
	"mindflow_backend/internal/feature/auth/usecase"
)

// pgUniqueViolation is the SQLSTATE for unique constraint violations.
const pgUniqueViolation = "23505"

// userGorm is the GORM implementation of UserRepository for PostgreSQL and SQLite.
type userGorm struct {
	db *gorm.DB
}

// Compile-time check to ensure userGorm implements UserRepository.
var _ usecase.UserRepository = (*userGorm)(nil)

// NewUserGorm creates a new instance of userGorm.
func NewUserGorm(db *gorm.DB) *userGorm {
	return &userGorm{db: db}
}

// Create inserts the user and copies the generated ID and timestamps back.
// It returns usecase.ErrEmailAlreadyExists on a unique email violation.
func (r *userGorm) Create(ctx context.Context, u *entity.User) error {
	if u == nil {
		return errors.New("user is nil")
	}

	model := UserModelFromEntity(u)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isDuplicateKey(err) {
			return usecase.ErrEmailAlreadyExists
		}
		return err
	}

	u.ID = model.ID
	u.Email = model.Email
	u.CreatedAt = model.CreatedAt
	u.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByEmail retrieves a user by email.
// It returns usecase.ErrUserNotFound if no user matches.
func (r *userGorm) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var m UserModel
	if err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrUserNotFound
		}
		return nil, err
	}
	return m.ToEntity(), nil
}

// FindByID retrieves a user by ID.
// It returns usecase.ErrUserNotFound if no user matches.
func (r *userGorm) FindByID(ctx context.Context, id string) (*entity.User, error) {
	var m UserModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrUserNotFound
		}
		return nil, err
	}
	return m.ToEntity(), nil
}

// FindByIDWithRefreshToken reads the full row; the table is the authoritative store.
func (r *userGorm) FindByIDWithRefreshToken(ctx context.Context, id string) (*entity.User, error) {
	return r.FindByID(ctx, id)
}

// SetRefreshToken overwrites the stored refresh token.
func (r *userGorm) SetRefreshToken(ctx context.Context, id, token string) error {
	return r.updateRefreshToken(ctx, id, token)
}

// ClearRefreshToken sets the stored refresh token to NULL.
func (r *userGorm) ClearRefreshToken(ctx context.Context, id string) error {
	return r.updateRefreshToken(ctx, id, nil)
}

func (r *userGorm) updateRefreshToken(ctx context.Context, id string, value any) error {
	res := r.db.WithContext(ctx).
		Model(&UserModel{}).
		Where("id = ?", id).
		Update("refresh_token", value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return usecase.ErrUserNotFound
	}
	return nil
}

// isDuplicateKey recognises unique violations from every supported driver.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return true
	}
	// SQLite without TranslateError
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
