package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
)

// UserRepository implements the user repository interface using GORM
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *entities.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindByID finds a user by ID
func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	var user entities.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	var user entities.User
	if err := r.db.WithContext(ctx).Where("LOWER(email) = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return &user, nil
}

// FindByEmails finds all users matching any of the emails
func (r *UserRepository) FindByEmails(ctx context.Context, emails []string) ([]*entities.User, error) {
	if len(emails) == 0 {
		return nil, nil
	}
	lowered := make([]string, 0, len(emails))
	for _, e := range emails {
		lowered = append(lowered, strings.ToLower(e))
	}
	var users []*entities.User
	if err := r.db.WithContext(ctx).Where("LOWER(email) IN ?", lowered).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to find users by email: %w", err)
	}
	return users, nil
}

// UserSettingsRepository stores per-user integration overrides
type UserSettingsRepository struct {
	db *gorm.DB
}

// NewUserSettingsRepository creates a new settings repository
func NewUserSettingsRepository(db *gorm.DB) *UserSettingsRepository {
	return &UserSettingsRepository{db: db}
}

// GetValues returns all overrides of a user keyed by setting name
func (r *UserSettingsRepository) GetValues(ctx context.Context, userID uuid.UUID) (map[string]string, error) {
	var rows []entities.UserSetting
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get user settings: %w", err)
	}
	values := make(map[string]string, len(rows))
	for _, row := range rows {
		values[row.Key] = row.Value
	}
	return values, nil
}

// SetValues upserts overrides for a user
func (r *UserSettingsRepository) SetValues(ctx context.Context, userID uuid.UUID, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	rows := make([]entities.UserSetting, 0, len(values))
	for k, v := range values {
		rows = append(rows, entities.UserSetting{UserID: userID, Key: k, Value: v})
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to set user settings: %w", err)
	}
	return nil
}
