package repository

import (
	"context"
	"errors"

	"github.com/zaplinker/backend/internal/models"
	"gorm.io/gorm"
)

// UserRepository handles all database operations for users
type UserRepository interface {
	// Upsert creates the user on first sign-in and refreshes the profile fields afterwards.
	Upsert(ctx context.Context, user *models.User) (*models.User, bool, error)
	GetUser(ctx context.Context, userID string) (*models.User, error)
	GetByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error)
	SetPlan(ctx context.Context, userID string, plan models.Plan) error
}

// userRepository implements UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Upsert(ctx context.Context, user *models.User) (*models.User, bool, error) {
	if user == nil || user.FirebaseUID == "" {
		return nil, false, ErrInvalidInput
	}

	existing, err := r.GetByFirebaseUID(ctx, user.FirebaseUID)
	switch {
	case errors.Is(err, ErrUserNotFound):
		createErr := r.db.WithContext(ctx).Create(user).Error
		if createErr == nil {
			return user, true, nil
		}
		if !errors.Is(createErr, gorm.ErrDuplicatedKey) {
			return nil, false, createErr
		}
		// Lost a sign-in race; fall through to update the winner's row.
		existing, err = r.GetByFirebaseUID(ctx, user.FirebaseUID)
		if err != nil {
			return nil, false, err
		}
	case err != nil:
		return nil, false, err
	}

	updates := map[string]interface{}{}
	if user.Email != "" {
		updates["email"] = user.Email
	}
	if user.DisplayName != "" {
		updates["display_name"] = user.DisplayName
	}
	if user.PhotoURL != "" {
		updates["photo_url"] = user.PhotoURL
	}
	if len(updates) > 0 {
		if err := r.db.WithContext(ctx).Model(existing).Updates(updates).Error; err != nil {
			return nil, false, err
		}
	}
	return existing, false, nil
}

// GetUser gets a user by ID
func (r *userRepository) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByFirebaseUID gets a user by the identity provider UID
func (r *userRepository) GetByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("firebase_uid = ?", firebaseUID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) SetPlan(ctx context.Context, userID string, plan models.Plan) error {
	if !plan.Valid() {
		return ErrInvalidInput
	}
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("plan", plan)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
