package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/zaplinker/backend/internal/models"
	"gorm.io/gorm"
)

// WorkspaceRepository handles workspace persistence
type WorkspaceRepository interface {
	Create(ctx context.Context, workspace *models.Workspace) error
	Get(ctx context.Context, workspaceID string) (*models.Workspace, error)
	GetByCustomURL(ctx context.Context, customURL string) (*models.Workspace, error)
	ListByUser(ctx context.Context, userID string) ([]models.Workspace, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
	CustomURLTaken(ctx context.Context, customURL, exceptID string) (bool, error)
	// Update writes only the given columns.
	Update(ctx context.Context, workspace *models.Workspace, fields map[string]interface{}) error
	// Delete removes the workspace together with its numbers, visitors and history.
	Delete(ctx context.Context, workspaceID string) error
}

type workspaceRepository struct {
	db *gorm.DB
}

// NewWorkspaceRepository creates a new workspace repository
func NewWorkspaceRepository(db *gorm.DB) WorkspaceRepository {
	return &workspaceRepository{db: db}
}

func (r *workspaceRepository) Create(ctx context.Context, workspace *models.Workspace) error {
	if workspace == nil || workspace.UserID == "" || workspace.CustomURL == "" {
		return ErrInvalidInput
	}

	taken, err := r.CustomURLTaken(ctx, workspace.CustomURL, "")
	if err != nil {
		return err
	}
	if taken {
		return ErrCustomURLTaken
	}

	err = r.db.WithContext(ctx).Create(workspace).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrCustomURLTaken
	}
	return err
}

func (r *workspaceRepository) Get(ctx context.Context, workspaceID string) (*models.Workspace, error) {
	var ws models.Workspace
	err := r.db.WithContext(ctx).Where("id = ?", workspaceID).First(&ws).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ws, nil
}

func (r *workspaceRepository) GetByCustomURL(ctx context.Context, customURL string) (*models.Workspace, error) {
	var ws models.Workspace
	err := r.db.WithContext(ctx).Where("custom_url = ?", customURL).First(&ws).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ws, nil
}

func (r *workspaceRepository) ListByUser(ctx context.Context, userID string) ([]models.Workspace, error) {
	var workspaces []models.Workspace
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&workspaces).Error
	return workspaces, err
}

func (r *workspaceRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Workspace{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *workspaceRepository) CustomURLTaken(ctx context.Context, customURL, exceptID string) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&models.Workspace{}).Where("custom_url = ?", customURL)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *workspaceRepository) Update(ctx context.Context, workspace *models.Workspace, fields map[string]interface{}) error {
	if workspace == nil || workspace.ID == "" {
		return ErrInvalidInput
	}
	if len(fields) == 0 {
		return nil
	}

	if customURL, ok := fields["custom_url"].(string); ok {
		taken, err := r.CustomURLTaken(ctx, customURL, workspace.ID)
		if err != nil {
			return err
		}
		if taken {
			return ErrCustomURLTaken
		}
	}

	// Map updates skip field serializers, so encode the JSON column here.
	if utm, ok := fields["utm_parameters"].(models.UTMParameters); ok {
		raw, err := json.Marshal(utm)
		if err != nil {
			return err
		}
		fields["utm_parameters"] = string(raw)
	}

	err := r.db.WithContext(ctx).Model(workspace).Updates(fields).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrCustomURLTaken
	}
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Where("id = ?", workspace.ID).First(workspace).Error
}

func (r *workspaceRepository) Delete(ctx context.Context, workspaceID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{
			&models.NumberAccess{},
			&models.AccessEvent{},
			&models.Visitor{},
			&models.WhatsappNumber{},
		} {
			if err := tx.Where("workspace_id = ?", workspaceID).Delete(model).Error; err != nil {
				return err
			}
		}
		res := tx.Where("id = ?", workspaceID).Delete(&models.Workspace{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
