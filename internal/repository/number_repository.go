package repository

import (
	"context"
	"errors"
	"time"

	"github.com/zaplinker/backend/internal/models"
	"gorm.io/gorm"
)

// NumberRepository handles WhatsApp number persistence
type NumberRepository interface {
	Create(ctx context.Context, number *models.WhatsappNumber) error
	Get(ctx context.Context, numberID string) (*models.WhatsappNumber, error)
	ListByWorkspace(ctx context.Context, workspaceID string) ([]models.WhatsappNumber, error)
	ListActive(ctx context.Context, workspaceID string) ([]models.WhatsappNumber, error)
	CountByWorkspace(ctx context.Context, workspaceID string) (int64, error)
	Update(ctx context.Context, number *models.WhatsappNumber, fields map[string]interface{}) error
	SetActive(ctx context.Context, numberID string, active bool) (*models.WhatsappNumber, error)
	Delete(ctx context.Context, numberID string) error
	// RecordHit bumps the number's counter and appends to its access log.
	RecordHit(ctx context.Context, numberID, workspaceID string, at time.Time) error
}

type numberRepository struct {
	db *gorm.DB
}

// NewNumberRepository creates a new number repository
func NewNumberRepository(db *gorm.DB) NumberRepository {
	return &numberRepository{db: db}
}

func (r *numberRepository) Create(ctx context.Context, number *models.WhatsappNumber) error {
	if number == nil || number.WorkspaceID == "" || number.Number == "" {
		return ErrInvalidInput
	}
	return r.db.WithContext(ctx).Create(number).Error
}

func (r *numberRepository) Get(ctx context.Context, numberID string) (*models.WhatsappNumber, error) {
	var number models.WhatsappNumber
	err := r.db.WithContext(ctx).Where("id = ?", numberID).First(&number).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &number, nil
}

func (r *numberRepository) ListByWorkspace(ctx context.Context, workspaceID string) ([]models.WhatsappNumber, error) {
	var numbers []models.WhatsappNumber
	err := r.db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Order("created_at ASC").
		Find(&numbers).Error
	return numbers, err
}

func (r *numberRepository) ListActive(ctx context.Context, workspaceID string) ([]models.WhatsappNumber, error) {
	var numbers []models.WhatsappNumber
	err := r.db.WithContext(ctx).
		Where("workspace_id = ? AND is_active = ?", workspaceID, true).
		Order("created_at ASC").
		Find(&numbers).Error
	return numbers, err
}

func (r *numberRepository) CountByWorkspace(ctx context.Context, workspaceID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.WhatsappNumber{}).Where("workspace_id = ?", workspaceID).Count(&count).Error
	return count, err
}

func (r *numberRepository) Update(ctx context.Context, number *models.WhatsappNumber, fields map[string]interface{}) error {
	if number == nil || number.ID == "" {
		return ErrInvalidInput
	}
	if len(fields) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Model(number).Updates(fields).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Where("id = ?", number.ID).First(number).Error
}

func (r *numberRepository) SetActive(ctx context.Context, numberID string, active bool) (*models.WhatsappNumber, error) {
	res := r.db.WithContext(ctx).Model(&models.WhatsappNumber{}).Where("id = ?", numberID).Update("is_active", active)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.Get(ctx, numberID)
}

func (r *numberRepository) Delete(ctx context.Context, numberID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("number_id = ?", numberID).Delete(&models.NumberAccess{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", numberID).Delete(&models.WhatsappNumber{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *numberRepository) RecordHit(ctx context.Context, numberID, workspaceID string, at time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.WhatsappNumber{}).
			Where("id = ?", numberID).
			UpdateColumns(map[string]interface{}{
				"access_count":   gorm.Expr("access_count + ?", 1),
				"last_access_at": at,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// The number was deleted after it was picked.
			return ErrNotFound
		}
		return tx.Create(&models.NumberAccess{
			NumberID:    numberID,
			WorkspaceID: workspaceID,
			Timestamp:   at,
		}).Error
	})
}
