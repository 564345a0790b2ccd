package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WhatsappNumber is a redirect candidate inside a workspace.
// Number holds digits only. Weight biases random selection among active numbers.
type WhatsappNumber struct {
	ID           string     `gorm:"primaryKey;size:36" json:"id"`
	WorkspaceID  string     `gorm:"size:36;not null;index:idx_numbers_workspace_active,priority:1" json:"workspaceId"`
	Number       string     `gorm:"size:20;not null" json:"number"`
	Text         string     `gorm:"size:1000" json:"text"`
	IsActive     bool       `gorm:"not null;index:idx_numbers_workspace_active,priority:2" json:"isActive"`
	Weight       int        `gorm:"not null;default:1" json:"weight"`
	AccessCount  int64      `gorm:"not null;default:0" json:"accessCount"`
	LastAccessAt *time.Time `json:"lastAccessAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// TableName specifies the table name
func (WhatsappNumber) TableName() string {
	return "whatsapp_numbers"
}

// BeforeCreate assigns the ID and normalizes the weight.
func (n *WhatsappNumber) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Weight <= 0 {
		n.Weight = 1
	}
	return nil
}

// NumberAccess is one entry of a number's access timestamp log.
type NumberAccess struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	NumberID    string    `gorm:"size:36;not null;index" json:"numberId"`
	WorkspaceID string    `gorm:"size:36;not null;index" json:"workspaceId"`
	Timestamp   time.Time `gorm:"column:occurred_at;not null;index" json:"timestamp"`
}

// TableName specifies the table name
func (NumberAccess) TableName() string {
	return "number_accesses"
}

func (a *NumberAccess) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
