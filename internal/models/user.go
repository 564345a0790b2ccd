package models

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Plan is the subscription tier that drives quota checks.
type Plan string

const (
	PlanFree    Plan = "free"
	PlanPro     Plan = "pro"
	PlanPremium Plan = "premium"
)

// Valid reports whether p is a known plan.
func (p Plan) Valid() bool {
	switch p {
	case PlanFree, PlanPro, PlanPremium:
		return true
	}
	return false
}

// User is an account owner identified by an external Firebase UID.
type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	FirebaseUID  string    `gorm:"uniqueIndex;size:128;not null" json:"firebaseUid"`
	Email        string    `gorm:"size:255;index" json:"email"`
	DisplayName  string    `gorm:"size:255" json:"displayName"`
	PhotoURL     string    `gorm:"size:1024" json:"photoURL"`
	PersonalHash string    `gorm:"uniqueIndex;size:32;not null" json:"personalHash"`
	Plan         Plan      `gorm:"size:16;not null;default:free" json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TableName specifies the table name
func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns the ID, personal hash and default plan.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.PersonalHash == "" {
		hash, err := NewPersonalHash()
		if err != nil {
			return err
		}
		u.PersonalHash = hash
	}
	if u.Plan == "" {
		u.Plan = PlanFree
	}
	return nil
}

// NewPersonalHash returns 16 random bytes hex encoded.
func NewPersonalHash() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
