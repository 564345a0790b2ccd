package dto

import (
	"time"

	"github.com/zaplinker/backend/internal/models"
	"github.com/zaplinker/backend/internal/plans"
)

// UpsertUserRequest is sent by the web app after every Firebase sign-in
type UpsertUserRequest struct {
	FirebaseUID string `json:"firebaseUid" binding:"required,max=128"`
	Email       string `json:"email" binding:"omitempty,email,max=255"`
	DisplayName string `json:"displayName" binding:"max=255"`
	PhotoURL    string `json:"photoURL" binding:"omitempty,url,max=1024"`
}

// ToUser converts the request into a model ready for Upsert
func (r *UpsertUserRequest) ToUser() *models.User {
	return &models.User{
		FirebaseUID: r.FirebaseUID,
		Email:       r.Email,
		DisplayName: r.DisplayName,
		PhotoURL:    r.PhotoURL,
	}
}

// UserResponse is the account as returned to its owner, with the limits of its plan
type UserResponse struct {
	ID           string       `json:"id"`
	FirebaseUID  string       `json:"firebaseUid"`
	Email        string       `json:"email"`
	DisplayName  string       `json:"displayName"`
	PhotoURL     string       `json:"photoURL"`
	PersonalHash string       `json:"personalHash"`
	Plan         models.Plan  `json:"role"`
	Limits       plans.Limits `json:"limits"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// ToUserResponse converts models.User to UserResponse
func ToUserResponse(user *models.User) *UserResponse {
	if user == nil {
		return nil
	}
	return &UserResponse{
		ID:           user.ID,
		FirebaseUID:  user.FirebaseUID,
		Email:        user.Email,
		DisplayName:  user.DisplayName,
		PhotoURL:     user.PhotoURL,
		PersonalHash: user.PersonalHash,
		Plan:         user.Plan,
		Limits:       plans.For(user.Plan),
		CreatedAt:    user.CreatedAt,
	}
}
