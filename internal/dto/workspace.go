package dto

import "github.com/zaplinker/backend/internal/models"

// CreateWorkspaceRequest creates a workspace. Name and CustomURL are checked by the handler
// so missing fields and bad formats get distinct messages.
type CreateWorkspaceRequest struct {
	Name          string                `json:"name"`
	CustomURL     string                `json:"customUrl"`
	LinkStyle     models.LinkStyle      `json:"linkStyle"`
	UTMParameters *models.UTMParameters `json:"utmParameters"`
}

// UpdateWorkspaceRequest changes only the fields that are present
type UpdateWorkspaceRequest struct {
	Name          *string               `json:"name"`
	CustomURL     *string               `json:"customUrl"`
	LinkStyle     *models.LinkStyle     `json:"linkStyle"`
	UTMParameters *models.UTMParameters `json:"utmParameters"`
}

// WorkspaceLinkResponse is the public short link of a workspace
type WorkspaceLinkResponse struct {
	WorkspaceID string `json:"workspaceId"`
	CustomURL   string `json:"customUrl"`
	URL         string `json:"url"`
}

// CreateNumberRequest attaches a WhatsApp number to a workspace
type CreateNumberRequest struct {
	WorkspaceID string `json:"workspaceId" binding:"required"`
	Number      string `json:"number" binding:"required"`
	Text        string `json:"text" binding:"max=1000"`
	Weight      *int   `json:"weight" binding:"omitempty,min=1,max=1000"`
	IsActive    *bool  `json:"isActive"`
}

// UpdateNumberRequest changes only the fields that are present
type UpdateNumberRequest struct {
	Number   *string `json:"number"`
	Text     *string `json:"text" binding:"omitempty,max=1000"`
	Weight   *int    `json:"weight" binding:"omitempty,min=1,max=1000"`
	IsActive *bool   `json:"isActive"`
}

// ToggleNumberRequest flips a number in or out of the redirect rotation
type ToggleNumberRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}
