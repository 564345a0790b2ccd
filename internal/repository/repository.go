// Package repository implements persistence for users, workspaces, numbers and analytics on gorm.
package repository

import "gorm.io/gorm"

// Repositories bundles every repository built on one connection.
type Repositories struct {
	Users      UserRepository
	Workspaces WorkspaceRepository
	Numbers    NumberRepository
	Analytics  AnalyticsRepository
}

// New builds all repositories over db.
func New(db *gorm.DB) *Repositories {
	return &Repositories{
		Users:      NewUserRepository(db),
		Workspaces: NewWorkspaceRepository(db),
		Numbers:    NewNumberRepository(db),
		Analytics:  NewAnalyticsRepository(db),
	}
}
