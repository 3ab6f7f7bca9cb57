// Package repository handles all interactions with the database.
//
// Every query goes through the gorm session opened by the database package,
// so the service layer never builds SQL itself. Failures leave this package
// as *errs.Error values, converted by sqlerr.HandleError.
package repository

import "gorm.io/gorm"

// Repositories is a container for all repository instances.
type Repositories struct {
	Users *UserRepository
}

// NewRepositories constructs the repository container on db.
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Users: NewUserRepository(db),
	}
}
