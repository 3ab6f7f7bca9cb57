// Package model contains the gorm models the demonstrations operate on.
//
// Field types align with the Postgres schema in internal/database/migrations:
// BIGSERIAL -> int64, TIMESTAMPTZ -> time.Time, nullable TEXT -> *string.
package model

// User is a person with a unique email, any number of posts and at most
// one profile.
type User struct {
	ID    int64  `gorm:"primaryKey" json:"id"`
	Email string `gorm:"uniqueIndex:users_email_key;not null" json:"email"`
	Name  string `gorm:"not null;default:''" json:"name"`

	Posts   []Post   `gorm:"foreignKey:AuthorID" json:"posts,omitempty"`
	Profile *Profile `gorm:"foreignKey:UserID" json:"profile,omitempty"`
}

func (User) TableName() string { return "users" }
