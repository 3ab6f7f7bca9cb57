package model

import "time"

// Post is authored by exactly one User.
type Post struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Title     string    `gorm:"not null" json:"title"`
	Content   *string   `json:"content"`
	Published bool      `gorm:"not null;default:false" json:"published"`
	AuthorID  int64     `gorm:"not null;index" json:"authorId"`
}

func (Post) TableName() string { return "posts" }
