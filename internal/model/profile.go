package model

// Profile belongs to one User; a user has at most one.
type Profile struct {
	ID     int64   `gorm:"primaryKey" json:"id"`
	Bio    *string `json:"bio"`
	UserID int64   `gorm:"not null;uniqueIndex:profiles_user_id_key" json:"userId"`
}

func (Profile) TableName() string { return "profiles" }
