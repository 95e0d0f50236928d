package models

import (
	"time"
)

type User struct {
	ID                string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Email             string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash      string    `json:"-" gorm:"not null"`
	Username          string    `json:"username"`
	Nickname          string    `json:"nickname"`
	ProfilePictureURL string    `json:"profilePictureURL"`
	PhoneNumber       string    `json:"phoneNumber" gorm:"not null"`
	Address           string    `json:"address" gorm:"not null"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// UserSummary is what a review exposes about its author. Email is only
// set on the review listing.
type UserSummary struct {
	ID                string `json:"id"`
	Username          string `json:"username"`
	ProfilePictureURL string `json:"profilePictureURL"`
	Email             string `json:"email,omitempty"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:                u.ID,
		Username:          u.Username,
		ProfilePictureURL: u.ProfilePictureURL,
		Email:             u.Email,
	}
}
