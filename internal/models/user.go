// Package models contains the persistent domain types and the API error contract.
package models

import "time"

// User is a registered account. Users are never updated or deleted through the API.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:14;not null" json:"username"`
	Email     string    `gorm:"size:254;uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Author is the read-only public projection of a user embedded in campgrounds and reviews.
type Author struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Username string `json:"username"`
}

// TableName maps Author onto the users table.
func (Author) TableName() string {
	return "users"
}
