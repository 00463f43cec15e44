package models

import "time"

// Review is a star rating with a comment left by a user on a campground.
type Review struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Content      string    `gorm:"size:500;not null" json:"content"`
	Rating       int       `gorm:"type:smallint;not null" json:"rating"`
	AuthorID     uint      `gorm:"not null;index" json:"author_id"`
	Author       *Author   `gorm:"foreignKey:AuthorID;-:migration" json:"author,omitempty"`
	CampgroundID uint      `gorm:"not null;index" json:"campground_id"`
	CreatedAt    time.Time `json:"created_at"`
}

const (
	MinRating = 1
	MaxRating = 5
)
