package models

import "time"

// Campground is a listed camping location owned by the user who created it.
type Campground struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	Title       string            `gorm:"size:50;not null" json:"title"`
	Location    string            `gorm:"size:255;not null" json:"location"`
	Latitude    string            `gorm:"size:32;not null" json:"latitude"`
	Longitude   string            `gorm:"size:32;not null" json:"longitude"`
	Price       float64           `gorm:"type:numeric(10,2);not null" json:"price"`
	Description string            `gorm:"size:500;not null" json:"description"`
	Images      []CampgroundImage `gorm:"foreignKey:CampgroundID;constraint:OnDelete:CASCADE" json:"images"`
	AuthorID    uint              `gorm:"not null;index" json:"author_id"`
	Author      *Author           `gorm:"foreignKey:AuthorID;-:migration" json:"author,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`

	// AverageRating is computed on every read and never persisted.
	AverageRating *float64 `gorm:"-" json:"average_rating"`
}

// CampgroundImage is one stored picture of a campground. Position keeps upload order.
// The WebP fields are set only when a rendition was stored alongside the JPEG.
type CampgroundImage struct {
	ID           uint   `gorm:"primaryKey" json:"-"`
	CampgroundID uint   `gorm:"not null;index" json:"-"`
	Position     int    `gorm:"not null" json:"-"`
	URL          string `gorm:"not null" json:"url"`
	Filename     string `gorm:"not null" json:"filename"`
	WebPURL      string `gorm:"column:webp_url;not null;default:''" json:"webp_url,omitempty"`
	WebPFilename string `gorm:"column:webp_filename;not null;default:''" json:"-"`
}

// Filenames returns the object-store identifiers of the campground's images,
// renditions included.
func (c *Campground) Filenames() []string {
	out := make([]string, 0, len(c.Images))
	for _, img := range c.Images {
		out = append(out, img.Filename)
		if img.WebPFilename != "" {
			out = append(out, img.WebPFilename)
		}
	}
	return out
}
