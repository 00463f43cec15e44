package database

import "campingrate/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
// models.Author is a read projection of users and is deliberately absent.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Campground{},
		&models.CampgroundImage{},
		&models.Review{},
	}
}
