package repository

import (
	"context"

	"campingrate/internal/models"
	"campingrate/internal/observability"

	"gorm.io/gorm"
)

// CampgroundRepository defines persistence operations for campgrounds and their images.
type CampgroundRepository interface {
	// Create stores the campground and its images atomically, assigning image positions in slice order.
	Create(ctx context.Context, campground *models.Campground) error
	GetByID(ctx context.Context, id uint) (*models.Campground, error)
	List(ctx context.Context) ([]models.Campground, error)
	ListByAuthor(ctx context.Context, authorID uint) ([]models.Campground, error)
	// DeleteCascade removes the campground with its reviews and image rows in one transaction.
	DeleteCascade(ctx context.Context, id uint) error
}

type campgroundRepository struct {
	db *gorm.DB
}

// NewCampgroundRepository returns a new CampgroundRepository implementation.
func NewCampgroundRepository(db *gorm.DB) CampgroundRepository {
	return &campgroundRepository{db: db}
}

func (r *campgroundRepository) withRelations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Author", selectAuthor)
}

func (r *campgroundRepository) Create(ctx context.Context, campground *models.Campground) error {
	defer observability.TrackQuery("insert", "campgrounds")()

	images := campground.Images
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Author", "Images").Create(campground).Error; err != nil {
			return err
		}
		for i := range images {
			images[i].CampgroundID = campground.ID
			images[i].Position = i
		}
		if len(images) > 0 {
			if err := tx.Create(&images).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	campground.Images = images
	return nil
}

func (r *campgroundRepository) GetByID(ctx context.Context, id uint) (*models.Campground, error) {
	defer observability.TrackQuery("select", "campgrounds")()

	var campground models.Campground
	if err := r.withRelations(ctx).First(&campground, id).Error; err != nil {
		return nil, notFoundOr(err, "Campground", id)
	}
	return &campground, nil
}

func (r *campgroundRepository) List(ctx context.Context) ([]models.Campground, error) {
	defer observability.TrackQuery("select", "campgrounds")()

	var campgrounds []models.Campground
	if err := r.withRelations(ctx).Order("id ASC").Find(&campgrounds).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return campgrounds, nil
}

func (r *campgroundRepository) ListByAuthor(ctx context.Context, authorID uint) ([]models.Campground, error) {
	defer observability.TrackQuery("select", "campgrounds")()

	var campgrounds []models.Campground
	if err := r.withRelations(ctx).Where("author_id = ?", authorID).Order("id ASC").Find(&campgrounds).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return campgrounds, nil
}

func (r *campgroundRepository) DeleteCascade(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete", "campgrounds")()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("campground_id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return models.NewInternalError(err)
		}
		if err := tx.Where("campground_id = ?", id).Delete(&models.CampgroundImage{}).Error; err != nil {
			return models.NewInternalError(err)
		}
		res := tx.Delete(&models.Campground{}, id)
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Campground", id)
		}
		return nil
	})
}
