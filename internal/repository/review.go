package repository

import (
	"context"

	"campingrate/internal/models"
	"campingrate/internal/observability"

	"gorm.io/gorm"
)

// ReviewRepository defines persistence operations for reviews.
type ReviewRepository interface {
	// Create stores the review and loads its author projection.
	Create(ctx context.Context, review *models.Review) error
	ListByCampground(ctx context.Context, campgroundID uint) ([]models.Review, error)
	// Ratings returns every rating left on the campground.
	Ratings(ctx context.Context, campgroundID uint) ([]int, error)
}

type reviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository returns a new ReviewRepository implementation.
func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(ctx context.Context, review *models.Review) error {
	defer observability.TrackQuery("insert", "reviews")()

	db := r.db.WithContext(ctx)
	if err := db.Omit("Author").Create(review).Error; err != nil {
		return models.NewInternalError(err)
	}

	var author models.Author
	if err := selectAuthor(db).First(&author, review.AuthorID).Error; err != nil {
		return notFoundOr(err, "User", review.AuthorID)
	}
	review.Author = &author
	return nil
}

func (r *reviewRepository) ListByCampground(ctx context.Context, campgroundID uint) ([]models.Review, error) {
	defer observability.TrackQuery("select", "reviews")()

	var reviews []models.Review
	if err := r.db.WithContext(ctx).
		Preload("Author", selectAuthor).
		Where("campground_id = ?", campgroundID).
		Order("id ASC").
		Find(&reviews).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return reviews, nil
}

func (r *reviewRepository) Ratings(ctx context.Context, campgroundID uint) ([]int, error) {
	defer observability.TrackQuery("select", "reviews")()

	var ratings []int
	if err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("campground_id = ?", campgroundID).
		Pluck("rating", &ratings).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ratings, nil
}
