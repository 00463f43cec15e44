package service

import (
	"context"

	"campingrate/internal/models"
	"campingrate/internal/repository"
	"campingrate/internal/validation"
)

type ReviewService struct {
	reviews     repository.ReviewRepository
	campgrounds repository.CampgroundRepository
}

type CreateReviewInput struct {
	UserID       uint
	CampgroundID uint
	Content      string
	// Rating is nil when the client sent none.
	Rating *float64
}

func NewReviewService(reviews repository.ReviewRepository, campgrounds repository.CampgroundRepository) *ReviewService {
	return &ReviewService{
		reviews:     reviews,
		campgrounds: campgrounds,
	}
}

func (s *ReviewService) Create(ctx context.Context, in CreateReviewInput) (*models.Review, error) {
	if err := validation.ValidateReviewContent(in.Content); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	rating, err := validation.ParseRating(in.Rating)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	if _, err := s.campgrounds.GetByID(ctx, in.CampgroundID); err != nil {
		return nil, err
	}

	review := &models.Review{
		Content:      in.Content,
		Rating:       rating,
		AuthorID:     in.UserID,
		CampgroundID: in.CampgroundID,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

// List returns the reviews of a campground in creation order. An unknown or
// deleted campground simply has none.
func (s *ReviewService) List(ctx context.Context, campgroundID uint) ([]models.Review, error) {
	return s.reviews.ListByCampground(ctx, campgroundID)
}
