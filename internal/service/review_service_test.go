package service

import (
	"context"
	"strings"
	"testing"

	"campingrate/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewService_CreateValidation(t *testing.T) {
	t.Parallel()

	missing := noopCampgroundRepo()
	missing.getByIDFn = func(_ context.Context, id uint) (*models.Campground, error) {
		return nil, models.NewNotFoundError("Campground", id)
	}

	tests := []struct {
		name    string
		in      CreateReviewInput
		code    models.ErrorCode
		message string
	}{
		{"Missing Content", CreateReviewInput{Rating: ptr(4)}, models.CodeValidation, "Please write a review"},
		{"Long Content", CreateReviewInput{Content: strings.Repeat("r", 501), Rating: ptr(4)}, models.CodeValidation, "Review can only have 500 characters"},
		{"Missing Rating", CreateReviewInput{Content: "Nice"}, models.CodeValidation, "Rating is required"},
		{"Zero Rating", CreateReviewInput{Content: "Nice", Rating: ptr(0)}, models.CodeValidation, "Not a valid rating"},
		{"Fractional Rating", CreateReviewInput{Content: "Nice", Rating: ptr(3.5)}, models.CodeValidation, "Not a valid rating"},
		{"Rating Too High", CreateReviewInput{Content: "Nice", Rating: ptr(6)}, models.CodeValidation, "Not a valid rating"},
		{"Content Checked Before Rating", CreateReviewInput{Rating: ptr(9)}, models.CodeValidation, "Please write a review"},
		{"Unknown Campground", CreateReviewInput{CampgroundID: 42, Content: "Nice", Rating: ptr(5)}, models.CodeNotFound, "Campground with ID 42 not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			created := 0
			reviews := noopReviewRepo()
			reviews.createFn = func(context.Context, *models.Review) error {
				created++
				return nil
			}

			_, err := NewReviewService(reviews, missing).Create(context.Background(), tt.in)
			appErr := assertAppError(t, err, tt.code)
			assert.Equal(t, tt.message, appErr.Message)
			assert.Zero(t, created)
		})
	}
}

func TestReviewService_Create(t *testing.T) {
	t.Parallel()

	var stored *models.Review
	reviews := noopReviewRepo()
	reviews.createFn = func(_ context.Context, r *models.Review) error {
		r.ID = 11
		r.Author = &models.Author{ID: r.AuthorID, Username: "hiker"}
		stored = r
		return nil
	}

	review, err := NewReviewService(reviews, noopCampgroundRepo()).Create(context.Background(), CreateReviewInput{
		UserID:       3,
		CampgroundID: 7,
		Content:      "Great views",
		Rating:       ptr(5),
	})
	require.NoError(t, err)
	require.Same(t, stored, review)
	assert.Equal(t, uint(11), review.ID)
	assert.Equal(t, 5, review.Rating)
	assert.Equal(t, uint(3), review.AuthorID)
	assert.Equal(t, uint(7), review.CampgroundID)
	assert.Equal(t, "hiker", review.Author.Username)
}

func TestReviewService_List(t *testing.T) {
	t.Parallel()

	reviews := noopReviewRepo()
	reviews.listByCampgroundFn = func(_ context.Context, id uint) ([]models.Review, error) {
		if id == 7 {
			return []models.Review{{ID: 1}, {ID: 2}}, nil
		}
		return []models.Review{}, nil
	}
	svc := NewReviewService(reviews, noopCampgroundRepo())

	list, err := svc.List(context.Background(), 7)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = svc.List(context.Background(), 999)
	require.NoError(t, err)
	assert.Empty(t, list)
}
