package server

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"campingrate/internal/models"
	"campingrate/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetReviews handles GET /api/reviews/:campgroundId
// @Summary List reviews
// @Description Reviews of a campground in creation order
// @Tags reviews
// @Produce json
// @Param campgroundId path int true "Campground ID"
// @Success 200 {array} models.Review
// @Failure 400 {object} models.ErrorResponse
// @Router /reviews/{campgroundId} [get]
func (s *Server) GetReviews(c *fiber.Ctx) error {
	campgroundID, err := s.parseID(c, "campgroundId")
	if err != nil {
		return nil
	}

	reviews, err := s.reviewService.List(c.UserContext(), campgroundID)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(reviews)
}

// CreateReview handles POST /api/reviews/:campgroundId
// @Summary Review a campground
// @Tags reviews
// @Accept json
// @Produce json
// @Param campgroundId path int true "Campground ID"
// @Param request body object{content=string,rating=number} true "Review"
// @Success 201 {object} models.Review
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /reviews/{campgroundId} [post]
func (s *Server) CreateReview(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return nil
	}
	campgroundID, err := s.parseID(c, "campgroundId")
	if err != nil {
		return nil
	}

	var req struct {
		Content string      `json:"content"`
		Rating  ratingField `json:"rating"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	review, err := s.reviewService.Create(c.UserContext(), service.CreateReviewInput{
		UserID:       userID,
		CampgroundID: campgroundID,
		Content:      req.Content,
		Rating:       req.Rating.value,
	})
	if err != nil {
		return models.Respond(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(review)
}

// ratingField accepts the rating as a JSON number or a numeric string.
// Unparseable text becomes NaN so it fails rating validation, not body parsing.
type ratingField struct {
	value *float64
}

func (r *ratingField) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		r.value = nil
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		r.value = &f
		return nil
	}

	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		r.value = nil
		return nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		f = math.NaN()
	}
	r.value = &f
	return nil
}
