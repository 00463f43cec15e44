package server

import (
	"fmt"
	"io"
	"mime/multipart"

	"campingrate/internal/middleware"
	"campingrate/internal/models"
	"campingrate/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateCampground handles POST /api/campgrounds/create
// @Summary Create campground
// @Description Multipart form with title, location, price, description and one or more images
// @Tags campgrounds
// @Accept mpfd
// @Produce json
// @Param title formData string true "Title"
// @Param location formData string true "Location to geocode"
// @Param price formData string true "Nightly price"
// @Param description formData string true "Description"
// @Param images formData file true "Images"
// @Success 201 {object} models.Campground
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /campgrounds/create [post]
func (s *Server) CreateCampground(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid form data"))
	}

	images, err := s.readUploads(form.File["images"])
	if err != nil {
		return models.Respond(c, err)
	}

	campground, err := s.campgroundService.Create(c.UserContext(), service.CreateCampgroundInput{
		AuthorID:    userID,
		Title:       formValue(form, "title"),
		Location:    formValue(form, "location"),
		Price:       formValue(form, "price"),
		Description: formValue(form, "description"),
		Images:      images,
	})
	if err != nil {
		return models.Respond(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(campground)
}

func formValue(form *multipart.Form, key string) string {
	if values := form.Value[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}

// readUploads loads every file into memory. Anything above the per-file limit
// is cut one byte past it so the size check still rejects it.
func (s *Server) readUploads(files []*multipart.FileHeader) ([]service.UploadedImage, error) {
	limit := s.config.ImageMaxUploadBytes()
	out := make([]service.UploadedImage, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, models.NewValidationError(fmt.Sprintf("Image %q could not be read", fh.Filename))
		}
		content, err := io.ReadAll(io.LimitReader(f, limit+1))
		_ = f.Close()
		if err != nil {
			return nil, models.NewValidationError(fmt.Sprintf("Image %q could not be read", fh.Filename))
		}
		out = append(out, service.UploadedImage{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get(fiber.HeaderContentType),
			Content:     content,
		})
	}
	return out, nil
}

// GetCampgrounds handles GET /api/campgrounds
// @Summary List campgrounds
// @Description All campgrounds with images, author and average rating
// @Tags campgrounds
// @Produce json
// @Success 200 {array} models.Campground
// @Router /campgrounds [get]
func (s *Server) GetCampgrounds(c *fiber.Ctx) error {
	campgrounds, err := s.campgroundService.List(c.UserContext())
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(campgrounds)
}

// GetTopCampgrounds handles GET /api/campgrounds/top
// @Summary Top-rated campgrounds
// @Description Campgrounds ordered by average rating, unrated last
// @Tags campgrounds
// @Produce json
// @Param limit query int false "How many to return (default 3, max 50)"
// @Success 200 {array} models.Campground
// @Failure 404 {object} models.ErrorResponse
// @Router /campgrounds/top [get]
func (s *Server) GetTopCampgrounds(c *fiber.Ctx) error {
	userID, _ := middleware.UserIDFrom(c)
	if !s.campgroundService.TopEnabled(userID) {
		return models.RespondWithError(c, fiber.StatusNotFound, &models.AppError{
			Code:    models.CodeNotFound,
			Message: "Top campgrounds are not available",
		})
	}

	campgrounds, err := s.campgroundService.Top(c.UserContext(), c.QueryInt("limit", service.DefaultTopLimit))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(campgrounds)
}

// GetMyCampgrounds handles GET /api/campgrounds/user
// @Summary Caller's campgrounds
// @Tags campgrounds
// @Produce json
// @Success 200 {array} models.Campground
// @Failure 401 {object} models.ErrorResponse
// @Router /campgrounds/user [get]
func (s *Server) GetMyCampgrounds(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return nil
	}

	campgrounds, err := s.campgroundService.ListByAuthor(c.UserContext(), userID)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(campgrounds)
}

// GetCampground handles GET /api/campgrounds/:id
// @Summary Get campground
// @Tags campgrounds
// @Produce json
// @Param id path int true "Campground ID"
// @Success 200 {object} models.Campground
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /campgrounds/{id} [get]
func (s *Server) GetCampground(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	campground, err := s.campgroundService.Get(c.UserContext(), id)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(campground)
}

// DeleteCampground handles DELETE /api/campgrounds/:id
// @Summary Delete campground
// @Description Deletes the caller's campground with its reviews and images
// @Tags campgrounds
// @Produce json
// @Param id path int true "Campground ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /campgrounds/{id} [delete]
func (s *Server) DeleteCampground(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return nil
	}
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.campgroundService.Delete(c.UserContext(), service.DeleteCampgroundInput{
		UserID:       userID,
		CampgroundID: id,
	}); err != nil {
		return models.Respond(c, err)
	}

	return c.JSON(fiber.Map{"message": "Campground deleted successfully"})
}
