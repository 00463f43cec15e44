package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"campingrate/internal/featureflags"
	"campingrate/internal/geocode"
	"campingrate/internal/imaging"
	"campingrate/internal/middleware"
	"campingrate/internal/models"
	"campingrate/internal/repository"
	"campingrate/internal/storage"
	"campingrate/internal/validation"

	"github.com/google/uuid"
)

const (
	// DefaultTopLimit is how many campgrounds the top-rated listing returns by default.
	DefaultTopLimit = 3
	MaxTopLimit     = 50

	imageKeyPrefix = "campgrounds/"
)

// UploadedImage is one file from the create form.
type UploadedImage struct {
	Filename    string
	ContentType string
	Content     []byte
}

type CreateCampgroundInput struct {
	AuthorID    uint
	Title       string
	Location    string
	Price       string
	Description string
	Images      []UploadedImage
}

type DeleteCampgroundInput struct {
	UserID       uint
	CampgroundID uint
}

type CampgroundService struct {
	campgrounds    repository.CampgroundRepository
	geocoder       geocode.Geocoder
	images         storage.ImageStore
	ratings        *RatingAggregator
	flags          *featureflags.Manager
	maxUploadBytes int64
	newKey         func() string
}

func NewCampgroundService(
	campgrounds repository.CampgroundRepository,
	geocoder geocode.Geocoder,
	images storage.ImageStore,
	ratings *RatingAggregator,
	flags *featureflags.Manager,
	maxUploadBytes int64,
) *CampgroundService {
	return &CampgroundService{
		campgrounds:    campgrounds,
		geocoder:       geocoder,
		images:         images,
		ratings:        ratings,
		flags:          flags,
		maxUploadBytes: maxUploadBytes,
		newKey:         func() string { return uuid.NewString() },
	}
}

func validateCampground(in CreateCampgroundInput) (float64, error) {
	if err := validation.ValidateTitle(in.Title); err != nil {
		return 0, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateLocation(in.Location); err != nil {
		return 0, models.NewValidationError(err.Error())
	}
	price, err := validation.ParsePrice(in.Price)
	if err != nil {
		return 0, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateDescription(in.Description); err != nil {
		return 0, models.NewValidationError(err.Error())
	}
	if len(in.Images) == 0 {
		return 0, models.NewValidationError("At least one image is required")
	}
	return price, nil
}

// Create validates the form, geocodes the location, normalises and uploads the
// images and stores the campground. Nothing is persisted when any step fails, and
// images uploaded before a failure are removed again.
func (s *CampgroundService) Create(ctx context.Context, in CreateCampgroundInput) (*models.Campground, error) {
	price, err := validateCampground(in)
	if err != nil {
		return nil, err
	}

	coords, err := s.geocoder.Forward(ctx, in.Location)
	if err != nil {
		return nil, err
	}

	withWebP := s.flags.Enabled(featureflags.WebPRenditions, in.AuthorID)
	normalized := make([]*imaging.Result, 0, len(in.Images))
	for _, upload := range in.Images {
		res, err := imaging.Normalize(upload.Filename, upload.ContentType, upload.Content, imaging.Options{
			MaxBytes: s.maxUploadBytes,
			WithWebP: withWebP,
		})
		if err != nil {
			return nil, err
		}
		normalized = append(normalized, res)
	}

	stored, err := s.upload(ctx, normalized)
	if err != nil {
		return nil, err
	}

	campground := &models.Campground{
		Title:       in.Title,
		Location:    in.Location,
		Latitude:    coords.Latitude,
		Longitude:   coords.Longitude,
		Price:       price,
		Description: in.Description,
		Images:      stored,
		AuthorID:    in.AuthorID,
	}
	if err := s.campgrounds.Create(ctx, campground); err != nil {
		s.removeImages(ctx, campground.Filenames())
		return nil, err
	}

	created, err := s.campgrounds.GetByID(ctx, campground.ID)
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *CampgroundService) upload(ctx context.Context, normalized []*imaging.Result) ([]models.CampgroundImage, error) {
	images := make([]models.CampgroundImage, 0, len(normalized))
	var uploaded []string

	fail := func(err error) ([]models.CampgroundImage, error) {
		s.removeImages(ctx, uploaded)
		return nil, models.NewUpstreamError("Could not store the uploaded images", err)
	}

	for _, res := range normalized {
		key := imageKeyPrefix + s.newKey()

		jpg, err := s.images.Put(ctx, key+".jpg", res.JPEG, "image/jpeg")
		if err != nil {
			return fail(err)
		}
		uploaded = append(uploaded, jpg.Filename)
		img := models.CampgroundImage{URL: jpg.URL, Filename: jpg.Filename}

		if res.WebP != nil {
			webp, err := s.images.Put(ctx, key+".webp", res.WebP, "image/webp")
			if err != nil {
				return fail(err)
			}
			uploaded = append(uploaded, webp.Filename)
			img.WebPURL = webp.URL
			img.WebPFilename = webp.Filename
		}

		images = append(images, img)
	}
	return images, nil
}

// removeImages deletes objects best-effort; failures are logged and left behind.
func (s *CampgroundService) removeImages(ctx context.Context, filenames []string) {
	for _, name := range filenames {
		if err := s.images.Delete(ctx, name); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
			middleware.Logger.WarnContext(ctx, "Failed to delete stored image",
				slog.String("filename", name),
				slog.String("error", err.Error()),
			)
		}
	}
}

// Get returns one campground with its current average rating.
func (s *CampgroundService) Get(ctx context.Context, id uint) (*models.Campground, error) {
	campground, err := s.campgrounds.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	avg, err := s.ratings.Average(ctx, id)
	if err != nil {
		return nil, err
	}
	campground.AverageRating = avg
	return campground, nil
}

// List returns every campground annotated with its average rating.
func (s *CampgroundService) List(ctx context.Context) ([]models.Campground, error) {
	campgrounds, err := s.campgrounds.List(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.ratings.Annotate(ctx, campgrounds); err != nil {
		return nil, err
	}
	return campgrounds, nil
}

// ListByAuthor returns the user's campgrounds annotated with their average ratings.
func (s *CampgroundService) ListByAuthor(ctx context.Context, authorID uint) ([]models.Campground, error) {
	campgrounds, err := s.campgrounds.ListByAuthor(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if err := s.ratings.Annotate(ctx, campgrounds); err != nil {
		return nil, err
	}
	return campgrounds, nil
}

// TopEnabled reports whether the top-rated listing is switched on for the caller.
func (s *CampgroundService) TopEnabled(userID uint) bool {
	return s.flags.Enabled(featureflags.TopCampgrounds, userID)
}

// Top returns up to limit campgrounds ordered by average rating, unrated last.
// Ties keep listing order.
func (s *CampgroundService) Top(ctx context.Context, limit int) ([]models.Campground, error) {
	if limit <= 0 {
		limit = DefaultTopLimit
	}
	if limit > MaxTopLimit {
		limit = MaxTopLimit
	}

	campgrounds, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(campgrounds, func(i, j int) bool {
		a, b := campgrounds[i].AverageRating, campgrounds[j].AverageRating
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a > *b
		}
	})

	if len(campgrounds) > limit {
		campgrounds = campgrounds[:limit]
	}
	return campgrounds, nil
}

// Delete removes the caller's campground, its reviews and image rows in one
// transaction, then deletes the stored image files best-effort.
func (s *CampgroundService) Delete(ctx context.Context, in DeleteCampgroundInput) error {
	campground, err := s.campgrounds.GetByID(ctx, in.CampgroundID)
	if err != nil {
		return err
	}
	if campground.AuthorID != in.UserID {
		return models.NewForbiddenError("You can only delete your own campgrounds")
	}

	if err := s.campgrounds.DeleteCascade(ctx, in.CampgroundID); err != nil {
		return err
	}

	s.removeImages(ctx, campground.Filenames())
	return nil
}
