// Package seed fills the database with demo users, campgrounds and reviews.
// It is meant for development and tests only.
package seed

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"campingrate/internal/auth"
	"campingrate/internal/models"
	"campingrate/internal/repository"
	"campingrate/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
)

// DemoPassword is the plaintext password of every seeded user.
const DemoPassword = "password123"

// Factory builds domain entities with fake content and persists them
// through the repositories.
type Factory struct {
	faker       *gofakeit.Faker
	hasher      *auth.PasswordHasher
	users       repository.UserRepository
	campgrounds repository.CampgroundRepository
	reviews     repository.ReviewRepository

	// hashed once; bcrypt dominates seeding time otherwise
	passwordHash string
	nextUser     int
}

// NewFactory returns a Factory. A zero seed picks a random one.
func NewFactory(
	seed int64,
	hasher *auth.PasswordHasher,
	users repository.UserRepository,
	campgrounds repository.CampgroundRepository,
	reviews repository.ReviewRepository,
) *Factory {
	return &Factory{
		faker:       gofakeit.New(seed),
		hasher:      hasher,
		users:       users,
		campgrounds: campgrounds,
		reviews:     reviews,
	}
}

// CreateUser persists a user with a unique username and email.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	if f.passwordHash == "" {
		hashed, err := f.hasher.Hash(DemoPassword)
		if err != nil {
			return nil, err
		}
		f.passwordHash = hashed
	}

	f.nextUser++
	suffix := strconv.Itoa(f.nextUser)
	base := strings.ToLower(f.faker.Username())
	user := &models.User{
		Username: truncate(base, validation.MaxUsernameLength-len(suffix)) + suffix,
		Email:    validation.NormalizeEmail(fmt.Sprintf("%s.%s", suffix, f.faker.Email())),
		Password: f.passwordHash,
	}
	for _, override := range overrides {
		override(user)
	}

	if err := f.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// CreateCampground persists a campground by author with one to three
// placeholder images.
func (f *Factory) CreateCampground(ctx context.Context, author *models.User, overrides ...func(*models.Campground)) (*models.Campground, error) {
	campground := &models.Campground{
		Title:       truncate(strings.TrimSuffix(f.faker.Sentence(3), "."), validation.MaxTitleLength),
		Location:    fmt.Sprintf("%s, %s", f.faker.City(), f.faker.StateAbr()),
		Latitude:    strconv.FormatFloat(f.faker.Latitude(), 'f', 6, 64),
		Longitude:   strconv.FormatFloat(f.faker.Longitude(), 'f', 6, 64),
		Price:       math.Round(f.faker.Price(5, 80)*100) / 100,
		Description: truncate(f.faker.Paragraph(1, 3, 8, " "), validation.MaxDescriptionLength),
		AuthorID:    author.ID,
	}
	for i := f.faker.Number(1, 3); i > 0; i-- {
		id := f.faker.UUID()
		campground.Images = append(campground.Images, models.CampgroundImage{
			URL:      fmt.Sprintf("https://picsum.photos/seed/%s/800/600", id),
			Filename: "seed/" + id,
		})
	}
	for _, override := range overrides {
		override(campground)
	}

	if err := f.campgrounds.Create(ctx, campground); err != nil {
		return nil, err
	}
	return campground, nil
}

// CreateReview persists a review of campground by author with a rating from 1 to 5.
func (f *Factory) CreateReview(ctx context.Context, author *models.User, campground *models.Campground, overrides ...func(*models.Review)) (*models.Review, error) {
	review := &models.Review{
		Content:      truncate(f.faker.Sentence(12), validation.MaxReviewLength),
		Rating:       f.faker.Number(1, 5),
		AuthorID:     author.ID,
		CampgroundID: campground.ID,
	}
	for _, override := range overrides {
		override(review)
	}

	if err := f.reviews.Create(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:limit]))
}
