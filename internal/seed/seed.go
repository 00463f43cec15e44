package seed

import (
	"context"
	"fmt"
	"log/slog"

	"campingrate/internal/auth"
	"campingrate/internal/middleware"
	"campingrate/internal/models"
	"campingrate/internal/repository"

	"gorm.io/gorm"
)

// Options controls how much data Run creates.
type Options struct {
	NumUsers       int
	NumCampgrounds int
	// MaxReviews caps the reviews per campground; each gets between 0 and MaxReviews.
	MaxReviews  int
	ShouldClean bool
	// Seed makes the generated content reproducible. Zero is random.
	Seed       int64
	BcryptCost int
}

// Summary counts what Run created.
type Summary struct {
	Users       int
	Campgrounds int
	Reviews     int
}

// Seeder populates a database through the application repositories.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
}

// NewSeeder returns a Seeder bound to db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	if opts.NumUsers <= 0 {
		opts.NumUsers = 10
	}
	if opts.NumCampgrounds < 0 {
		opts.NumCampgrounds = 0
	}
	if opts.MaxReviews < 0 {
		opts.MaxReviews = 0
	}

	return &Seeder{
		db:   db,
		opts: opts,
		factory: NewFactory(opts.Seed,
			auth.NewPasswordHasher(opts.BcryptCost),
			repository.NewUserRepository(db),
			repository.NewCampgroundRepository(db),
			repository.NewReviewRepository(db),
		),
	}
}

// ClearAll deletes every review, image, campground and user, children first.
func (s *Seeder) ClearAll(ctx context.Context) error {
	tx := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, model := range []interface{}{
		&models.Review{},
		&models.CampgroundImage{},
		&models.Campground{},
		&models.User{},
	} {
		if err := tx.Delete(model).Error; err != nil {
			return fmt.Errorf("clear %T: %w", model, err)
		}
	}
	middleware.Logger.Info("Cleared existing data")
	return nil
}

// Run creates users, spreads campgrounds across them and lets other users
// review each campground.
func (s *Seeder) Run(ctx context.Context) (*Summary, error) {
	if s.opts.ShouldClean {
		if err := s.ClearAll(ctx); err != nil {
			return nil, err
		}
	}

	summary := &Summary{}
	users := make([]*models.User, 0, s.opts.NumUsers)
	for i := 0; i < s.opts.NumUsers; i++ {
		user, err := s.factory.CreateUser(ctx)
		if err != nil {
			return summary, fmt.Errorf("create user: %w", err)
		}
		users = append(users, user)
		summary.Users++
	}

	f := s.factory.faker
	for i := 0; i < s.opts.NumCampgrounds; i++ {
		author := users[i%len(users)]
		campground, err := s.factory.CreateCampground(ctx, author)
		if err != nil {
			return summary, fmt.Errorf("create campground: %w", err)
		}
		summary.Campgrounds++

		if s.opts.MaxReviews == 0 || len(users) < 2 {
			continue
		}
		for n := f.Number(0, s.opts.MaxReviews); n > 0; n-- {
			reviewer := users[f.Number(0, len(users)-1)]
			if reviewer.ID == author.ID {
				continue
			}
			if _, err := s.factory.CreateReview(ctx, reviewer, campground); err != nil {
				return summary, fmt.Errorf("create review: %w", err)
			}
			summary.Reviews++
		}
	}

	middleware.Logger.Info("Seeding complete",
		slog.Int("users", summary.Users),
		slog.Int("campgrounds", summary.Campgrounds),
		slog.Int("reviews", summary.Reviews),
	)
	return summary, nil
}
