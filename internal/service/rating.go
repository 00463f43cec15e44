package service

import (
	"context"
	"math"
	"time"

	"campingrate/internal/models"
	"campingrate/internal/observability"
	"campingrate/internal/repository"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// DefaultRatingConcurrency bounds the per-campground lookups of one Annotate call.
const DefaultRatingConcurrency = 8

// RatingAggregator computes average review ratings on every read.
type RatingAggregator struct {
	reviews     repository.ReviewRepository
	concurrency int
}

func NewRatingAggregator(reviews repository.ReviewRepository, concurrency int) *RatingAggregator {
	if concurrency <= 0 {
		concurrency = DefaultRatingConcurrency
	}
	return &RatingAggregator{reviews: reviews, concurrency: concurrency}
}

// AverageOf returns the mean rounded to one decimal, or nil when there are no ratings.
func AverageOf(ratings []int) *float64 {
	if len(ratings) == 0 {
		return nil
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	avg := math.Round(float64(sum)/float64(len(ratings))*10) / 10
	return &avg
}

// Average returns the campground's rounded mean rating, nil when unreviewed.
func (a *RatingAggregator) Average(ctx context.Context, campgroundID uint) (*float64, error) {
	ratings, err := a.reviews.Ratings(ctx, campgroundID)
	if err != nil {
		return nil, err
	}
	return AverageOf(ratings), nil
}

// Annotate fills AverageRating on every campground. Lookups run concurrently and
// the first failure cancels the rest.
func (a *RatingAggregator) Annotate(ctx context.Context, campgrounds []models.Campground) (err error) {
	start := time.Now()
	ctx, span := observability.StartInternalSpan(ctx, "ratings.annotate",
		attribute.Int("campgrounds.count", len(campgrounds)))
	defer func() {
		observability.RatingAggregationLatency.Observe(time.Since(start).Seconds())
		observability.EndSpan(span, err)
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	for i := range campgrounds {
		cg := &campgrounds[i]
		g.Go(func() error {
			avg, err := a.Average(gctx, cg.ID)
			if err != nil {
				return err
			}
			cg.AverageRating = avg
			return nil
		})
	}

	return g.Wait()
}
