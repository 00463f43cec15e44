// Package validation provides input validation utilities
package validation

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	MaxUsernameLength    = 14
	MaxEmailLength       = 254
	MinPasswordLength    = 6
	MaxTitleLength       = 50
	MaxLocationLength    = 255
	MaxDescriptionLength = 500
	MaxReviewLength      = 500
	MaxPrice             = 99999999
	MaxPriceDecimals     = 2
)

// Length counts characters, not bytes.
func Length(s string) int {
	return utf8.RuneCountInString(s)
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// ValidateUsername checks presence and length of a username.
func ValidateUsername(username string) error {
	if blank(username) {
		return errors.New("Username is required")
	}
	if Length(username) > MaxUsernameLength {
		return errors.New("Username can only have 14 characters")
	}
	return nil
}

// ValidateEmail checks presence and length of an email address.
func ValidateEmail(email string) error {
	if blank(email) {
		return errors.New("Email is required")
	}
	if Length(email) > MaxEmailLength {
		return errors.New("Email too big")
	}
	return nil
}

// ValidatePassword checks presence and minimum length of a password.
func ValidatePassword(password string) error {
	if password == "" {
		return errors.New("Password is required")
	}
	if Length(password) < MinPasswordLength {
		return errors.New("Password should be at least 6 characters long")
	}
	return nil
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidateTitle(title string) error {
	if blank(title) {
		return errors.New("Title is required")
	}
	if Length(title) > MaxTitleLength {
		return errors.New("Title can only have 50 characters")
	}
	return nil
}

func ValidateLocation(location string) error {
	if blank(location) {
		return errors.New("Location is required")
	}
	if Length(location) > MaxLocationLength {
		return errors.New("Location can only have 255 characters")
	}
	return nil
}

func ValidateDescription(description string) error {
	if blank(description) {
		return errors.New("Description is required")
	}
	if Length(description) > MaxDescriptionLength {
		return errors.New("Description can only have 500 characters")
	}
	return nil
}

// ParsePrice parses a submitted price and checks its range and precision.
// Precision is judged on the shortest decimal form of the parsed value, so
// "10.990" is accepted as 10.99 while "10.999" is rejected.
func ParsePrice(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errors.New("Price is required")
	}

	price, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, errors.New("Price must be a number")
	}
	if price < 0 {
		return 0, errors.New("Price has to be positive")
	}
	if price > MaxPrice {
		return 0, errors.New("Price is too high")
	}

	formatted := strconv.FormatFloat(price, 'f', -1, 64)
	if dot := strings.IndexByte(formatted, '.'); dot >= 0 && len(formatted)-dot-1 > MaxPriceDecimals {
		return 0, errors.New("Price must have at most two decimal places")
	}

	return price, nil
}

// ValidateReviewContent checks presence and length of a review body.
func ValidateReviewContent(content string) error {
	if blank(content) {
		return errors.New("Please write a review")
	}
	if Length(content) > MaxReviewLength {
		return errors.New("Review can only have 500 characters")
	}
	return nil
}

// ParseRating accepts whole numbers from 1 to 5.
func ParseRating(rating *float64) (int, error) {
	if rating == nil {
		return 0, errors.New("Rating is required")
	}
	r := *rating
	if r != math.Trunc(r) || r < 1 || r > 5 {
		return 0, errors.New("Not a valid rating")
	}
	return int(r), nil
}
