package server

import (
	"net/http"
	"strings"

	"campingrate/internal/models"
	"campingrate/internal/storage"

	"github.com/gofiber/fiber/v2"
)

// localImagePrefix is where images kept by the in-memory store are served.
const localImagePrefix = "/images"

// ServeLocalImage handles GET /images/* when images live in process memory.
// Object-store deployments serve images from the bucket and never mount it.
func (s *Server) ServeLocalImage(c *fiber.Ctx) error {
	store, ok := s.images.(*storage.MemoryStore)
	if !ok {
		return models.RespondWithError(c, fiber.StatusNotFound, models.NewNotFoundError("Image", c.Params("*")))
	}

	key := c.Params("*")
	if !validImageKey(key) {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid image key"))
	}

	data, contentType, found := store.Open(key)
	if !found {
		return models.RespondWithError(c, fiber.StatusNotFound, models.NewNotFoundError("Image", key))
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")
	// The client runs on another origin.
	c.Set("Cross-Origin-Resource-Policy", "cross-origin")
	return c.Send(data)
}

// validImageKey accepts the keys the campground service generates.
func validImageKey(key string) bool {
	if key == "" || strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return false
	}
	for _, ch := range key {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
		case ch == '-' || ch == '_' || ch == '.' || ch == '/':
		default:
			return false
		}
	}
	return true
}
