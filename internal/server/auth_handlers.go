package server

import (
	"time"

	"campingrate/internal/middleware"
	"campingrate/internal/models"
	"campingrate/internal/service"

	"github.com/gofiber/fiber/v2"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /api/register
// @Summary Register
// @Description Create a new user account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{username=string,email=string,password=string} true "Registration request"
// @Success 201 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.authService.Register(c.UserContext(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return models.Respond(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(user)
}

// Login handles POST /api/login
// @Summary Login
// @Description Authenticate and receive the session cookie
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string,password=string} true "Login credentials"
// @Success 200 {object} models.User
// @Failure 401 {object} models.ErrorResponse
// @Router /login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, token, err := s.authService.Login(c.UserContext(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return models.Respond(c, err)
	}

	c.Cookie(s.tokenCookie(token, int(s.tokens.TTL().Seconds())))
	return c.JSON(user)
}

// Profile handles GET /api/profile
// @Summary Current session
// @Description Returns the claims of a valid session cookie, or null
// @Tags auth
// @Produce json
// @Success 200 {object} auth.Claims
// @Router /profile [get]
func (s *Server) Profile(c *fiber.Ctx) error {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		return c.JSON(nil)
	}
	return c.JSON(claims)
}

// Logout handles POST /api/logout
// @Summary Logout
// @Description Clears the session cookie. Issued tokens stay valid until they expire.
// @Tags auth
// @Produce json
// @Success 200 {object} object{message=string}
// @Router /logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	cookie := s.tokenCookie("", 0)
	cookie.Expires = time.Unix(0, 0)
	c.Cookie(cookie)
	return c.JSON(fiber.Map{"message": "Logout successful"})
}

func (s *Server) tokenCookie(value string, maxAge int) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     middleware.TokenCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}
