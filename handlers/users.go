package handlers

import (
	"context"

	"github.com/biosecret/go-todo/models"
	"github.com/gofiber/fiber/v2"
)

type UserService interface {
	Register(ctx context.Context, username, password string) (models.User, error)
	Login(ctx context.Context, username, password string) (string, error)
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type UserHandler struct {
	users UserService
}

func NewUserHandler(users UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Register godoc
// @Summary Register a new user
// @Tags users
// @Accept json
// @Produce json
// @Param credentials body credentials true "Username and password"
// @Success 200 {object} models.PublicUser
// @Failure 400 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Router /users/register [post]
func (h *UserHandler) Register(c *fiber.Ctx) error {
	var input credentials
	if err := c.BodyParser(&input); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.users.Register(c.UserContext(), input.Username, input.Password)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(user.Public())
}

// Login godoc
// @Summary Exchange credentials for an access token
// @Tags users
// @Accept json
// @Produce json
// @Param credentials body credentials true "Username and password"
// @Success 200 {object} tokenResponse
// @Failure 401 {object} errorResponse
// @Failure 429 {object} errorResponse
// @Router /users/login [post]
func (h *UserHandler) Login(c *fiber.Ctx) error {
	var input credentials
	if err := c.BodyParser(&input); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	token, err := h.users.Login(c.UserContext(), input.Username, input.Password)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(tokenResponse{Token: token})
}
