package handlers

import "github.com/gofiber/fiber/v2"

const Version = "1.0.0"

type healthResponse struct {
	Status      string `json:"status"`
	Environment string `json:"environment"`
	Storage     string `json:"storage"`
	Version     string `json:"version"`
}

// HandleRoot answers liveness probes on /.
func HandleRoot(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).SendString("Server is running")
}

// HandleHealthCheck godoc
// @Summary Service health
// @Tags health
// @Produce json
// @Success 200 {object} healthResponse
// @Router /health [get]
func HandleHealthCheck(env, storage string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(healthResponse{
			Status:      "available",
			Environment: env,
			Storage:     storage,
			Version:     Version,
		})
	}
}
