package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/ielts-prep-api/internal/utils"
)

// RequireUser rejects requests whose token carried no usable subject claim.
// Evaluations and progress are always scoped to a learner, so anonymous
// tokens stop here.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch id := c.Locals("user_id").(type) {
		case uint:
			if id > 0 {
				return c.Next()
			}
		case int:
			if id > 0 {
				return c.Next()
			}
		}
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}
}
