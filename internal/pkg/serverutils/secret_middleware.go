package serverutils

import "github.com/gofiber/fiber/v2"

// SecretKeyMiddleware gates the admin surface behind a ?secret=... query
// parameter. An unset key locks the surface entirely.
func SecretKeyMiddleware(secretKey string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if secretKey == "" || ctx.Query("secret") != secretKey {
			return ctx.Status(fiber.StatusForbidden).
				JSON(ErrorResponse(fiber.StatusForbidden, "Access denied"))
		}
		return ctx.Next()
	}
}
