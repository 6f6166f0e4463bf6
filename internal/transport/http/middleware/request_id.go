package middleware

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// RequestID attaches a correlation id to the request's user context. When
// header is non-empty, an inbound value under that header is reused so ids
// survive proxy hops; otherwise a fresh uuid is generated.
func RequestID(header string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var id string
		if header != "" {
			id = c.Get(header)
		}
		if id == "" {
			id = uuid.New().String()
		}
		c.SetUserContext(context.WithValue(c.UserContext(), requestIDKey, id))
		return c.Next()
	}
}

// RequestIDFrom returns the id attached by RequestID, or "" when the
// middleware did not run.
func RequestIDFrom(c *fiber.Ctx) string {
	id, _ := c.UserContext().Value(requestIDKey).(string)
	return id
}
