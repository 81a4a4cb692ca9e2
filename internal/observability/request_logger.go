package observability

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// CallerIDFunc extracts the authenticated user id from a request, if any.
type CallerIDFunc func(c *fiber.Ctx) (string, bool)

// RequestLogger logs one line per request and records request metrics.
// Route patterns are used as metric keys to keep cardinality bounded.
func RequestLogger(logger *zap.Logger, metrics *Metrics, callerID CallerIDFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		latency := time.Since(start)

		status := c.Response().StatusCode()
		route := c.Path()
		if r := c.Route(); r != nil && r.Path != "" {
			route = r.Path
		}
		metrics.RecordRequest(route, c.Method(), status, latency)

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", latency),
		}
		if callerID != nil {
			if id, ok := callerID(c); ok {
				fields = append(fields, zap.String("user_id", id))
			}
		}
		logger.Info("request", fields...)
		return err
	}
}
