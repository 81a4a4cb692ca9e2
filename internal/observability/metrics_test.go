package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/messages", "POST", 201, time.Millisecond)
	m.RecordError("/messages", "POST", "FORBIDDEN")
	m.RecordDelivery("delivered")
	m.RecordDelivery("dropped")
	m.RecordDelivery("dropped")
	m.AddConnections(2)
	m.AddConnections(-1)

	snap := m.Snapshot()
	assert.Equal(t, int64(1), snap.Requests["/messages|POST|201"])
	assert.Equal(t, int64(1), snap.Errors["/messages|POST|FORBIDDEN"])
	assert.Equal(t, int64(2), snap.Deliveries["dropped"])
	assert.Equal(t, int64(1), snap.Connections)

	var nilMetrics *Metrics
	nilMetrics.RecordDelivery("dropped")
	assert.Empty(t, nilMetrics.Snapshot().Deliveries)
}

func TestRequestLoggerRecordsRoutePattern(t *testing.T) {
	m := NewMetrics()
	app := fiber.New()
	app.Use(RequestLogger(zap.NewNop(), m, nil))
	app.Get("/profiles/:id", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusNoContent) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/profiles/abc", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, int64(1), m.Snapshot().Requests["/profiles/:id|GET|204"])
}
