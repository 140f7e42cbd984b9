package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ielts-prep-api/internal/observability"
)

func TestObservabilityRecordsV2Requests(t *testing.T) {
	var buf bytes.Buffer
	app := fiber.New()
	app.Use(CorrelationID())
	app.Use(Observability(zerolog.New(&buf)))
	app.Get("/api/v2/ping", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusAccepted)
	})
	app.Get("/api/v1/ping", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusAccepted)
	})

	before := testutil.ToFloat64(observability.APIRequests().WithLabelValues(http.MethodGet, "/api/v2/ping", "202"))

	req := httptest.NewRequest(http.MethodGet, "/api/v2/ping", nil)
	req.Header.Set("X-Correlation-ID", "corr-123")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusAccepted, resp.StatusCode)
	require.Equal(t, "corr-123", resp.Header.Get("X-Correlation-ID"))

	after := testutil.ToFloat64(observability.APIRequests().WithLabelValues(http.MethodGet, "/api/v2/ping", "202"))
	require.Equal(t, before+1, after)
	require.Contains(t, buf.String(), `"correlation_id":"corr-123"`)
	require.Contains(t, buf.String(), "request completed")

	buf.Reset()
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusAccepted, resp.StatusCode)
	require.Empty(t, buf.String())
}
