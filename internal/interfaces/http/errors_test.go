package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockflow-api/internal/domain"
	"github.com/jhoicas/stockflow-api/pkg/logger"
)

func TestErrorMapper_Codigos(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"insuficiente", &domain.InsufficientStockError{ProductID: "p", WarehouseID: "w", Requested: 2, Available: 1}, http.StatusConflict, "INSUFFICIENT_STOCK"},
		{"tipo de ajuste", domain.ErrInvalidAdjustmentType, http.StatusBadRequest, "INVALID_ADJUSTMENT_TYPE"},
		{"estado", domain.ErrInvalidOrderStatus, http.StatusBadRequest, "INVALID_ORDER_STATUS"},
		{"entrada", fmt.Errorf("crear: %w", domain.ErrInvalidInput), http.StatusBadRequest, "VALIDATION"},
		{"no encontrado", fmt.Errorf("producto p: %w", domain.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"duplicado", domain.ErrDuplicate, http.StatusConflict, "DUPLICATE"},
		{"conflicto", domain.ErrConflict, http.StatusConflict, "CONFLICT"},
		{"abortada", domain.NewTransactionAbortError(errors.New("lock timeout")), http.StatusServiceUnavailable, "TX_ABORTED"},
		{"desconocido", errors.New("pool cerrado"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := newErrorMapper(logger.Nop())
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error { return m.fail(c, tc.err) })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)

			assert.Equal(t, tc.status, resp.StatusCode)
			var body struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tc.code, body.Code)
			if tc.status == http.StatusInternalServerError {
				assert.NotContains(t, body.Message, "pool cerrado")
			}
			if tc.status == http.StatusServiceUnavailable {
				assert.Equal(t, "1", resp.Header.Get("Retry-After"))
			}
		})
	}
}

func TestPageParams(t *testing.T) {
	cases := []struct {
		query         string
		limit, offset int
	}{
		{"", 20, 0},
		{"?limit=5&offset=10", 5, 10},
		{"?limit=500", 100, 0},
		{"?limit=-1&offset=-3", 20, 0},
		{"?page=3&per_page=10", 10, 20},
		{"?page=0&per_page=7", 7, 0},
	}
	for _, tc := range cases {
		app := fiber.New()
		var gotLimit, gotOffset int
		app.Get("/", func(c *fiber.Ctx) error {
			gotLimit, gotOffset = pageParams(c, 20, 100)
			return nil
		})
		_, err := app.Test(httptest.NewRequest(http.MethodGet, "/"+tc.query, nil))
		require.NoError(t, err)
		assert.Equal(t, tc.limit, gotLimit, tc.query)
		assert.Equal(t, tc.offset, gotOffset, tc.query)
	}
}

func TestParseDateParam(t *testing.T) {
	start, err := parseDateParam("2024-03-01", false)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01T00:00:00Z", start.Format("2006-01-02T15:04:05Z07:00"))

	end, err := parseDateParam("2024-03-01", true)
	require.NoError(t, err)
	assert.Equal(t, 2024, end.Year())
	assert.Equal(t, 23, end.Hour())
	assert.Equal(t, 59, end.Second())

	exact, err := parseDateParam("2024-03-01T10:00:00-05:00", true)
	require.NoError(t, err)
	assert.Equal(t, 15, exact.UTC().Hour())

	empty, err := parseDateParam("  ", false)
	require.NoError(t, err)
	assert.Nil(t, empty)

	_, err = parseDateParam("01/03/2024", false)
	assert.Error(t, err)
}
