package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatwise/event-ticketing/internal/service"
)

func failWith(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/rezervations", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, fail(c, err))
	return rec
}

func TestFail_DomainError(t *testing.T) {
	rec := failWith(t, service.Conflict("Seat %d is on hold", 101))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"Seat 101 is on hold"}`, rec.Body.String())
}

func TestFail_DuplicateConflictCarriesReservationID(t *testing.T) {
	derr := service.Conflict("Seat %d already exists in your pending reservation", 101)
	derr.ReservationID = 77
	rec := failWith(t, derr)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t,
		`{"error":"Seat 101 already exists in your pending reservation","reservation_id":77}`,
		rec.Body.String())
}

func TestFail_UnknownErrorIsOpaque500(t *testing.T) {
	rec := failWith(t, errors.New("driver: bad connection"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "driver")
}
