// Package handler contains the Echo HTTP handlers. Handlers stay thin:
// bind and validate input, call the service layer, translate domain errors
// into JSON responses.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/seatwise/event-ticketing/internal/service"
)

// fail maps a service error to its HTTP status; anything else is a 500 with
// the detail kept out of the response.
func fail(c echo.Context, err error) error {
	var derr *service.Error
	if errors.As(err, &derr) {
		body := echo.Map{"error": derr.Message}
		if derr.ReservationID != 0 {
			body["reservation_id"] = derr.ReservationID
		}
		return c.JSON(derr.Status, body)
	}
	c.Logger().Error(err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// pathID parses the named path parameter as an unsigned integer.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}
