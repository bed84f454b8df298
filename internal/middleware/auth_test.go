package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatwise/event-ticketing/internal/model"
	"github.com/seatwise/event-ticketing/internal/utils"
)

const testSecret = "test-secret"

func whoami(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"user_id": UserID(c),
		"role":    c.Get("role"),
	})
}

func authedRequest(t *testing.T, userID uint64, role string) *http.Request {
	t.Helper()
	tok, err := utils.NewAccessToken(testSecret, userID, role, 15)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	return req
}

func TestJWTAuth_ValidToken(t *testing.T) {
	e := echo.New()
	e.GET("/v1/me", whoami, JWTAuth(testSecret))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, authedRequest(t, 42, model.RoleCustomer))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user_id":42`)
	assert.Contains(t, rec.Body.String(), `"role":"CUSTOMER"`)
}

func TestJWTAuth_MissingHeader(t *testing.T) {
	e := echo.New()
	e.GET("/v1/me", whoami, JWTAuth(testSecret))

	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuth_WrongSecret(t *testing.T) {
	e := echo.New()
	e.GET("/v1/me", whoami, JWTAuth("other-secret"))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, authedRequest(t, 42, model.RoleCustomer))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid token")
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	e.GET("/v1/me", whoami, JWTAuth(testSecret), RequireRole(model.RoleAdmin))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, authedRequest(t, 1, model.RoleAdmin))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, authedRequest(t, 2, model.RoleCustomer))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUserID_Unauthenticated(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.Equal(t, uint64(0), UserID(c))
}
