package handler

// DB-backed auth flow tests, skipped unless TEST_DATABASE_DSN points at a
// database with migrations/schema.sql loaded.

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatwise/event-ticketing/internal/config"
	"github.com/seatwise/event-ticketing/internal/model"
	"github.com/seatwise/event-ticketing/internal/repository"
)

func newAuthHandler(t *testing.T) *AuthHandler {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}
	db, err := sql.Open("mysql", dsn)
	require.NoError(t, err)
	require.NoError(t, db.Ping())
	t.Cleanup(func() { db.Close() })

	for _, table := range []string{"refresh_tokens", "tickets", "reservation_items", "reservations", "users"} {
		_, err := db.Exec("DELETE FROM " + table)
		require.NoError(t, err, "wipe %s", table)
	}

	cfg := config.Config{
		JWTSecret:      "test-secret",
		AccessTTLMin:   15,
		RefreshTTLDays: 7,
		BcryptCost:     4,
	}
	return NewAuthHandler(cfg, repository.NewUserRepo(db), repository.NewTokenRepo(db))
}

func postJSON(e *echo.Echo, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeAuth(t *testing.T, rec *httptest.ResponseRecorder) authResp {
	t.Helper()
	var resp authResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestRegister_AlwaysCustomer(t *testing.T) {
	h := newAuthHandler(t)
	e := echo.New()

	// A role in the payload is ignored; self-registration never grants ADMIN.
	c, rec := postJSON(e, "/v1/auth/register",
		`{"email":"eve@example.com","full_name":"Eve","password":"secret","role":"ADMIN"}`)
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeAuth(t, rec)
	assert.Equal(t, model.RoleCustomer, resp.User.Role)

	c, rec = postJSON(e, "/v1/auth/login", `{"email":"eve@example.com","password":"secret"}`)
	require.NoError(t, h.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.RoleCustomer, decodeAuth(t, rec).User.Role)
}

func TestLogoutAll_RevokesEverySession(t *testing.T) {
	h := newAuthHandler(t)
	e := echo.New()

	c, rec := postJSON(e, "/v1/auth/register",
		`{"email":"alice@example.com","full_name":"Alice","password":"secret"}`)
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)
	first := decodeAuth(t, rec)

	// A second login opens a second session with its own refresh token.
	c, rec = postJSON(e, "/v1/auth/login", `{"email":"alice@example.com","password":"secret"}`)
	require.NoError(t, h.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)
	second := decodeAuth(t, rec)

	c, rec = postJSON(e, "/v1/auth/logout-all", "")
	c.Set("user_id", float64(first.User.ID))
	require.NoError(t, h.LogoutAll(c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	for _, token := range []string{first.Refresh.Token, second.Refresh.Token} {
		c, rec = postJSON(e, "/v1/auth/refresh", `{"refresh_token":"`+token+`"}`)
		require.NoError(t, h.Refresh(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
}

func TestLogoutAll_Unauthenticated(t *testing.T) {
	h := newAuthHandler(t)
	e := echo.New()

	c, rec := postJSON(e, "/v1/auth/logout-all", "")
	require.NoError(t, h.LogoutAll(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
