package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatwise/event-ticketing/internal/config"
)

func blockEndpoint(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "success"})
}

func newLimitedEcho(cfg config.RateLimitConfig) (*echo.Echo, redismock.ClientMock) {
	db, mock := redismock.NewClientMock()
	e := echo.New()
	e.POST("/v1/seats/block", blockEndpoint, RateLimit(cfg, db))
	return e, mock
}

func testRateConfig() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:     true,
		Limit:       3,
		Window:      time.Minute,
		KeyStrategy: "ip_route",
		Prefix:      "rl",
	}
}

const blockKeyPattern = `^rl:ip:192\.0\.2\.1:route:POST /v1/seats/block:\d+$`

func doBlockRequest(e *echo.Echo) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/seats/block", nil)
	req.RemoteAddr = "192.0.2.1:51234"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRateLimit_UnderLimit(t *testing.T) {
	e, mock := newLimitedEcho(testRateConfig())
	mock.Regexp().ExpectIncr(blockKeyPattern).SetVal(1)
	mock.Regexp().ExpectExpire(blockKeyPattern, time.Minute).SetVal(true)

	rec := doBlockRequest(e)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Remaining"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimit_OverLimit(t *testing.T) {
	e, mock := newLimitedEcho(testRateConfig())
	// Fourth request in the window: no expire call since the key exists.
	mock.Regexp().ExpectIncr(blockKeyPattern).SetVal(4)

	rec := doBlockRequest(e)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "too_many_requests")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimit_RedisDownPassesThrough(t *testing.T) {
	e, mock := newLimitedEcho(testRateConfig())
	mock.Regexp().ExpectIncr(blockKeyPattern).SetErr(assert.AnError)

	rec := doBlockRequest(e)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit_Disabled(t *testing.T) {
	cfg := testRateConfig()
	cfg.Enabled = false
	e, mock := newLimitedEcho(cfg)

	rec := doBlockRequest(e)

	assert.Equal(t, http.StatusOK, rec.Code)
	// No Redis traffic at all when disabled.
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimit_NilClientPassesThrough(t *testing.T) {
	e := echo.New()
	e.POST("/v1/seats/block", blockEndpoint, RateLimit(testRateConfig(), nil))

	rec := doBlockRequest(e)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBuildRateKey_Strategies(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/seats/block", nil)
	req.RemoteAddr = "192.0.2.1:51234"
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/seats/block")
	c.Set("user_id", float64(7))

	cfg := testRateConfig()
	assert.Equal(t, "rl:ip:192.0.2.1:route:POST /v1/seats/block", buildRateKey(cfg, c))

	cfg.KeyStrategy = "user_route"
	assert.Equal(t, "rl:user:7:route:POST /v1/seats/block", buildRateKey(cfg, c))

	cfg.KeyStrategy = "ip_user_route"
	assert.Equal(t, "rl:ip:192.0.2.1:user:7:route:POST /v1/seats/block", buildRateKey(cfg, c))
}
