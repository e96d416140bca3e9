package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newRateLimitRouter(limit int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	// Один экземпляр на обе ручки, как в боевом роутере.
	rl := RateLimitMiddleware(limit, time.Minute)
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	router.POST("/login", rl, ok)
	router.POST("/request-password", rl, ok)
	return router
}

func doLimited(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, nil)
	req.RemoteAddr = "10.0.0.1:4000"
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimitMiddleware_PerRouteBuckets(t *testing.T) {
	router := newRateLimitRouter(2)

	first := doLimited(router, "/login")
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, http.StatusOK, doLimited(router, "/login").Code)
	assert.Equal(t, http.StatusTooManyRequests, doLimited(router, "/login").Code)

	// Исчерпанный лимит логина не трогает счётчик сброса пароля.
	assert.Equal(t, http.StatusOK, doLimited(router, "/request-password").Code)
}
