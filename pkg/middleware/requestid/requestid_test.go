package requestid

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(capture *string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/ping", func(c *gin.Context) {
		*capture = Value(c)
		c.Status(http.StatusOK)
	})
	return r
}

func TestGeneratesIDWhenAbsent(t *testing.T) {
	var seen string
	r := newEngine(&seen)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	require.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get("X-Request-ID"))
	_, err := uuid.Parse(seen)
	assert.NoError(t, err, "generated id %q is not a uuid", seen)
}

func TestHonorsInboundID(t *testing.T) {
	var seen string
	r := newEngine(&seen)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "retry-7f3a")
	r.ServeHTTP(w, req)

	assert.Equal(t, "retry-7f3a", seen)
	assert.Equal(t, "retry-7f3a", w.Header().Get("X-Request-ID"))
}

func TestTruncatesOversizedInboundID(t *testing.T) {
	var seen string
	r := newEngine(&seen)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("a", 500))
	r.ServeHTTP(w, req)

	assert.Len(t, seen, maxInboundLength)
}
