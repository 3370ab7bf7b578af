package requestid

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveWithMiddleware(t *testing.T, inbound string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Middleware())

	var seen string
	router.GET("/ping", func(c *gin.Context) {
		seen = Value(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if inbound != "" {
		req.Header.Set("X-Request-ID", inbound)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec, seen
}

func TestGeneratesIDWhenHeaderAbsent(t *testing.T) {
	rec, seen := serveWithMiddleware(t, "")

	id := rec.Header().Get("X-Request-ID")
	require.NotEmpty(t, id)
	assert.Equal(t, id, seen)
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
}

func TestHonorsInboundID(t *testing.T) {
	rec, seen := serveWithMiddleware(t, "caller-supplied")

	assert.Equal(t, "caller-supplied", rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "caller-supplied", seen)
}
