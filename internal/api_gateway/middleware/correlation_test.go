package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func serveWithCorrelation(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, string) {
	t.Helper()
	router := gin.New()
	router.Use(CorrelationID())
	var contextID string
	router.GET("/test", func(c *gin.Context) {
		contextID = c.GetString(CorrelationIDKey)
		c.Status(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr, contextID
}

func TestCorrelationIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("GeneratesCorrelationIDIfNotProvided", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/test", nil)
		rr, contextID := serveWithCorrelation(t, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		headerID := rr.Header().Get(CorrelationIDHeader)
		assert.NotEmpty(t, headerID)
		_, err := uuid.Parse(headerID)
		assert.NoError(t, err, "generated id should be a valid UUID")

		assert.Equal(t, headerID, contextID, "header and context should carry the same id")
	})

	t.Run("UsesCorrelationIDIfProvided", func(t *testing.T) {
		providedID := uuid.New().String()
		req, _ := http.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(CorrelationIDHeader, providedID)

		rr, contextID := serveWithCorrelation(t, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, providedID, rr.Header().Get(CorrelationIDHeader))
		assert.Equal(t, providedID, contextID)
	})
}

func TestGetCorrelationID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("ReturnsIDFromContext", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		expectedID := uuid.New().String()
		c.Set(CorrelationIDKey, expectedID)

		assert.Equal(t, expectedID, GetCorrelationID(c))
	})

	t.Run("EmptyWhenMiddlewareDidNotRun", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		assert.Empty(t, GetCorrelationID(c))
	})

	t.Run("EmptyWhenContextValueIsNotString", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Set(CorrelationIDKey, 12345)
		assert.Empty(t, GetCorrelationID(c))
	})
}
