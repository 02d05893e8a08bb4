package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bodyLimitRouter(limit int64) *gin.Engine {
	r := gin.New()
	r.Use(ErrorHandler(), BodyLimit(limit))
	r.POST("/", func(c *gin.Context) {
		var body map[string]string
		if err := c.ShouldBindJSON(&body); err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, body)
	})
	return r
}

func TestBodyLimit(t *testing.T) {
	r := bodyLimitRouter(32)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"soup"}`)))
	assert.Equal(t, http.StatusOK, rr.Code)

	big := `{"name":"` + strings.Repeat("a", 64) + `"}`
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big)))
	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "payload_too_large", body.Code)
}

func TestBodyLimitWithoutContentLength(t *testing.T) {
	r := bodyLimitRouter(32)

	big := `{"name":"` + strings.Repeat("a", 64) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
	req.ContentLength = -1

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}
