package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestParseID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/bugs/:id", func(c *gin.Context) {
		id, ok := parseID(c, "bug")
		if !ok {
			return
		}
		c.String(http.StatusOK, id)
	})

	valid := uuid.NewString()
	tests := []struct {
		name       string
		id         string
		wantStatus int
		wantBody   string
	}{
		{"uuid", valid, http.StatusOK, valid},
		{"not a uuid", "42", http.StatusBadRequest, `{"error":"invalid bug ID"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/bugs/"+tt.id, nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantBody, w.Body.String())
		})
	}
}
