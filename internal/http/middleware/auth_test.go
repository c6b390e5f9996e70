package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/nurpe/rms-service-orders/internal/model"
)

type stubParser struct {
	principal model.Principal
	token     string
}

func (s stubParser) Parse(token string) (model.Principal, error) {
	if token != s.token {
		return model.Principal{}, errors.New("bad token")
	}
	return s.principal, nil
}

func TestAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	principal := model.Principal{UserID: uuid.New(), Role: model.UserRoleManager}

	router := gin.New()
	router.Use(Auth(stubParser{principal: principal, token: "good"}))
	router.GET("/me", func(c *gin.Context) {
		p, ok := MustPrincipal(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, string(p.Role))
	})

	cases := []struct {
		header string
		status int
	}{
		{"", http.StatusUnauthorized},
		{"Bearer bad", http.StatusUnauthorized},
		{"Bearer good", http.StatusOK},
		{"bearer good", http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, tc.status, rec.Code, tc.header)
		if tc.status == http.StatusOK {
			assert.Equal(t, "manager", rec.Body.String())
		}
	}
}
