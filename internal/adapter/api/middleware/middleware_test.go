package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"marketsync/internal/infrastructure/ratelimit"
)

type stubVerifier map[string]string

func (s stubVerifier) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	uid, ok := s[idToken]
	if !ok {
		return nil, fmt.Errorf("token %q rejected", idToken)
	}
	return &auth.Token{UID: uid}, nil
}

func echoUID(c echo.Context) error {
	return c.String(http.StatusOK, UID(c))
}

func TestAuthenticate(t *testing.T) {
	e := echo.New()
	m := NewAuthMiddleware(stubVerifier{"good": "user-1"})
	e.GET("/me", echoUID, m.Authenticate)

	cases := []struct {
		name   string
		header string
		query  string
		status int
		body   string
	}{
		{name: "bearer token", header: "Bearer good", status: http.StatusOK, body: "user-1"},
		{name: "query token", query: "?token=good", status: http.StatusOK, body: "user-1"},
		{name: "missing", status: http.StatusUnauthorized, body: "Authorization header is required"},
		{name: "malformed", header: "Token good", status: http.StatusUnauthorized, body: "Invalid authorization format"},
		{name: "rejected", header: "Bearer bad", status: http.StatusUnauthorized, body: "Invalid or expired token"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me"+tc.query, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.body)
		})
	}
}

func TestRateLimitPerUID(t *testing.T) {
	e := echo.New()
	limiter := ratelimit.NewRateLimiter(2)
	setUID := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("uid", c.Request().Header.Get("X-Test-UID"))
			return next(c)
		}
	}
	e.POST("/write", echoUID, setUID, RateLimit(limiter))

	do := func(uid string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/write", nil)
		req.Header.Set("X-Test-UID", uid)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, do("a").Code)
	assert.Equal(t, http.StatusOK, do("a").Code)

	rec := do("a")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "TOO_MANY_REQUESTS")

	assert.Equal(t, http.StatusOK, do("b").Code)
}
