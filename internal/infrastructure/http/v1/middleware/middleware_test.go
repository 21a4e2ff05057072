package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockroom/internal/core/apperror"
	appctx "stockroom/internal/core/context"
	"stockroom/internal/core/i18n"
)

type stubValidator map[string]*appctx.UserContext

func (s stubValidator) ValidateToken(token string) (*appctx.UserContext, error) {
	if u, ok := s[token]; ok {
		return u, nil
	}
	return nil, errors.New("bad token")
}

var validator = stubValidator{
	"admin":   {UserID: "u1", Username: "root", IsAdmin: true},
	"cashier": {UserID: "u2", Username: "sam", Role: "cashier", Permissions: []string{"sales:create"}, Locale: "ar"},
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/", append(handlers, func(c *gin.Context) { c.String(http.StatusOK, "ok") })...)
	return r
}

func serve(r *gin.Engine, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Code
}

func TestAuth(t *testing.T) {
	r := newEngine(Auth(validator))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"unknown token", "Bearer nope", http.StatusUnauthorized},
		{"valid token", "Bearer admin", http.StatusOK},
		{"scheme is case-insensitive", "bearer admin", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(r, map[string]string{"Authorization": tt.header})
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusUnauthorized {
				assert.Equal(t, apperror.CodeUnauthorized, errorCode(t, w))
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	var seen *appctx.UserContext
	r := newEngine(OptionalAuth(validator), func(c *gin.Context) {
		seen = appctx.GetUser(c.Request.Context())
	})

	assert.Equal(t, http.StatusOK, serve(r, nil).Code)
	assert.Nil(t, seen)

	assert.Equal(t, http.StatusOK, serve(r, map[string]string{"Authorization": "Bearer cashier"}).Code)
	require.NotNil(t, seen)
	assert.Equal(t, "sam", seen.Username)
}

func TestRequirePermission(t *testing.T) {
	r := newEngine(OptionalAuth(validator), RequirePermission("settings:manage"))

	w := serve(r, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, map[string]string{"Authorization": "Bearer cashier"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, apperror.CodeForbidden, errorCode(t, w))

	w = serve(r, map[string]string{"Authorization": "Bearer admin"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAnyPermission(t *testing.T) {
	r := newEngine(Auth(validator), RequireAnyPermission("reports:view", "sales:create"))

	w := serve(r, map[string]string{"Authorization": "Bearer cashier"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestErrorHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/app", func(c *gin.Context) {
		_ = c.Error(apperror.NewValidation("title is required").WithDetail("field", "title"))
	})
	r.GET("/plain", func(c *gin.Context) {
		_ = c.Error(errors.New("database exploded"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/app", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, apperror.CodeValidation, body.Code)
	assert.Equal(t, "title is required", body.Message)
	assert.Equal(t, "title", body.Details["field"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/plain", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "exploded")
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery())
	r.GET("/", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestLocale(t *testing.T) {
	bundle := i18n.Default()
	var got string
	r := newEngine(OptionalAuth(validator), Locale(bundle), func(c *gin.Context) {
		got = appctx.GetLocale(c.Request.Context(), "")
	})

	tests := []struct {
		name   string
		header map[string]string
		want   string
	}{
		{"default", nil, i18n.LocaleEN},
		{"accept-language", map[string]string{"Accept-Language": "ar-EG,ar;q=0.9"}, i18n.LocaleAR},
		{"token locale beats accept-language", map[string]string{
			"Authorization":   "Bearer cashier",
			"Accept-Language": "en-US",
		}, i18n.LocaleAR},
		{"explicit header wins", map[string]string{
			"Authorization": "Bearer cashier",
			HeaderLocale:    "en",
		}, i18n.LocaleEN},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(r, tt.header)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, w.Header().Get("Content-Language"))
		})
	}
}

func TestTraceSetsRequestID(t *testing.T) {
	var requestID string
	r := newEngine(Trace(), func(c *gin.Context) {
		if tc := appctx.GetTrace(c.Request.Context()); tc != nil {
			requestID = tc.RequestID
		}
	})

	w := serve(r, map[string]string{"X-Request-ID": "req-42"})
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
	assert.Equal(t, "req-42", requestID)

	w = serve(r, nil)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
