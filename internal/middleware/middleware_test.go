package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"consultant-access/internal/domain/admin"
	"consultant-access/internal/domain/consultant"
	"consultant-access/internal/domain/identity"
	"consultant-access/internal/mocks"
	"consultant-access/internal/ratelimit"
	"consultant-access/internal/usecase/authz"
	appErrors "consultant-access/pkg/errors"
	"consultant-access/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubVerifier struct {
	principals map[string]identity.Principal
}

func (s stubVerifier) VerifySession(_ context.Context, bearer string) (identity.Principal, error) {
	if bearer == "expired" {
		return nil, appErrors.ErrSessionExpired
	}
	if p, ok := s.principals[bearer]; ok {
		return p, nil
	}
	return nil, appErrors.ErrInvalidSession
}

func decode(t *testing.T, w *httptest.ResponseRecorder) utils.Response {
	t.Helper()
	var resp utils.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func perform(r http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestIDMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware(), RequestMetaMiddleware())
	r.GET("/", func(c *gin.Context) {
		meta := identity.RequestMetaFromContext(c.Request.Context())
		c.String(http.StatusOK, meta.RequestID)
	})

	w := perform(r, http.MethodGet, "/", "", "")
	generated := w.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(generated)
	require.NoError(t, err)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "bad\nid")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEqual(t, "bad\nid", w.Header().Get(RequestIDHeader))
}

func TestAuthenticate(t *testing.T) {
	adminP := identity.AdminPrincipal{Admin: &admin.Admin{ID: uuid.New(), Email: "root@example.com"}}
	verifier := stubVerifier{principals: map[string]identity.Principal{"admin-token": adminP}}

	r := gin.New()
	r.Use(Authenticate(verifier))
	r.GET("/me", func(c *gin.Context) {
		fromGin, ok := GetPrincipal(c)
		require.True(t, ok)
		fromCtx, ok := identity.FromContext(c.Request.Context())
		require.True(t, ok)
		assert.Equal(t, fromGin, fromCtx)
		c.String(http.StatusOK, fromGin.AccountID().String())
	})

	w := perform(r, http.MethodGet, "/me", "admin-token", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, adminP.AccountID().String(), w.Body.String())

	cases := []struct {
		name  string
		token string
		code  string
	}{
		{"missing", "", appErrors.CodeInvalidSession},
		{"unknown", "nope", appErrors.CodeInvalidSession},
		{"expired", "expired", appErrors.CodeSessionExpired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := perform(r, http.MethodGet, "/me", tc.token, "")
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, tc.code, decode(t, w).Error.Code)
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Basic abc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoleAndPermissionGates(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := mocks.NewMockPermissionSource(ctrl)
	guard := authz.NewGuard(source)

	consultantP := identity.ConsultantPrincipal{Consultant: &consultant.Consultant{ID: uuid.New(), Username: "broker1"}}
	adminP := identity.AdminPrincipal{Admin: &admin.Admin{ID: uuid.New()}}
	verifier := stubVerifier{principals: map[string]identity.Principal{
		"consultant": consultantP,
		"admin":      adminP,
	}}

	r := gin.New()
	r.Use(Authenticate(verifier))
	r.GET("/admin", AdminOnly(guard), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/mine", ConsultantOnly(guard), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.DELETE("/profiles/1", RequirePermission(guard, consultant.CapabilityDeleteProfile), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusNoContent, perform(r, http.MethodGet, "/admin", "admin", "").Code)
	assert.Equal(t, http.StatusNoContent, perform(r, http.MethodGet, "/mine", "consultant", "").Code)

	w := perform(r, http.MethodGet, "/admin", "consultant", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, appErrors.CodeForbiddenRole, decode(t, w).Error.Code)

	source.EXPECT().CurrentPermissions(gomock.Any(), consultantP.AccountID()).Return(consultant.DefaultPermissions(), nil)
	w = perform(r, http.MethodDelete, "/profiles/1", "consultant", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	body := decode(t, w)
	assert.Equal(t, appErrors.CodePermissionDenied, body.Error.Code)
	assert.Equal(t, "delete_profile", body.Error.Details["capability"])

	source.EXPECT().CurrentPermissions(gomock.Any(), consultantP.AccountID()).Return(consultant.Permissions{DeleteProfile: true}, nil)
	assert.Equal(t, http.StatusNoContent, perform(r, http.MethodDelete, "/profiles/1", "consultant", "").Code)

	assert.Equal(t, http.StatusNoContent, perform(r, http.MethodDelete, "/profiles/1", "admin", "").Code)
}

func TestWindowLimit(t *testing.T) {
	store := ratelimit.NewMemoryStore()
	defer store.Close()

	r := gin.New()
	r.POST("/register", WindowLimit(store, Tier{Name: "register", Limit: 2, Window: time.Hour}),
		func(c *gin.Context) { c.Status(http.StatusCreated) })

	for i := 0; i < 2; i++ {
		w := perform(r, http.MethodPost, "/register", "", "")
		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}

	w := perform(r, http.MethodPost, "/register", "", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "3600", w.Header().Get("Retry-After"))
	assert.Equal(t, appErrors.CodeRateLimited, decode(t, w).Error.Code)
}

func TestWindowLimitSkipsSuccessfulLogins(t *testing.T) {
	store := ratelimit.NewMemoryStore()
	defer store.Close()

	r := gin.New()
	r.POST("/login", WindowLimit(store, Tier{
		Name: "login", Limit: 2, Window: 15 * time.Minute,
		Key: ByIPAndIdentifier("identifier"), SkipSuccessful: true,
	}), func(c *gin.Context) {
		var req struct {
			Identifier string `json:"identifier"`
			Password   string `json:"password"`
		}
		require.NoError(t, c.ShouldBindJSON(&req))
		if req.Password == "right" {
			c.Status(http.StatusOK)
			return
		}
		c.Status(http.StatusUnauthorized)
	})

	for i := 0; i < 5; i++ {
		w := perform(r, http.MethodPost, "/login", "", `{"identifier":"broker1","password":"right"}`)
		require.Equal(t, http.StatusOK, w.Code)
	}

	for i := 0; i < 2; i++ {
		w := perform(r, http.MethodPost, "/login", "", `{"identifier":"Broker1","password":"wrong"}`)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	}
	w := perform(r, http.MethodPost, "/login", "", `{"identifier":"broker1","password":"right"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// A different identifier from the same address has its own bucket.
	w = perform(r, http.MethodPost, "/login", "", `{"identifier":"broker2","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestByIPAndIdentifierFollowsStructBinding(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"plain", `{"identifier":" Broker1 "}`, "broker1"},
		{"other case only", `{"Identifier":"broker1"}`, "broker1"},
		{"last duplicate wins", `{"identifier":"decoy7","Identifier":"victim"}`, "victim"},
		{"non string ignored", `{"identifier":42}`, ""},
		{"not an object", `["identifier"]`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(tt.body))

			var bound struct {
				Identifier string `json:"identifier"`
			}
			key := ByIPAndIdentifier("identifier")(c)
			_ = c.ShouldBindJSON(&bound)

			got, ok := GetLimitedIdentifier(c)
			if tt.want == "" {
				assert.False(t, ok)
				assert.Equal(t, c.ClientIP(), key)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, c.ClientIP()+":"+tt.want, key)
			assert.Equal(t, tt.want, strings.ToLower(strings.TrimSpace(bound.Identifier)))
		})
	}
}

type failingStore struct{}

func (failingStore) Increment(context.Context, string, time.Duration) (int64, time.Duration, error) {
	return 0, 0, errors.New("redis down")
}

func (failingStore) Decrement(context.Context, string) error { return nil }

func TestWindowLimitFailsOpen(t *testing.T) {
	r := gin.New()
	r.POST("/reset", WindowLimit(failingStore{}, Tier{Name: "reset", Limit: 1, Window: time.Hour}),
		func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, perform(r, http.MethodPost, "/reset", "", "").Code)
	}
}

func TestGeneralRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(0.001, 2)
	defer limiter.Close()

	r := gin.New()
	r.Use(limiter.Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/", "", "").Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/", "", "").Code)

	w := perform(r, http.MethodGet, "/", "", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestSecurityHeadersAndRequestSize(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeadersMiddleware(true), RequestSizeLimitMiddleware(8))
	r.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := perform(r, http.MethodPost, "/", "", "tiny")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.NotEmpty(t, w.Header().Get("Strict-Transport-Security"))

	w = perform(r, http.MethodPost, "/", "", "this body is too large")
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
