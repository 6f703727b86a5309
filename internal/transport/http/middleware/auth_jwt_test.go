package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-gin-gorm-auth/internal/core/auth"
	"go-gin-gorm-auth/internal/domain"
)

const testSecret = "middleware_test_secret_0123456789ab"

type stubFinder struct {
	users map[string]*domain.User
	err   error
}

func (s stubFinder) FindByID(_ context.Context, id string) (*domain.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

func gateEngine(t *testing.T, j *auth.JWTer, f UserFinder) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/me", AuthJWT(j, f, zap.NewNop()), func(c *gin.Context) {
		u := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"id": u.ID, "role": u.Role, "uid": c.GetString(KeyUserID), "ctxRole": c.GetString(KeyRole)})
	})
	return r
}

func doGet(r http.Handler, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func body(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	return m
}

func TestAuthJWT(t *testing.T) {
	j, err := auth.NewJWTer(testSecret, "test", time.Hour, 0)
	require.NoError(t, err)
	ana := &domain.User{ID: "u-1", Handle: "ana", Role: domain.RoleUser}
	finder := stubFinder{users: map[string]*domain.User{"u-1": ana}}
	r := gateEngine(t, j, finder)

	valid, _, err := j.Issue("u-1", domain.RoleUser)
	require.NoError(t, err)
	ghost, _, err := j.Issue("u-gone", domain.RoleUser)
	require.NoError(t, err)

	expiredJ, err := auth.NewJWTer(testSecret, "test", time.Hour, 0)
	require.NoError(t, err)
	expiredJ.Now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _, err := expiredJ.Issue("u-1", domain.RoleUser)
	require.NoError(t, err)

	otherJ, err := auth.NewJWTer("another_secret_0123456789abcdefghij", "test", time.Hour, 0)
	require.NoError(t, err)
	forged, _, err := otherJ.Issue("u-1", domain.RoleAdmin)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
		msg    string
	}{
		{"no header", "", http.StatusUnauthorized, "missing token"},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized, "missing token"},
		{"empty bearer", "Bearer ", http.StatusUnauthorized, "missing token"},
		{"garbage", "Bearer not.a.jwt", http.StatusUnauthorized, "invalid token"},
		{"expired", "Bearer " + expired, http.StatusUnauthorized, "invalid token"},
		{"wrong key", "Bearer " + forged, http.StatusUnauthorized, "invalid token"},
		{"deleted subject", "Bearer " + ghost, http.StatusUnauthorized, "invalid token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doGet(r, tt.header)
			assert.Equal(t, tt.status, w.Code)
			b := body(t, w)
			assert.Equal(t, tt.msg, b["msg"])
			assert.EqualValues(t, tt.status, b["code"])
		})
	}

	t.Run("valid", func(t *testing.T) {
		w := doGet(r, "bearer "+valid)
		require.Equal(t, http.StatusOK, w.Code)
		b := body(t, w)
		assert.Equal(t, "u-1", b["id"])
		assert.Equal(t, "u-1", b["uid"])
		assert.Equal(t, "user", b["ctxRole"])
	})
}

func TestAuthJWT_UsesCurrentRecord(t *testing.T) {
	j, err := auth.NewJWTer(testSecret, "test", time.Hour, 0)
	require.NoError(t, err)
	// 签发时是 user，之后被提升为 admin
	promoted := &domain.User{ID: "u-1", Role: domain.RoleAdmin}
	r := gateEngine(t, j, stubFinder{users: map[string]*domain.User{"u-1": promoted}})

	tok, _, err := j.Issue("u-1", domain.RoleUser)
	require.NoError(t, err)
	w := doGet(r, "Bearer "+tok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin", body(t, w)["role"])
}

func TestAuthJWT_StoreFailure(t *testing.T) {
	j, err := auth.NewJWTer(testSecret, "test", time.Hour, 0)
	require.NoError(t, err)
	r := gateEngine(t, j, stubFinder{err: errors.New("connection refused")})

	tok, _, err := j.Issue("u-1", domain.RoleUser)
	require.NoError(t, err)
	w := doGet(r, "Bearer "+tok)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal error", body(t, w)["msg"])
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		in   string
		tok  string
		isOK bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"  Bearer   abc  ", "abc", true},
		{"Bearer", "", false},
		{"Bearer ", "", false},
		{"Token abc", "", false},
		{"Bearer a b", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		tok, ok := BearerToken(tt.in)
		assert.Equal(t, tt.isOK, ok, tt.in)
		assert.Equal(t, tt.tok, tok, tt.in)
	}
}

func TestCurrentUser_NoGate(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, CurrentUser(c))
}
