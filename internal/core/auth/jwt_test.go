package auth

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-gin-gorm-auth/internal/domain"
)

const testSecret = "test_secret_key_1234567890_abcdef"

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestJWTer(t *testing.T) (*JWTer, *fakeClock) {
	t.Helper()
	j, err := NewJWTer(testSecret, "test-issuer", time.Hour, 0)
	require.NoError(t, err)
	clk := &fakeClock{t: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)}
	j.Now = clk.Now
	return j, clk
}

func TestNewJWTer_Validation(t *testing.T) {
	_, err := NewJWTer("short", "iss", time.Hour, 0)
	assert.Error(t, err)
	_, err = NewJWTer(testSecret, "iss", 0, 0)
	assert.Error(t, err)
}

func TestJWTer_IssueAndVerify(t *testing.T) {
	j, clk := newTestJWTer(t)

	tests := []struct {
		name string
		uid  string
		role domain.Role
	}{
		{name: "admin", uid: "u-1", role: domain.RoleAdmin},
		{name: "regular user", uid: "u-2", role: domain.RoleUser},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok, exp, err := j.Issue(tt.uid, tt.role)
			require.NoError(t, err)
			assert.Equal(t, clk.Now().Add(time.Hour), exp)

			c, err := j.Verify(tok)
			require.NoError(t, err)
			assert.Equal(t, tt.uid, c.UID)
			assert.Equal(t, tt.role, c.Role)
			assert.True(t, clk.Now().Equal(c.IssuedAt.Time))
			assert.True(t, exp.Equal(c.ExpiresAt.Time))
		})
	}
}

func TestJWTer_Expiry(t *testing.T) {
	j, clk := newTestJWTer(t)
	tok, _, err := j.Issue("u-1", domain.RoleUser)
	require.NoError(t, err)

	clk.Advance(59 * time.Minute)
	_, err = j.Verify(tok)
	require.NoError(t, err)

	clk.Advance(time.Minute + time.Second)
	_, err = j.Verify(tok)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExpired))
	assert.Equal(t, "expired", Reason(err))
}

func TestJWTer_Leeway(t *testing.T) {
	j, clk := newTestJWTer(t)
	j.Leeway = 30 * time.Second
	tok, _, err := j.Issue("u-1", domain.RoleUser)
	require.NoError(t, err)

	clk.Advance(time.Hour + 10*time.Second)
	_, err = j.Verify(tok)
	assert.NoError(t, err)
}

func TestJWTer_FailureKinds(t *testing.T) {
	j, _ := newTestJWTer(t)

	other, err := NewJWTer("another_secret_key_0987654321_zyxwvu", "test-issuer", time.Hour, 0)
	require.NoError(t, err)
	other.Now = j.Now
	foreign, _, err := other.Issue("u-1", domain.RoleAdmin)
	require.NoError(t, err)

	noneTok, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"uid": "u-1", "role": "admin", "iss": "test-issuer", "exp": j.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uid": "u-1", "role": "admin", "iss": "test-issuer",
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{name: "empty", token: "", want: ErrMalformed},
		{name: "garbage", token: "invalid.token.here", want: ErrMalformed},
		{name: "two segments", token: "abc.def", want: ErrMalformed},
		{name: "wrong secret", token: foreign, want: ErrInvalidSignature},
		{name: "alg none", token: noneTok, want: ErrInvalidSignature},
		{name: "missing exp", token: noExp, want: ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := j.Verify(tt.token)
			require.Error(t, err)
			assert.Nil(t, c)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestJWTer_WrongIssuer(t *testing.T) {
	j, _ := newTestJWTer(t)
	other := *j
	other.Issuer = "someone-else"
	tok, _, err := other.Issue("u-1", domain.RoleUser)
	require.NoError(t, err)

	_, err = j.Verify(tok)
	assert.Error(t, err)
}

// 任意单个 bit 被篡改（载荷或签名字节）都必须校验失败
func TestJWTer_SingleBitTamper(t *testing.T) {
	j, _ := newTestJWTer(t)
	tok, _, err := j.Issue("u-1", domain.RoleUser)
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)

	for _, seg := range []int{1, 2} {
		raw, err := base64.RawURLEncoding.DecodeString(parts[seg])
		require.NoError(t, err)

		for i := range raw {
			for bit := 0; bit < 8; bit++ {
				mut := append([]byte(nil), raw...)
				mut[i] ^= 1 << bit
				p := append([]string(nil), parts...)
				p[seg] = base64.RawURLEncoding.EncodeToString(mut)

				_, err := j.Verify(strings.Join(p, "."))
				if !assert.Error(t, err, "segment %d byte %d bit %d", seg, i, bit) {
					return
				}
			}
		}
	}
}

func TestReason(t *testing.T) {
	assert.Equal(t, "signature", Reason(ErrInvalidSignature))
	assert.Equal(t, "malformed", Reason(ErrMalformed))
	assert.Equal(t, "malformed", Reason(errors.New("other")))
}
