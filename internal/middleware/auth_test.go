package middleware

import (
	"testing"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

const testSecret = "test-secret"

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func runAuth(token string, mutate func(*fasthttp.RequestCtx)) (*fasthttp.RequestCtx, bool) {
	ctx := &fasthttp.RequestCtx{}
	if token != "" {
		ctx.Request.Header.Set("Authorization", "Bearer "+token)
	}
	if mutate != nil {
		mutate(ctx)
	}

	var reached bool
	handler := JWTAuth(testSecret, nil)(func(ctx *fasthttp.RequestCtx) {
		reached = true
	})
	handler(ctx)
	return ctx, reached
}

func TestJWTAuthMissingToken(t *testing.T) {
	ctx, reached := runAuth("", nil)
	assert.False(t, reached)
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
}

func TestJWTAuthBadSignature(t *testing.T) {
	bad, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "alice"}).
		SignedString([]byte("other-secret"))
	require.NoError(t, err)

	ctx, reached := runAuth(bad, nil)
	assert.False(t, reached)
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
}

func TestJWTAuthForwardsClaims(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"sub": "alice", "role": "operator"})

	ctx, reached := runAuth(token, nil)
	require.True(t, reached)
	assert.Equal(t, "alice", string(ctx.Request.Header.Peek(HeaderSubject)))
	assert.Equal(t, "operator", string(ctx.Request.Header.Peek(HeaderRole)))
}

func TestJWTAuthStripsSpoofedClaimHeaders(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"sub": "alice"})

	ctx, reached := runAuth(token, func(ctx *fasthttp.RequestCtx) {
		ctx.Request.Header.Set(HeaderRole, "operator")
		ctx.Request.Header.Set(HeaderSubject, "mallory")
	})
	require.True(t, reached)
	assert.Equal(t, "alice", string(ctx.Request.Header.Peek(HeaderSubject)))
	assert.Empty(t, string(ctx.Request.Header.Peek(HeaderRole)), "client-sent role must not survive")
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name        string
		role        string
		wantReached bool
		wantStatus  int
	}{
		{"matching role", "operator", true, fasthttp.StatusOK},
		{"wrong role", "donor", false, fasthttp.StatusForbidden},
		{"missing role", "", false, fasthttp.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := &fasthttp.RequestCtx{}
			if tt.role != "" {
				ctx.Request.Header.Set(HeaderRole, tt.role)
			}

			var reached bool
			handler := RequireRole("operator", nil)(func(ctx *fasthttp.RequestCtx) {
				reached = true
			})
			handler(ctx)

			assert.Equal(t, tt.wantReached, reached)
			if !tt.wantReached {
				assert.Equal(t, tt.wantStatus, ctx.Response.StatusCode())
			}
		})
	}
}
